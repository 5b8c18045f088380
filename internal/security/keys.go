package security

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keySize = 32

// Keys holds the independent keys derived from the session secret
type Keys struct {
	Session []byte // signs session tokens
	CSRF    []byte // signs CSRF tokens
}

// DeriveKeys expands one secret into purpose-bound keys with HKDF-SHA256
func DeriveKeys(secret string) (Keys, error) {
	if secret == "" {
		return Keys{}, errors.New("session secret is required")
	}

	session, err := deriveKey(secret, "flashdeck session token")
	if err != nil {
		return Keys{}, err
	}
	csrf, err := deriveKey(secret, "flashdeck csrf token")
	if err != nil {
		return Keys{}, err
	}
	return Keys{Session: session, CSRF: csrf}, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
	}
	return key, nil
}
