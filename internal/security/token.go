package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "flashdeck"

// ErrInvalidToken is returned for tokens that are malformed, forged or expired
var ErrInvalidToken = errors.New("invalid session token")

// SessionTokens issues and verifies the signed cookie value that binds a
// browser to its study session
type SessionTokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewSessionTokens creates a token issuer whose tokens live for ttl
func NewSessionTokens(key []byte, ttl time.Duration) *SessionTokens {
	return &SessionTokens{key: key, ttl: ttl, now: time.Now}
}

// Issue signs a token for sessionID and returns it with its expiry
func (t *SessionTokens) Issue(sessionID string) (string, time.Time, error) {
	if sessionID == "" {
		return "", time.Time{}, errors.New("session ID is required")
	}

	now := t.now()
	expires := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks a token and returns the session ID it carries
func (t *SessionTokens) Verify(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)

	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
