package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrNoCSRFBinding is returned when a token is requested for a visitor with
// neither a study session nor a nonce
var ErrNoCSRFBinding = errors.New("CSRF token needs a session or a nonce")

// Binding is what the browser already holds that a CSRF token is tied to.
// A study session wins over the visitor nonce once one exists.
type Binding struct {
	SessionID string
	Nonce     string
}

// scoped returns the MAC input for b. The scope prefix keeps a token minted
// for a nonce from validating against a session with the same value.
func (b Binding) scoped() (string, bool) {
	switch {
	case b.SessionID != "":
		return "session:" + b.SessionID, true
	case b.Nonce != "":
		return "nonce:" + b.Nonce, true
	default:
		return "", false
	}
}

// CSRFGenerator creates stateless HMAC-SHA256 CSRF tokens
type CSRFGenerator struct {
	key []byte
}

// NewCSRFGenerator creates a CSRF generator using key
func NewCSRFGenerator(key []byte) *CSRFGenerator {
	return &CSRFGenerator{key: key}
}

// GenerateToken returns the CSRF token for b
func (g *CSRFGenerator) GenerateToken(b Binding) (string, error) {
	scoped, ok := b.scoped()
	if !ok {
		return "", ErrNoCSRFBinding
	}
	return g.sign(scoped), nil
}

// ValidateToken reports whether token was generated for b
func (g *CSRFGenerator) ValidateToken(b Binding, token string) bool {
	scoped, ok := b.scoped()
	if !ok || token == "" {
		return false
	}
	return hmac.Equal([]byte(g.sign(scoped)), []byte(token))
}

func (g *CSRFGenerator) sign(scoped string) string {
	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(scoped))
	return hex.EncodeToString(mac.Sum(nil))
}
