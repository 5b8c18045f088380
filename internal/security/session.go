package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// NewNonce returns a random visitor id used to bind CSRF tokens before a
// study session exists
func NewNonce() string {
	return uuid.NewString()
}

// IsSecureRequest reports whether the request arrived over HTTPS, directly
// or through a TLS-terminating proxy
func IsSecureRequest(r *http.Request) bool {
	switch {
	case r.TLS != nil:
		return true
	case r.Header.Get("X-Forwarded-Proto") == "https":
		return true
	default:
		return r.URL.Scheme == "https"
	}
}

// appCookie is the shape shared by every flashdeck cookie: site-wide,
// HttpOnly, Lax, and Secure whenever the request was
func appCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Path:     "/",
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCookie sets name to value until expires
func NewCookie(r *http.Request, name, value string, expires time.Time) *http.Cookie {
	c := appCookie(r, name)
	c.Value = value
	c.Expires = expires
	return c
}

// DeleteCookie clears name in the browser
func DeleteCookie(r *http.Request, name string) *http.Cookie {
	c := appCookie(r, name)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}
