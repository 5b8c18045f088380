package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"flashdeck/internal/security"
	"flashdeck/internal/validation"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const SessionIDContextKey ContextKey = "study_session_id"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.SessionTokens
	csrf    *security.CSRFGenerator
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.SessionTokens, csrf *security.CSRFGenerator, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		tokens:  tokens,
		csrf:    csrf,
		limiter: limiter,
	}
}

// RequireSession resolves the session cookie to a study session ID.
// Requests without a valid cookie are sent back to deck selection.
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := m.sessionFromCookie(r)
		if !ok {
			http.SetCookie(w, security.DeleteCookie(r, SessionCookieName))
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDContextKey, sessionID)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect rejects state-changing requests without a valid token for
// the request's study session or visitor nonce.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binding := security.Binding{SessionID: GetSessionID(r.Context())}
		if cookie, err := r.Cookie(NonceCookieName); err == nil {
			binding.Nonce = cookie.Value
		}

		token := r.Header.Get(CSRFHeaderName)
		if token == "" {
			token = r.FormValue(CSRFFormField)
		}

		if !m.csrf.ValidateToken(binding, token) {
			log.Printf("CSRF validation failed for %s %s from %s", r.Method, r.URL.Path, security.GetClientIP(r))
			http.Error(w, ErrForbidden, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// RateLimit throttles requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow(security.GetClientIP(r)) {
			http.Error(w, ErrTooManyRequests, http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func (m *Middleware) sessionFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	sessionID, err := m.tokens.Verify(cookie.Value)
	if err != nil {
		return "", false
	}
	if err := validation.ValidateSessionID(sessionID); err != nil {
		log.Printf("Rejecting session token: %v", err)
		return "", false
	}
	return sessionID, true
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// GetSessionID retrieves the study session ID from the request context
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDContextKey).(string)
	return id
}
