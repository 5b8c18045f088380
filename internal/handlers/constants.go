package handlers

const (
	SessionCookieName = "flashdeck_session"
	NonceCookieName   = "flashdeck_nonce"

	CSRFFormField  = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"

	historyLimit = 50

	ErrInvalidFormData     = "Invalid form data"
	ErrForbidden           = "Invalid or missing CSRF token"
	ErrTooManyRequests     = "Too many requests, slow down"
	ErrInternalServerError = "Internal server error"
)
