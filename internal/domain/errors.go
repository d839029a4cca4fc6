package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrTooManyAttempts marks OTP attempt exhaustion (HTTP 429).
	ErrTooManyAttempts = errors.New("too many attempts")

	// ErrEmailNotVerified gates login for unverified accounts (HTTP 403).
	// Kept distinct from ErrUnauthorized so clients can route the user to the
	// verification flow instead of the login form.
	ErrEmailNotVerified = errors.New("email not verified")
)
