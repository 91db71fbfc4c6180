package auth

import (
	"fmt"
	"net/http"
)

// DomainError is a structured, self-describing domain error used across the
// auth module. It carries RFC 7807-friendly metadata so a shared formatter
// can convert any domain error into a Problem response without enumerating
// error types.
type DomainError struct {
	// Code is a stable, machine-readable business code (e.g., "ErrTokenInvalid").
	Code string

	// HTTPStatus is the HTTP status suggested for this error.
	HTTPStatus int

	// Title is a short human summary; if empty the formatter defaults to
	// StatusText(HTTPStatus).
	Title string

	// Message is a human-readable message primarily for logs. When Detail is
	// empty, this is used as the public detail.
	Message string

	// Detail is a user-friendly, safe explanation for clients.
	Detail string

	// TypeURI is an RFC 7807 type URI, e.g. "urn:problem:auth/err-token-invalid".
	TypeURI string

	// Context is an optional extension payload for clients.
	Context any

	// cause is the underlying error that triggered this one, if any.
	cause error
}

// Error satisfies the standard Go error interface.
func (e *DomainError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Message
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap provides compatibility for errors.Is and errors.As.
func (e *DomainError) Unwrap() error { return e.cause }

// Is enables errors.Is comparisons based on the stable Code rather than
// pointer identity, so copies created via WithCause match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the DomainError wrapping the provided cause.
func (e *DomainError) WithCause(err error) *DomainError {
	if err == nil {
		return e
	}
	cp := *e
	cp.cause = err
	return &cp
}

// WithDetail sets a public-friendly detail message for clients.
func (e *DomainError) WithDetail(detail string) *DomainError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// --- RFC 7807 mapping accessors (satisfy httpx.DomainProblem) ---

func (e *DomainError) ProblemCode() string { return e.Code }
func (e *DomainError) ProblemStatus() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}
func (e *DomainError) ProblemTitle() string { return e.Title }
func (e *DomainError) ProblemDetail() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}
func (e *DomainError) ProblemTypeURI() string { return e.TypeURI }
func (e *DomainError) ProblemContext() any    { return e.Context }

// --- Pre-defined Domain Errors ---
//
// The client-facing messages are deliberately generic: no error path reveals
// whether an email is registered, or whether a token was expired vs. wrong
// vs. already used.

var (
	ErrNotFound = &DomainError{
		Code:       "ErrNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "record not found",
		TypeURI:    "urn:problem:auth/err-not-found",
	}

	// ErrEmailExists is the one place account existence is necessarily
	// disclosed: a duplicate signup.
	ErrEmailExists = &DomainError{
		Code:       "ErrEmailExists",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "an account with this email already exists",
		TypeURI:    "urn:problem:auth/err-email-exists",
	}

	ErrInvalidCredentials = &DomainError{
		Code:       "ErrInvalidCredentials",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "invalid email or password",
		TypeURI:    "urn:problem:auth/err-invalid-credentials",
	}

	// ErrTokenInvalid covers malformed, expired, revoked, replayed, and
	// already-consumed tokens alike. Clients are expected to force a fresh
	// login when they see it.
	ErrTokenInvalid = &DomainError{
		Code:       "ErrTokenInvalid",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "the provided token is invalid or has expired",
		TypeURI:    "urn:problem:auth/err-token-invalid",
	}

	// ErrSessionRevoked is internal: the repository reports it when a
	// conditional rotation finds the session already revoked. The service
	// translates it into ErrTokenInvalid after revoking the user's other
	// sessions (replay response). It never reaches a client as-is.
	ErrSessionRevoked = &DomainError{
		Code:       "ErrSessionRevoked",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "refresh session already revoked",
		TypeURI:    "urn:problem:auth/err-session-revoked",
	}

	ErrResendTooSoon = &DomainError{
		Code:       "ErrResendTooSoon",
		HTTPStatus: http.StatusTooManyRequests,
		Title:      "Too Many Requests",
		Message:    "please wait before requesting another email",
		TypeURI:    "urn:problem:auth/err-resend-too-soon",
	}

	// OAuth
	ErrUnsupportedOAuthProvider = &DomainError{
		Code:       "ErrUnsupportedOAuthProvider",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "unsupported oauth provider",
		TypeURI:    "urn:problem:auth/err-unsupported-oauth-provider",
	}

	ErrOAuthStateInvalid = &DomainError{
		Code:       "ErrOAuthStateInvalid",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid or expired oauth state",
		TypeURI:    "urn:problem:auth/err-oauth-state-invalid",
	}

	ErrOAuthExchangeFailed = &DomainError{
		Code:       "ErrOAuthExchangeFailed",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "oauth authentication failed",
		TypeURI:    "urn:problem:auth/err-oauth-exchange-failed",
	}

	ErrOAuthEmailMissing = &DomainError{
		Code:       "ErrOAuthEmailMissing",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "email not provided by oauth provider",
		TypeURI:    "urn:problem:auth/err-oauth-email-missing",
	}

	// ErrOAuthEmailUnverified blocks linking a provider identity to an
	// existing local account when the provider has not verified the email it
	// asserts. Without this gate, anyone who can register an unverified
	// address at the provider could take over the matching local account.
	ErrOAuthEmailUnverified = &DomainError{
		Code:       "ErrOAuthEmailUnverified",
		HTTPStatus: http.StatusForbidden,
		Title:      "Forbidden",
		Message:    "email not verified by oauth provider",
		TypeURI:    "urn:problem:auth/err-oauth-email-unverified",
	}

	// Generic internal
	ErrInternal = &DomainError{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		TypeURI:    "urn:problem:auth/err-internal",
	}
)
