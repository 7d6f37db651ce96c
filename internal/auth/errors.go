package auth

import (
	"errors"
	"net/http"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrMissingToken indicates no bearer token was supplied.
	ErrMissingToken = errors.New("missing authorization token")

	// ErrInvalidToken indicates the token failed verification.
	ErrInvalidToken = errors.New("invalid authorization token")

	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("authorization token expired")

	// ErrWrongIssuer indicates the token was issued by an unexpected issuer.
	ErrWrongIssuer = errors.New("token issued by unexpected issuer")

	// ErrAccessDenied indicates the caller lacks permission for the operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrAccountSuspended indicates the user account cannot authenticate.
	ErrAccountSuspended = errors.New("account suspended")
)

// =============================================================================
// Error Response Mapping
// =============================================================================

// AuthError pairs an authentication failure with its HTTP response.
type AuthError struct {
	// Code is a short machine-readable error code.
	Code string

	// Message is a human-readable description.
	Message string

	// HTTPStatus is the status code to return.
	HTTPStatus int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for errors.Is checks.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError maps an authentication error to its HTTP representation.
func NewAuthError(err error) *AuthError {
	switch {
	case errors.Is(err, ErrMissingToken):
		return &AuthError{Code: "unauthenticated", Message: "authorization token required", HTTPStatus: http.StatusUnauthorized, Err: err}
	case errors.Is(err, ErrTokenExpired):
		return &AuthError{Code: "token_expired", Message: "authorization token expired", HTTPStatus: http.StatusUnauthorized, Err: err}
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrWrongIssuer):
		return &AuthError{Code: "unauthenticated", Message: "invalid authorization token", HTTPStatus: http.StatusUnauthorized, Err: err}
	case errors.Is(err, ErrAccountSuspended):
		return &AuthError{Code: "account_suspended", Message: "account suspended", HTTPStatus: http.StatusForbidden, Err: err}
	case errors.Is(err, ErrAccessDenied):
		return &AuthError{Code: "permission_denied", Message: "access denied", HTTPStatus: http.StatusForbidden, Err: err}
	default:
		return &AuthError{Code: "unauthenticated", Message: "authentication failed", HTTPStatus: http.StatusUnauthorized, Err: err}
	}
}
