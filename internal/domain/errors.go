// Package domain contains the core business entities for Hemolink.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same username/email exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUserSuspended indicates the user account is suspended or banned.
	ErrUserSuspended = errors.New("user account is suspended")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRole indicates the role value is not one of the known roles.
	ErrInvalidRole = errors.New("invalid role")

	// ===========================================
	// Donor Errors
	// ===========================================

	// ErrDonorProfileNotFound indicates the requested donor profile does not exist.
	ErrDonorProfileNotFound = errors.New("donor profile not found")

	// ErrDonorProfileExists indicates the user already has a donor profile.
	ErrDonorProfileExists = errors.New("donor profile already exists")

	// ErrDonorNotEligible indicates the donor is inside the minimum
	// inter-donation interval.
	ErrDonorNotEligible = errors.New("donor is not yet eligible to donate")

	// ===========================================
	// Emergency Request Errors
	// ===========================================

	// ErrRequestNotFound indicates the requested emergency request does not exist.
	ErrRequestNotFound = errors.New("emergency request not found")

	// ErrInvalidTransition indicates a forbidden request lifecycle transition.
	ErrInvalidTransition = errors.New("invalid request status transition")

	// ErrRequestTerminal indicates the request is in a terminal state.
	ErrRequestTerminal = errors.New("request is in a terminal state")

	// ErrRequestExpired indicates the request deadline has passed.
	ErrRequestExpired = errors.New("request has expired")

	// ===========================================
	// Donation / Document Errors
	// ===========================================

	// ErrDonationNotFound indicates the requested donation record does not exist.
	ErrDonationNotFound = errors.New("donation record not found")

	// ErrDocumentNotFound indicates the requested document does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ===========================================
	// Deletion Request Errors
	// ===========================================

	// ErrDeletionRequestNotFound indicates the deletion request does not exist.
	ErrDeletionRequestNotFound = errors.New("deletion request not found")

	// ErrDeletionAlreadyResolved indicates the deletion request was already
	// approved or rejected.
	ErrDeletionAlreadyResolved = errors.New("deletion request already resolved")

	// ===========================================
	// Blood Bank Errors
	// ===========================================

	// ErrBloodBankNotFound indicates the requested blood bank does not exist.
	ErrBloodBankNotFound = errors.New("blood bank not found")

	// ErrInsufficientInventory indicates a withdrawal would drive a blood
	// bank's inventory below zero.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ===========================================
	// Notification Errors
	// ===========================================

	// ErrNotificationNotFound indicates the notification does not exist.
	ErrNotificationNotFound = errors.New("notification not found")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., username, request id).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// WrapError wraps an error with domain context if it's not already a DomainError.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	return &DomainError{
		Err:     err,
		Message: message,
	}
}
