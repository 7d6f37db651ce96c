// Package service provides business logic services for Hemolink.
package service

import "errors"

// Common service errors.
var (
	// User errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password: must be at least 8 characters")

	// Donor errors
	ErrNotADonor = errors.New("user does not hold a donor profile")

	// Deletion workflow errors
	ErrSelfDeletionReview = errors.New("a deletion request cannot be reviewed by its requester")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
