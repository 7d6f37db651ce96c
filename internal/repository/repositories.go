package repository

import (
	"context"
)

// Repositories holds all repository instances.
type Repositories struct {
	User            UserRepository
	DonorProfile    DonorProfileRepository
	Request         EmergencyRequestRepository
	Donation        DonationRepository
	Document        DocumentRepository
	DeletionRequest DeletionRequestRepository
	BloodBank       BloodBankRepository
	Notification    NotificationRepository
}

// DatabaseHealth is an interface for database health checks.
// The in-memory backend has no connection to check and returns a no-op
// implementation.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// NoopHealth is the DatabaseHealth for backends with nothing to check.
type NoopHealth struct{}

// Ping always succeeds.
func (NoopHealth) Ping(ctx context.Context) error { return ctx.Err() }

// Health always succeeds.
func (NoopHealth) Health(ctx context.Context) error { return ctx.Err() }

// Close does nothing.
func (NoopHealth) Close() error { return nil }
