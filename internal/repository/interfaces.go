// Package repository defines data access interfaces for Hemolink.
// These interfaces abstract storage operations, allowing for different
// implementations (in-memory, SQLite, PostgreSQL) while keeping the service
// layer clean. The in-memory implementation is the primary store and doubles
// as the mock for a real persistence backend.
package repository

import (
	"context"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserListOptions filters and paginates user listings.
// Role, ExcludeRoles, and OnlyRoles compose: all applied filters narrow the
// result further. Pagination is applied after filtering.
type UserListOptions struct {
	// Role filters to users with exactly this role. Empty means no filter.
	Role domain.Role

	// ExcludeRoles drops users whose role is in this set.
	ExcludeRoles []domain.Role

	// OnlyRoles keeps only users whose role is in this set.
	OnlyRoles []domain.Role

	// Page is the 1-indexed page number. Pages past the end of the filtered
	// list return an empty result, never an error. Zero means no pagination.
	Page int

	// Limit is the number of items per page.
	Limit int
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user, minting its ID and stamping timestamps.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByFirebaseUID retrieves a user by the external identity UID.
	GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update merges the given record over the stored one and restamps
	// UpdatedAt. The ID field of the argument selects the record; a
	// mismatched ID inside the patch can never change the stored ID.
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user by ID, cascading to the user's DonorProfile
	// and all Documents owned by the user. DonationRecords are kept.
	Delete(ctx context.Context, id int64) error

	// List returns users matching the options, filtered then paginated.
	List(ctx context.Context, opts UserListOptions) (*ListResult[domain.User], error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// =============================================================================
// Donor Profile Repository
// =============================================================================

// DonorListOptions filters and paginates donor profile listings.
type DonorListOptions struct {
	// Status filters to profiles with this availability. Empty means all.
	Status domain.DonorStatus

	// VerificationStatus filters by review state. Empty means all.
	VerificationStatus domain.VerificationStatus

	// Page is the 1-indexed page number. Zero means no pagination.
	Page int

	// Limit is the number of items per page.
	Limit int
}

// DonorProfileRepository defines the interface for donor profile data access.
type DonorProfileRepository interface {
	// Create creates a new donor profile.
	Create(ctx context.Context, profile *domain.DonorProfile) error

	// GetByID retrieves a profile by ID.
	GetByID(ctx context.Context, id int64) (*domain.DonorProfile, error)

	// GetByUserID retrieves the profile extending the given user.
	GetByUserID(ctx context.Context, userID int64) (*domain.DonorProfile, error)

	// Update merges the given record over the stored one.
	Update(ctx context.Context, profile *domain.DonorProfile) error

	// Delete deletes a profile by ID.
	Delete(ctx context.Context, id int64) error

	// List returns profiles matching the options.
	List(ctx context.Context, opts DonorListOptions) (*ListResult[domain.DonorProfile], error)
}

// =============================================================================
// Emergency Request Repository
// =============================================================================

// RequestListOptions filters and paginates emergency request listings.
type RequestListOptions struct {
	// Status filters to requests in this lifecycle state. Empty means all.
	Status domain.RequestStatus

	// BloodType filters to requests for this blood group. Empty means all.
	BloodType domain.BloodType

	// UrgencyLevel filters by priority. Empty means all.
	UrgencyLevel domain.UrgencyLevel

	// Page is the 1-indexed page number. Zero means no pagination.
	Page int

	// Limit is the number of items per page.
	Limit int
}

// EmergencyRequestRepository defines the interface for request data access.
type EmergencyRequestRepository interface {
	// Create creates a new emergency request.
	Create(ctx context.Context, req *domain.EmergencyRequest) error

	// GetByID retrieves a request by ID.
	GetByID(ctx context.Context, id int64) (*domain.EmergencyRequest, error)

	// Update merges the given record over the stored one.
	Update(ctx context.Context, req *domain.EmergencyRequest) error

	// Delete deletes a request by ID.
	Delete(ctx context.Context, id int64) error

	// List returns requests matching the options.
	List(ctx context.Context, opts RequestListOptions) (*ListResult[domain.EmergencyRequest], error)

	// ListExpired returns non-terminal requests whose deadline is before
	// the given time, up to limit records. Used by the expiry sweeper.
	ListExpired(ctx context.Context, before time.Time, limit int) ([]*domain.EmergencyRequest, error)
}

// =============================================================================
// Donation Record Repository
// =============================================================================

// DonationRepository defines the interface for donation record access.
// Records are immutable: there is deliberately no update or delete.
type DonationRepository interface {
	// Create creates a new donation record.
	Create(ctx context.Context, rec *domain.DonationRecord) error

	// GetByID retrieves a record by ID.
	GetByID(ctx context.Context, id int64) (*domain.DonationRecord, error)

	// ListByDonorID returns all records for a donor, newest first.
	ListByDonorID(ctx context.Context, donorID int64) ([]*domain.DonationRecord, error)

	// CountByDonorID returns the number of records for a donor.
	CountByDonorID(ctx context.Context, donorID int64) (int, error)
}

// =============================================================================
// Document Repository
// =============================================================================

// DocumentRepository defines the interface for document metadata access.
type DocumentRepository interface {
	// Create creates a new document.
	Create(ctx context.Context, doc *domain.Document) error

	// GetByID retrieves a document by ID.
	GetByID(ctx context.Context, id int64) (*domain.Document, error)

	// ListByUserID returns all documents owned by a user.
	ListByUserID(ctx context.Context, userID int64) ([]*domain.Document, error)

	// Update merges the given record over the stored one.
	Update(ctx context.Context, doc *domain.Document) error

	// Delete deletes a document by ID.
	Delete(ctx context.Context, id int64) error

	// DeleteByUserID deletes all documents owned by a user and returns the
	// number deleted.
	DeleteByUserID(ctx context.Context, userID int64) (int, error)
}

// =============================================================================
// Deletion Request Repository
// =============================================================================

// DeletionListOptions filters and paginates deletion request listings.
type DeletionListOptions struct {
	// Status filters by workflow state. Empty means all.
	Status domain.DeletionRequestStatus

	// IncludeRequester joins the requester's redacted summary.
	IncludeRequester bool

	// IncludeTarget joins the target user's redacted summary.
	IncludeTarget bool

	// Page is the 1-indexed page number. Zero means no pagination.
	Page int

	// Limit is the number of items per page.
	Limit int
}

// DeletionRequestRepository defines the interface for deletion workflow access.
type DeletionRequestRepository interface {
	// Create creates a new deletion request.
	Create(ctx context.Context, req *domain.DeletionRequest) error

	// GetByID retrieves a deletion request by ID. Always fails with
	// ErrNotFound when absent; callers of this workflow expect existence.
	GetByID(ctx context.Context, id int64) (*domain.DeletionRequest, error)

	// Update merges the given record over the stored one.
	Update(ctx context.Context, req *domain.DeletionRequest) error

	// List returns deletion requests matching the options. Joined user
	// summaries are always redacted: the password hash never appears.
	List(ctx context.Context, opts DeletionListOptions) (*ListResult[domain.DeletionRequestDetail], error)
}

// =============================================================================
// Blood Bank Repository
// =============================================================================

// BloodBankRepository defines the interface for blood bank data access.
type BloodBankRepository interface {
	// Create creates a new blood bank.
	Create(ctx context.Context, bank *domain.BloodBank) error

	// GetByID retrieves a bank by ID.
	GetByID(ctx context.Context, id int64) (*domain.BloodBank, error)

	// Update merges the given record over the stored one.
	Update(ctx context.Context, bank *domain.BloodBank) error

	// Delete deletes a bank by ID.
	Delete(ctx context.Context, id int64) error

	// List returns all banks, optionally restricted to active ones.
	List(ctx context.Context, activeOnly bool) ([]*domain.BloodBank, error)
}

// =============================================================================
// Notification Repository
// =============================================================================

// NotificationRepository defines the interface for notification access.
type NotificationRepository interface {
	// Create creates a new notification.
	Create(ctx context.Context, n *domain.Notification) error

	// GetByID retrieves a notification by ID.
	GetByID(ctx context.Context, id int64) (*domain.Notification, error)

	// ListByUserID returns a user's notifications, newest first.
	ListByUserID(ctx context.Context, userID int64) ([]*domain.Notification, error)

	// MarkRead marks one notification as read.
	MarkRead(ctx context.Context, id int64) error

	// MarkAllRead marks all of a user's notifications as read and returns
	// the number that changed. Calling it again is a no-op returning zero.
	MarkAllRead(ctx context.Context, userID int64) (int, error)

	// UnreadCount returns the number of unread notifications for a user.
	// It is never negative.
	UnreadCount(ctx context.Context, userID int64) (int, error)

	// Delete deletes a notification by ID.
	Delete(ctx context.Context, id int64) error
}

// =============================================================================
// Common Types
// =============================================================================

// ListResult is a generic paginated list result.
type ListResult[T any] struct {
	// Items is the list of items.
	Items []*T

	// Total is the total number of items after filtering, before pagination.
	Total int64

	// Page is the 1-indexed page this result covers (0 when unpaginated).
	Page int

	// Limit is the page size used (0 when unpaginated).
	Limit int
}

// Paginate applies 1-indexed page/limit slicing to an already-filtered slice.
// A page past the end yields an empty slice, never an error. A zero page or
// limit disables pagination.
func Paginate[T any](items []*T, page, limit int) []*T {
	if page <= 0 || limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []*T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
