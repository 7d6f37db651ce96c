// Package domain contains the core business entities for Hemolink.
package domain

import (
	"time"
)

// DeletionRequestStatus represents the workflow state of a deletion request.
type DeletionRequestStatus string

const (
	DeletionStatusPending  DeletionRequestStatus = "pending"
	DeletionStatusApproved DeletionRequestStatus = "approved"
	DeletionStatusRejected DeletionRequestStatus = "rejected"
)

// IsValid reports whether the status is a known deletion-request status.
func (s DeletionRequestStatus) IsValid() bool {
	switch s {
	case DeletionStatusPending, DeletionStatusApproved, DeletionStatusRejected:
		return true
	}
	return false
}

// DeletionRequest records a request to delete a user account.
// Approval cascades to the target's DonorProfile and Documents but leaves
// DonationRecords untouched: donation history is a medical record.
type DeletionRequest struct {
	// ID is the unique identifier for the request (minted by the repository).
	ID int64 `json:"id"`

	// RequesterID is the user who filed the request.
	RequesterID int64 `json:"requesterId"`

	// TargetUserID is the account to delete.
	TargetUserID int64 `json:"targetUserId"`

	// Reason is the requester's stated reason.
	Reason string `json:"reason,omitempty"`

	// Status is the workflow state.
	Status DeletionRequestStatus `json:"status"`

	// ReviewedBy is the admin who approved or rejected the request.
	ReviewedBy *int64 `json:"reviewedBy,omitempty"`

	// CreatedAt is the timestamp when the request was filed.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the request was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDeletionRequest creates a new pending DeletionRequest.
func NewDeletionRequest(requesterID, targetUserID int64, reason string) *DeletionRequest {
	now := time.Now().UTC()
	return &DeletionRequest{
		RequesterID:  requesterID,
		TargetUserID: targetUserID,
		Reason:       reason,
		Status:       DeletionStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// DeletionRequestDetail is a DeletionRequest with optional joined user
// summaries. The embedded users are always redacted views; the password
// hash never crosses this boundary.
type DeletionRequestDetail struct {
	DeletionRequest
	Requester *UserSummary `json:"requester,omitempty"`
	Target    *UserSummary `json:"target,omitempty"`
}
