// Package domain contains the core business entities for Hemolink.
package domain

import (
	"time"
)

// UrgencyLevel is the priority classification of an emergency request.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "critical"
	UrgencyUrgent   UrgencyLevel = "urgent"
	UrgencyStandard UrgencyLevel = "standard"
)

// IsValid reports whether the urgency level is known.
func (u UrgencyLevel) IsValid() bool {
	switch u {
	case UrgencyCritical, UrgencyUrgent, UrgencyStandard:
		return true
	}
	return false
}

// RequestStatus represents the lifecycle state of an emergency request.
type RequestStatus string

const (
	// RequestStatusPending indicates a newly created request with no donors
	// matched yet.
	RequestStatusPending RequestStatus = "Pending"

	// RequestStatusMatching indicates at least one donor has been matched.
	RequestStatusMatching RequestStatus = "Matching"

	// RequestStatusFulfilled indicates the request was satisfied. Terminal.
	RequestStatusFulfilled RequestStatus = "Fulfilled"

	// RequestStatusExpired indicates the request lapsed past its deadline.
	// Terminal.
	RequestStatusExpired RequestStatus = "Expired"

	// RequestStatusCancelled indicates the requester withdrew it. Terminal.
	RequestStatusCancelled RequestStatus = "Cancelled"
)

// IsValid reports whether the status is a known request status.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusMatching, RequestStatusFulfilled,
		RequestStatusExpired, RequestStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the request lifecycle.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusFulfilled, RequestStatusExpired, RequestStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
// Pending -> Matching | Fulfilled | Expired | Cancelled
// Matching -> Fulfilled | Expired | Cancelled
// Terminal states permit nothing.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case RequestStatusPending:
		return next == RequestStatusMatching || next.IsTerminal()
	case RequestStatusMatching:
		return next.IsTerminal()
	}
	return false
}

// Location is a geographic point with an optional human-readable address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// EmergencyRequest is a plea for blood of a given type at a hospital.
// Requests may be filed anonymously, in which case RequesterID is nil and
// the contact fields are the only way to reach the requester.
type EmergencyRequest struct {
	// ID is the unique identifier for the request (minted by the repository).
	ID int64 `json:"id"`

	// RequesterID references the filing user. Nil for anonymous requests.
	RequesterID *int64 `json:"requesterId,omitempty"`

	// ContactName is the name of the person to reach about this request.
	ContactName string `json:"contactName"`

	// ContactPhone is the phone number to reach the requester. At least
	// 10 characters.
	ContactPhone string `json:"contactPhone"`

	// ContactEmail is the optional email to reach the requester.
	ContactEmail string `json:"contactEmail,omitempty"`

	// BloodType is the blood group needed.
	BloodType BloodType `json:"bloodType"`

	// UrgencyLevel is the priority classification.
	UrgencyLevel UrgencyLevel `json:"urgencyLevel"`

	// HospitalName is where the blood is needed.
	HospitalName string `json:"hospitalName"`

	// Location is where the blood is needed.
	Location Location `json:"location"`

	// Status is the lifecycle state.
	Status RequestStatus `json:"status"`

	// MatchedDonorIDs is the set of user IDs matched to this request.
	// Order is insertion order; membership is a set (no duplicates).
	MatchedDonorIDs []int64 `json:"matchedDonorIds,omitempty"`

	// ExpiresAt is the deadline after which the request lapses.
	// Invariant: ExpiresAt > CreatedAt.
	ExpiresAt time.Time `json:"expiresAt"`

	// CreatedAt is the timestamp when the request was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the request was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewEmergencyRequest creates a new request in the Pending state.
func NewEmergencyRequest(bloodType BloodType, urgency UrgencyLevel, expiresAt time.Time) *EmergencyRequest {
	now := time.Now().UTC()
	return &EmergencyRequest{
		BloodType:    bloodType,
		UrgencyLevel: urgency,
		Status:       RequestStatusPending,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsExpiredAt reports whether the request deadline has passed.
func (r *EmergencyRequest) IsExpiredAt(at time.Time) bool {
	return at.After(r.ExpiresAt)
}

// HasMatchedDonor reports whether the donor is already in the matched set.
func (r *EmergencyRequest) HasMatchedDonor(donorID int64) bool {
	for _, id := range r.MatchedDonorIDs {
		if id == donorID {
			return true
		}
	}
	return false
}
