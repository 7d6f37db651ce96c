// Package domain contains the core business entities for Hemolink.
package domain

import (
	"time"
)

// DonorStatus represents a donor's current availability.
type DonorStatus string

const (
	// DonorStatusAvailable indicates the donor can be matched to requests.
	DonorStatusAvailable DonorStatus = "Available"

	// DonorStatusUnavailable indicates the donor has opted out for now.
	DonorStatusUnavailable DonorStatus = "Unavailable"

	// DonorStatusPending indicates the donor registration is awaiting review.
	DonorStatusPending DonorStatus = "Pending"
)

// IsValid reports whether the status is a known donor status.
func (s DonorStatus) IsValid() bool {
	switch s {
	case DonorStatusAvailable, DonorStatusUnavailable, DonorStatusPending:
		return true
	}
	return false
}

// DonorBadge is a recognition tier derived from lifetime donation count.
// The thresholds are configuration, not business logic baked into the domain.
type DonorBadge string

const (
	BadgeBronze DonorBadge = "Bronze"
	BadgeSilver DonorBadge = "Silver"
	BadgeGold   DonorBadge = "Gold"
)

// BadgeThresholds holds the configured donation counts at which a donor is
// promoted to the Silver and Gold tiers. Everyone below Silver is Bronze.
type BadgeThresholds struct {
	Silver int
	Gold   int
}

// BadgeFor returns the badge tier for the given lifetime donation count.
func (t BadgeThresholds) BadgeFor(totalDonations int) DonorBadge {
	switch {
	case t.Gold > 0 && totalDonations >= t.Gold:
		return BadgeGold
	case t.Silver > 0 && totalDonations >= t.Silver:
		return BadgeSilver
	default:
		return BadgeBronze
	}
}

// VerificationStatus represents the review state of a donor profile or an
// uploaded document. The two are tracked independently: a verified document
// does not automatically promote the profile (the consuming policy decides).
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "Unverified"
	VerificationPending    VerificationStatus = "Pending"
	VerificationVerified   VerificationStatus = "Verified"
)

// IsValid reports whether the status is a known verification status.
func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationUnverified, VerificationPending, VerificationVerified:
		return true
	}
	return false
}

// DonorProfile is the 1:1 extension of a User with the donor role.
type DonorProfile struct {
	// ID is the unique identifier for the profile (minted by the repository).
	ID int64 `json:"id"`

	// UserID is the ID of the user this profile extends.
	UserID int64 `json:"userId"`

	// Status is the donor's availability.
	Status DonorStatus `json:"status"`

	// Badge is the recognition tier derived from TotalDonations.
	Badge DonorBadge `json:"badge"`

	// TotalDonations is the lifetime count of recorded donations.
	TotalDonations int `json:"totalDonations"`

	// LitersDonated is the lifetime donated volume in liters.
	LitersDonated float64 `json:"litersDonated"`

	// LivesSaved is an estimate derived from TotalDonations.
	LivesSaved int `json:"livesSaved"`

	// VerificationStatus is the review state of the profile itself.
	VerificationStatus VerificationStatus `json:"verificationStatus"`

	// LastDonationDate is when the donor last donated, if ever.
	LastDonationDate *time.Time `json:"lastDonationDate,omitempty"`

	// NextEligibleDate is the earliest date the donor may donate again.
	// Invariant: NextEligibleDate >= LastDonationDate + the configured
	// minimum inter-donation interval.
	NextEligibleDate *time.Time `json:"nextEligibleDate,omitempty"`

	// CreatedAt is the timestamp when the profile was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the profile was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDonorProfile creates a new DonorProfile with default values.
func NewDonorProfile(userID int64) *DonorProfile {
	now := time.Now().UTC()
	return &DonorProfile{
		UserID:             userID,
		Status:             DonorStatusPending,
		Badge:              BadgeBronze,
		VerificationStatus: VerificationUnverified,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// IsEligible reports whether the donor may donate at the given time.
// A donor with no recorded donation is always eligible.
func (p *DonorProfile) IsEligible(at time.Time) bool {
	if p.NextEligibleDate == nil {
		return true
	}
	return !at.Before(*p.NextEligibleDate)
}
