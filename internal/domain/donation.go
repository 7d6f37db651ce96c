// Package domain contains the core business entities for Hemolink.
package domain

import (
	"time"
)

// DonationRecord is the historical fact of a completed donation.
// Records are immutable once created: there is no update or delete path,
// and they survive deletion of the donor's account.
type DonationRecord struct {
	// ID is the unique identifier for the record (minted by the repository).
	ID int64 `json:"id"`

	// DonorID is the user ID of the donor.
	DonorID int64 `json:"donorId"`

	// RequestID references the emergency request this donation answered,
	// if any. Walk-in donations have no request.
	RequestID *int64 `json:"requestId,omitempty"`

	// BloodType is the blood group donated.
	BloodType BloodType `json:"bloodType"`

	// VolumeML is the donated volume in milliliters.
	VolumeML int `json:"volumeMl"`

	// DonationDate is when the donation took place.
	DonationDate time.Time `json:"donationDate"`

	// Location is where the donation took place.
	Location string `json:"location,omitempty"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"createdAt"`
}
