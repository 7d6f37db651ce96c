// Package domain contains the core business entities for Hemolink.
package domain

import (
	"time"
)

// BloodBankStatus represents whether a blood bank is operating.
type BloodBankStatus string

const (
	BloodBankActive   BloodBankStatus = "active"
	BloodBankInactive BloodBankStatus = "inactive"
)

// BloodBank is an organization holding per-blood-type inventory.
type BloodBank struct {
	// ID is the unique identifier for the bank (minted by the repository).
	ID int64 `json:"id"`

	// Name is the display name of the bank.
	Name string `json:"name"`

	// Address is the street address.
	Address string `json:"address,omitempty"`

	// Location is the geographic position of the bank.
	Location Location `json:"location"`

	// InventoryLevels maps each blood type to units on hand.
	// Absent keys mean zero units. Levels never go negative.
	InventoryLevels map[BloodType]int `json:"inventoryLevels"`

	// Status is whether the bank is operating.
	Status BloodBankStatus `json:"status"`

	// CreatedBy references the user who registered this bank, if any.
	CreatedBy *int64 `json:"createdBy,omitempty"`

	// CreatedAt is the timestamp when the bank was registered.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the bank was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewBloodBank creates a new active BloodBank with an empty inventory.
func NewBloodBank(name string) *BloodBank {
	now := time.Now().UTC()
	return &BloodBank{
		Name:            name,
		InventoryLevels: make(map[BloodType]int),
		Status:          BloodBankActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// UnitsOf returns the units on hand for a blood type.
func (b *BloodBank) UnitsOf(bt BloodType) int {
	return b.InventoryLevels[bt]
}
