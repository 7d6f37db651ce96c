// Package domain contains the core business entities for Hemolink.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the blood-donation coordination system.
package domain

import (
	"time"
)

// BloodType is one of the eight ABO/Rh blood groups.
// The string values are part of the stored wire format and must not change.
type BloodType string

const (
	BloodAPositive  BloodType = "A+"
	BloodANegative  BloodType = "A-"
	BloodBPositive  BloodType = "B+"
	BloodBNegative  BloodType = "B-"
	BloodABPositive BloodType = "AB+"
	BloodABNegative BloodType = "AB-"
	BloodOPositive  BloodType = "O+"
	BloodONegative  BloodType = "O-"
)

// BloodTypes lists all valid blood types in a stable order.
var BloodTypes = []BloodType{
	BloodAPositive, BloodANegative,
	BloodBPositive, BloodBNegative,
	BloodABPositive, BloodABNegative,
	BloodOPositive, BloodONegative,
}

// IsValid reports whether the blood type is one of the eight valid groups.
func (b BloodType) IsValid() bool {
	switch b {
	case BloodAPositive, BloodANegative, BloodBPositive, BloodBNegative,
		BloodABPositive, BloodABNegative, BloodOPositive, BloodONegative:
		return true
	}
	return false
}

// Role is a user's role in the system.
// The ordering user < donor < volunteer < moderator < admin < superadmin is
// documentation only: authorization checks are exact set-membership on
// admin/superadmin, never ordered comparison.
type Role string

const (
	RoleUser       Role = "user"
	RoleDonor      Role = "donor"
	RoleVolunteer  Role = "volunteer"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleDonor, RoleVolunteer, RoleModerator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdminRole reports whether the role grants administrative privileges.
func (r Role) IsAdminRole() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// UserStatus represents the account standing of a user.
type UserStatus string

const (
	// UserStatusActive indicates a user in good standing.
	UserStatusActive UserStatus = "active"

	// UserStatusSuspended indicates a temporarily suspended user.
	// SuspendedUntil and SuspensionReason are only meaningful in this state.
	UserStatusSuspended UserStatus = "suspended"

	// UserStatusBanned indicates a permanently banned user.
	UserStatusBanned UserStatus = "banned"
)

// User represents a registered user in the system.
// Users may additionally hold a DonorProfile when their role is donor.
type User struct {
	// ID is the unique identifier for the user (minted by the repository).
	ID int64 `json:"id"`

	// Username is the unique username for login and display.
	// Constraints: 3-255 characters.
	Username string `json:"username"`

	// Email is the unique email address for the user.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password. It is empty
	// for accounts that authenticate only through the external identity
	// provider. This must never be exposed in API responses.
	PasswordHash string `json:"-"`

	// BloodType is the user's blood group, if known.
	BloodType BloodType `json:"bloodType,omitempty"`

	// Role is the user's role.
	Role Role `json:"role"`

	// FirebaseUID is the external identity provider's UID for this user.
	// It is an alternate lookup key; the numeric ID remains canonical.
	FirebaseUID string `json:"firebaseUid,omitempty"`

	// IsAdmin is a convenience flag redundant with Role. The service layer
	// keeps the invariant IsAdmin == Role.IsAdminRole() on every write;
	// stored records that predate that normalization may disagree.
	IsAdmin bool `json:"isAdmin"`

	// Status is the account standing.
	Status UserStatus `json:"status"`

	// SuspendedUntil is when a suspension lapses. Only meaningful when
	// Status is suspended.
	SuspendedUntil *time.Time `json:"suspendedUntil,omitempty"`

	// SuspensionReason records why the user was suspended.
	SuspensionReason string `json:"suspensionReason,omitempty"`

	// CreatedBy references the user who provisioned this account, if any.
	CreatedBy *int64 `json:"createdBy,omitempty"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser creates a new User with default values.
func NewUser(username, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		IsAdmin:      false,
		Status:       UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate returns true if the user is allowed to authenticate.
// A suspended user regains access once the suspension lapses.
func (u *User) CanAuthenticate() bool {
	switch u.Status {
	case UserStatusActive:
		return true
	case UserStatusSuspended:
		return u.SuspendedUntil != nil && time.Now().UTC().After(*u.SuspendedUntil)
	default:
		return false
	}
}

// NormalizeAdminFlag forces the IsAdmin convenience flag to agree with Role.
func (u *User) NormalizeAdminFlag() {
	u.IsAdmin = u.Role.IsAdminRole()
}

// UserSummary is a redacted view of a User safe to embed in API responses.
// It never carries the password hash.
type UserSummary struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	BloodType BloodType `json:"bloodType,omitempty"`
}

// Summary returns the redacted view of the user.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		BloodType: u.BloodType,
	}
}
