// Package domain contains the core business entities for Hemolink.
package domain

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"
)

// ValidationError reports every violated constraint of an input, keyed by
// field name. Validation never stops at the first violation: callers get the
// complete picture in one pass.
type ValidationError struct {
	// Fields maps field names to human-readable violation messages.
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a violation for a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = message
}

// HasViolations reports whether any field was violated.
func (e *ValidationError) HasViolations() bool {
	return len(e.Fields) > 0
}

// Has reports whether the named field was violated.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Error implements the error interface, listing fields in stable order.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// errOrNil returns the ValidationError if it has violations, nil otherwise.
func (e *ValidationError) errOrNil() error {
	if e.HasViolations() {
		return e
	}
	return nil
}

// minContactPhoneLen is the minimum accepted contact phone length.
const minContactPhoneLen = 10

// ValidateEmergencyRequest checks an emergency request before it crosses the
// storage boundary and applies defaults. Status defaults to Pending when
// unset. All violations are reported, not just the first.
func ValidateEmergencyRequest(r *EmergencyRequest) error {
	v := NewValidationError()

	if !r.BloodType.IsValid() {
		v.Add("bloodType", fmt.Sprintf("must be one of the eight blood types, got %q", r.BloodType))
	}
	if len(r.ContactPhone) < minContactPhoneLen {
		v.Add("contactPhone", fmt.Sprintf("must be at least %d characters", minContactPhoneLen))
	}
	if !r.UrgencyLevel.IsValid() {
		v.Add("urgencyLevel", fmt.Sprintf("must be critical, urgent, or standard, got %q", r.UrgencyLevel))
	}
	if r.Location.Latitude < -90 || r.Location.Latitude > 90 {
		v.Add("location.latitude", "must be between -90 and 90")
	}
	if r.Location.Longitude < -180 || r.Location.Longitude > 180 {
		v.Add("location.longitude", "must be between -180 and 180")
	}
	if r.ExpiresAt.IsZero() {
		v.Add("expiresAt", "is required")
	} else if !r.CreatedAt.IsZero() && !r.ExpiresAt.After(r.CreatedAt) {
		v.Add("expiresAt", "must be after createdAt")
	}

	if r.Status == "" {
		r.Status = RequestStatusPending
	} else if !r.Status.IsValid() {
		v.Add("status", fmt.Sprintf("unknown status %q", r.Status))
	}

	return v.errOrNil()
}

// ValidateDocument checks an uploaded document and applies defaults.
// VerificationStatus defaults to Pending when unset.
func ValidateDocument(d *Document) error {
	v := NewValidationError()

	if d.UserID <= 0 {
		v.Add("userId", "is required")
	}
	if !d.Type.IsValid() {
		v.Add("type", fmt.Sprintf("must be ID, MedicalReport, DonorCard, AddressProof, or Other, got %q", d.Type))
	}

	if d.VerificationStatus == "" {
		d.VerificationStatus = VerificationPending
	} else if !d.VerificationStatus.IsValid() {
		v.Add("verificationStatus", fmt.Sprintf("unknown status %q", d.VerificationStatus))
	}

	return v.errOrNil()
}

// ValidateUser checks a user record before it crosses the storage boundary.
func ValidateUser(u *User) error {
	v := NewValidationError()

	if len(u.Username) < 3 || len(u.Username) > 255 {
		v.Add("username", "must be 3-255 characters")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		v.Add("email", "must be a valid email address")
	}
	if u.BloodType != "" && !u.BloodType.IsValid() {
		v.Add("bloodType", fmt.Sprintf("must be one of the eight blood types, got %q", u.BloodType))
	}
	if u.Role == "" {
		u.Role = RoleUser
	} else if !u.Role.IsValid() {
		v.Add("role", fmt.Sprintf("unknown role %q", u.Role))
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	if u.Status == UserStatusSuspended && u.SuspendedUntil == nil {
		v.Add("suspendedUntil", "is required when status is suspended")
	}

	return v.errOrNil()
}

// ValidateBloodBank checks a blood bank record.
func ValidateBloodBank(b *BloodBank) error {
	v := NewValidationError()

	if strings.TrimSpace(b.Name) == "" {
		v.Add("name", "is required")
	}
	if b.Location.Latitude < -90 || b.Location.Latitude > 90 {
		v.Add("location.latitude", "must be between -90 and 90")
	}
	if b.Location.Longitude < -180 || b.Location.Longitude > 180 {
		v.Add("location.longitude", "must be between -180 and 180")
	}
	for bt, units := range b.InventoryLevels {
		if !bt.IsValid() {
			v.Add("inventoryLevels", fmt.Sprintf("unknown blood type %q", bt))
		}
		if units < 0 {
			v.Add("inventoryLevels", fmt.Sprintf("units for %s must not be negative", bt))
		}
	}
	if b.Status == "" {
		b.Status = BloodBankActive
	}

	return v.errOrNil()
}

// ValidateDonationRecord checks a donation record before insertion.
func ValidateDonationRecord(d *DonationRecord) error {
	v := NewValidationError()

	if d.DonorID <= 0 {
		v.Add("donorId", "is required")
	}
	if !d.BloodType.IsValid() {
		v.Add("bloodType", fmt.Sprintf("must be one of the eight blood types, got %q", d.BloodType))
	}
	if d.VolumeML <= 0 {
		v.Add("volumeMl", "must be positive")
	}
	if d.DonationDate.IsZero() {
		d.DonationDate = time.Now().UTC()
	}

	return v.errOrNil()
}
