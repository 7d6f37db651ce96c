package domain

import (
	"strings"
	"testing"
	"time"
)

func validRequest() *EmergencyRequest {
	req := NewEmergencyRequest(BloodOPositive, UrgencyCritical, time.Now().UTC().Add(24*time.Hour))
	req.ContactName = "Jordan"
	req.ContactPhone = "0123456789"
	req.HospitalName = "City General"
	return req
}

func TestValidateEmergencyRequest(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*EmergencyRequest)
		wantFields []string
	}{
		{
			name:   "valid",
			mutate: func(r *EmergencyRequest) {},
		},
		{
			name:       "invalid blood type",
			mutate:     func(r *EmergencyRequest) { r.BloodType = "X+" },
			wantFields: []string{"bloodType"},
		},
		{
			name:       "short phone",
			mutate:     func(r *EmergencyRequest) { r.ContactPhone = "12345" },
			wantFields: []string{"contactPhone"},
		},
		{
			name:       "invalid urgency",
			mutate:     func(r *EmergencyRequest) { r.UrgencyLevel = "immediately" },
			wantFields: []string{"urgencyLevel"},
		},
		{
			name:       "latitude out of range",
			mutate:     func(r *EmergencyRequest) { r.Location.Latitude = 91 },
			wantFields: []string{"location.latitude"},
		},
		{
			name:       "longitude out of range",
			mutate:     func(r *EmergencyRequest) { r.Location.Longitude = -181 },
			wantFields: []string{"location.longitude"},
		},
		{
			name:       "missing expiry",
			mutate:     func(r *EmergencyRequest) { r.ExpiresAt = time.Time{} },
			wantFields: []string{"expiresAt"},
		},
		{
			name:       "expiry before creation",
			mutate:     func(r *EmergencyRequest) { r.ExpiresAt = r.CreatedAt.Add(-time.Hour) },
			wantFields: []string{"expiresAt"},
		},
		{
			name: "all violations reported at once",
			mutate: func(r *EmergencyRequest) {
				r.BloodType = "X+"
				r.ContactPhone = "123"
				r.UrgencyLevel = "now"
			},
			wantFields: []string{"bloodType", "contactPhone", "urgencyLevel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := ValidateEmergencyRequest(req)

			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Errorf("expected %d violations, got %d: %v", len(tt.wantFields), len(verr.Fields), verr.Fields)
			}
			for _, field := range tt.wantFields {
				if !verr.Has(field) {
					t.Errorf("expected violation for %q, got %v", field, verr.Fields)
				}
			}
		})
	}
}

func TestValidateEmergencyRequestDefaultsStatus(t *testing.T) {
	req := validRequest()
	req.Status = ""

	if err := ValidateEmergencyRequest(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Status != RequestStatusPending {
		t.Errorf("expected status to default to Pending, got %s", req.Status)
	}
}

func TestValidateUser(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*User)
		wantField string
	}{
		{
			name:   "valid",
			mutate: func(u *User) {},
		},
		{
			name:      "username too short",
			mutate:    func(u *User) { u.Username = "ab" },
			wantField: "username",
		},
		{
			name:      "username too long",
			mutate:    func(u *User) { u.Username = strings.Repeat("a", 256) },
			wantField: "username",
		},
		{
			name:      "bad email",
			mutate:    func(u *User) { u.Email = "not-an-email" },
			wantField: "email",
		},
		{
			name:      "unknown role",
			mutate:    func(u *User) { u.Role = "czar" },
			wantField: "role",
		},
		{
			name:      "unknown blood type",
			mutate:    func(u *User) { u.BloodType = "Z-" },
			wantField: "bloodType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := NewUser("jordan", "jordan@example.com", "")
			user.BloodType = BloodAPositive
			tt.mutate(user)

			err := ValidateUser(user)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if !verr.Has(tt.wantField) {
				t.Errorf("expected violation for %q, got %v", tt.wantField, verr.Fields)
			}
		})
	}
}

func TestValidationErrorMessageOrder(t *testing.T) {
	verr := NewValidationError()
	verr.Add("zeta", "bad")
	verr.Add("alpha", "also bad")

	msg := verr.Error()
	if strings.Index(msg, "alpha") > strings.Index(msg, "zeta") {
		t.Errorf("expected fields listed alphabetically, got %q", msg)
	}
}
