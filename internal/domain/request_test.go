package domain

import (
	"testing"
	"time"
)

func TestRequestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from RequestStatus
		to   RequestStatus
		want bool
	}{
		{RequestStatusPending, RequestStatusMatching, true},
		{RequestStatusPending, RequestStatusFulfilled, true},
		{RequestStatusPending, RequestStatusExpired, true},
		{RequestStatusPending, RequestStatusCancelled, true},
		{RequestStatusMatching, RequestStatusFulfilled, true},
		{RequestStatusMatching, RequestStatusExpired, true},
		{RequestStatusMatching, RequestStatusCancelled, true},
		{RequestStatusMatching, RequestStatusPending, false},
		{RequestStatusFulfilled, RequestStatusCancelled, false},
		{RequestStatusExpired, RequestStatusMatching, false},
		{RequestStatusCancelled, RequestStatusPending, false},
		{RequestStatusPending, RequestStatusPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRequestStatusIsTerminal(t *testing.T) {
	terminal := []RequestStatus{RequestStatusFulfilled, RequestStatusExpired, RequestStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []RequestStatus{RequestStatusPending, RequestStatusMatching} {
		if s.IsTerminal() {
			t.Errorf("expected %s to not be terminal", s)
		}
	}
}

func TestEmergencyRequestHasMatchedDonor(t *testing.T) {
	req := NewEmergencyRequest(BloodOPositive, UrgencyUrgent, time.Now().Add(time.Hour))
	req.MatchedDonorIDs = []int64{3, 7}

	if !req.HasMatchedDonor(7) {
		t.Error("expected donor 7 to be matched")
	}
	if req.HasMatchedDonor(9) {
		t.Error("expected donor 9 to not be matched")
	}
}

func TestBadgeThresholds(t *testing.T) {
	thresholds := BadgeThresholds{Silver: 5, Gold: 15}

	tests := []struct {
		donations int
		want      DonorBadge
	}{
		{0, BadgeBronze},
		{4, BadgeBronze},
		{5, BadgeSilver},
		{14, BadgeSilver},
		{15, BadgeGold},
		{100, BadgeGold},
	}

	for _, tt := range tests {
		if got := thresholds.BadgeFor(tt.donations); got != tt.want {
			t.Errorf("BadgeFor(%d) = %s, want %s", tt.donations, got, tt.want)
		}
	}
}

func TestDonorProfileIsEligible(t *testing.T) {
	now := time.Now().UTC()

	profile := NewDonorProfile(1)
	if !profile.IsEligible(now) {
		t.Error("expected donor with no donations to be eligible")
	}

	next := now.Add(24 * time.Hour)
	profile.NextEligibleDate = &next
	if profile.IsEligible(now) {
		t.Error("expected donor inside the interval to be ineligible")
	}
	if !profile.IsEligible(next) {
		t.Error("expected donor to be eligible exactly at the next eligible date")
	}
}

func TestUserCanAuthenticate(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	tests := []struct {
		name   string
		status UserStatus
		until  *time.Time
		want   bool
	}{
		{"active", UserStatusActive, nil, true},
		{"banned", UserStatusBanned, nil, false},
		{"suspended with future deadline", UserStatusSuspended, &future, false},
		{"suspension lapsed", UserStatusSuspended, &past, true},
		{"suspended without deadline", UserStatusSuspended, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := NewUser("jordan", "jordan@example.com", "")
			user.Status = tt.status
			user.SuspendedUntil = tt.until

			if got := user.CanAuthenticate(); got != tt.want {
				t.Errorf("CanAuthenticate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeAdminFlag(t *testing.T) {
	user := NewUser("jordan", "jordan@example.com", "")
	user.Role = RoleAdmin
	user.NormalizeAdminFlag()
	if !user.IsAdmin {
		t.Error("expected IsAdmin true for admin role")
	}

	user.Role = RoleDonor
	user.IsAdmin = true
	user.NormalizeAdminFlag()
	if user.IsAdmin {
		t.Error("expected IsAdmin false for donor role")
	}
}
