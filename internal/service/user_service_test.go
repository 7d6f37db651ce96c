package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
)

func TestUserServiceCreate(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateUserInput
		seed    func(*testing.T, *fixture)
		wantErr error
	}{
		{
			name: "success",
			input: CreateUserInput{
				Username:  "jordan",
				Email:     "jordan@example.com",
				Password:  "longenough",
				BloodType: domain.BloodOPositive,
			},
		},
		{
			name: "success without password",
			input: CreateUserInput{
				Username:    "external",
				Email:       "external@example.com",
				FirebaseUID: "uid-ext",
			},
		},
		{
			name: "password too short",
			input: CreateUserInput{
				Username: "jordan",
				Email:    "jordan@example.com",
				Password: "short",
			},
			wantErr: ErrInvalidPassword,
		},
		{
			name: "duplicate username",
			input: CreateUserInput{
				Username: "taken",
				Email:    "fresh@example.com",
				Password: "longenough",
			},
			seed: func(t *testing.T, f *fixture) {
				f.createUser(t, "taken", domain.RoleUser)
			},
			wantErr: domain.ErrUserAlreadyExists,
		},
		{
			name: "duplicate email",
			input: CreateUserInput{
				Username: "fresh",
				Email:    "taken@example.com",
				Password: "longenough",
			},
			seed: func(t *testing.T, f *fixture) {
				f.createUser(t, "taken", domain.RoleUser)
			},
			wantErr: domain.ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.seed != nil {
				tt.seed(t, f)
			}
			svc := f.userService()

			out, err := svc.Create(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.User.ID == 0 {
				t.Error("expected minted ID")
			}
			if out.User.Role != domain.RoleUser {
				t.Errorf("expected default role user, got %s", out.User.Role)
			}
		})
	}
}

func TestUserServiceCreateValidationAggregates(t *testing.T) {
	f := newFixture(t)
	svc := f.userService()

	_, err := svc.Create(context.Background(), CreateUserInput{
		Username:  "ab",
		Email:     "not-an-email",
		BloodType: "Z+",
	})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	for _, field := range []string{"username", "email", "bloodType"} {
		if !verr.Has(field) {
			t.Errorf("expected violation for %q, got %v", field, verr.Fields)
		}
	}
}

func TestUserServiceCreateNormalizesAdminFlag(t *testing.T) {
	f := newFixture(t)
	svc := f.userService()

	out, err := svc.Create(context.Background(), CreateUserInput{
		Username: "boss",
		Email:    "boss@example.com",
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !out.User.IsAdmin {
		t.Error("expected IsAdmin true for admin role")
	}
}

func TestUserServiceAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.userService()

	if _, err := svc.Create(ctx, CreateUserInput{
		Username: "jordan",
		Email:    "jordan@example.com",
		Password: "correct-horse",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	t.Run("success", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "jordan", "correct-horse")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if user.Username != "jordan" {
			t.Errorf("expected jordan, got %s", user.Username)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "jordan", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "ghost", "anything"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestUserServiceSuspendAndReinstate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.userService()
	user := f.createUser(t, "jordan", domain.RoleUser)

	until := time.Now().UTC().Add(48 * time.Hour)
	if err := svc.Suspend(ctx, user.ID, until, "spam"); err != nil {
		t.Fatalf("Suspend: %v", err)
	}

	got, err := svc.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.UserStatusSuspended {
		t.Errorf("expected suspended, got %s", got.Status)
	}
	if got.SuspendedUntil == nil || !got.SuspendedUntil.Equal(until) {
		t.Errorf("expected SuspendedUntil %v, got %v", until, got.SuspendedUntil)
	}
	if got.CanAuthenticate() {
		t.Error("expected suspended user to be unable to authenticate")
	}

	if err := svc.Reinstate(ctx, user.ID); err != nil {
		t.Fatalf("Reinstate: %v", err)
	}
	got, err = svc.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.UserStatusActive {
		t.Errorf("expected active after reinstate, got %s", got.Status)
	}
	if got.SuspendedUntil != nil || got.SuspensionReason != "" {
		t.Error("expected suspension fields cleared on reinstate")
	}
}

func TestUserServiceSetRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.userService()
	user := f.createUser(t, "jordan", domain.RoleUser)

	got, err := svc.SetRole(ctx, user.ID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if got.Role != domain.RoleAdmin || !got.IsAdmin {
		t.Errorf("expected admin role with flag, got %s/%v", got.Role, got.IsAdmin)
	}

	if _, err := svc.SetRole(ctx, user.ID, "czar"); !errors.Is(err, domain.ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.SetRole(ctx, 999, domain.RoleDonor); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserServiceRepairAdminFlags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.userService()

	admin := f.createUser(t, "admin", domain.RoleAdmin)
	admin.IsAdmin = false
	if err := f.repos.User.Update(ctx, admin); err != nil {
		t.Fatalf("Update: %v", err)
	}
	plain := f.createUser(t, "plain", domain.RoleUser)
	plain.IsAdmin = true
	if err := f.repos.User.Update(ctx, plain); err != nil {
		t.Fatalf("Update: %v", err)
	}
	f.createUser(t, "fine", domain.RoleDonor)

	repaired, err := svc.RepairAdminFlags(ctx)
	if err != nil {
		t.Fatalf("RepairAdminFlags: %v", err)
	}
	if repaired != 2 {
		t.Errorf("expected 2 repaired, got %d", repaired)
	}

	got, _ := svc.GetByID(ctx, admin.ID)
	if !got.IsAdmin {
		t.Error("expected admin flag restored")
	}
	got, _ = svc.GetByID(ctx, plain.ID)
	if got.IsAdmin {
		t.Error("expected stray admin flag cleared")
	}
}
