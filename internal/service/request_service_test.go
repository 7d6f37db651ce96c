package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
)

func TestRequestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()
		requester := f.createUser(t, "casey", domain.RoleUser)

		req, err := svc.Create(ctx, CreateRequestInput{
			RequesterID:  &requester.ID,
			ContactName:  "Casey",
			ContactPhone: "0123456789",
			BloodType:    domain.BloodABNegative,
			UrgencyLevel: domain.UrgencyUrgent,
			HospitalName: "City General",
			ExpiresAt:    time.Now().UTC().Add(24 * time.Hour),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if req.ID == 0 {
			t.Error("expected request to be assigned an ID")
		}
		if req.Status != domain.RequestStatusPending {
			t.Errorf("expected new request Pending, got %s", req.Status)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()

		req, err := svc.Create(ctx, CreateRequestInput{
			ContactName:  "Passerby",
			ContactPhone: "0123456789",
			BloodType:    domain.BloodOPositive,
			UrgencyLevel: domain.UrgencyCritical,
			ExpiresAt:    time.Now().UTC().Add(6 * time.Hour),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if req.RequesterID != nil {
			t.Errorf("expected nil requester, got %v", *req.RequesterID)
		}
	})

	t.Run("validation aggregates", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()

		_, err := svc.Create(ctx, CreateRequestInput{
			ContactPhone: "nope",
			BloodType:    "Z+",
			UrgencyLevel: domain.UrgencyCritical,
			ExpiresAt:    time.Now().UTC().Add(time.Hour),
		})
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"bloodType", "contactPhone"} {
			if _, ok := verr.Fields[field]; !ok {
				t.Errorf("expected violation for %s, got %v", field, verr.Fields)
			}
		}
	})
}

func TestRequestServiceMatchDonor(t *testing.T) {
	ctx := context.Background()
	expires := time.Now().UTC().Add(24 * time.Hour)

	t.Run("pending moves to matching", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()
		donor, _ := f.createDonor(t, "jordan")
		req := f.createRequest(t, expires)

		got, err := svc.MatchDonor(ctx, req.ID, donor.ID)
		if err != nil {
			t.Fatalf("MatchDonor: %v", err)
		}
		if got.Status != domain.RequestStatusMatching {
			t.Errorf("expected Matching, got %s", got.Status)
		}
		if !got.HasMatchedDonor(donor.ID) {
			t.Error("expected donor in matched set")
		}
	})

	t.Run("duplicate match is a no-op", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()
		donor, _ := f.createDonor(t, "jordan")
		req := f.createRequest(t, expires)

		if _, err := svc.MatchDonor(ctx, req.ID, donor.ID); err != nil {
			t.Fatalf("first MatchDonor: %v", err)
		}
		got, err := svc.MatchDonor(ctx, req.ID, donor.ID)
		if err != nil {
			t.Fatalf("second MatchDonor: %v", err)
		}
		if len(got.MatchedDonorIDs) != 1 {
			t.Errorf("expected matched set of 1, got %d", len(got.MatchedDonorIDs))
		}
	})

	t.Run("no donor profile", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()
		user := f.createUser(t, "casey", domain.RoleUser)
		req := f.createRequest(t, expires)

		if _, err := svc.MatchDonor(ctx, req.ID, user.ID); !errors.Is(err, domain.ErrDonorProfileNotFound) {
			t.Errorf("expected ErrDonorProfileNotFound, got %v", err)
		}
	})

	t.Run("terminal request", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()
		donor, _ := f.createDonor(t, "jordan")
		req := f.createRequest(t, expires)
		req.Status = domain.RequestStatusFulfilled
		if err := f.repos.Request.Update(ctx, req); err != nil {
			t.Fatalf("Update: %v", err)
		}

		if _, err := svc.MatchDonor(ctx, req.ID, donor.ID); !errors.Is(err, domain.ErrRequestTerminal) {
			t.Errorf("expected ErrRequestTerminal, got %v", err)
		}
	})

	t.Run("expired request", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()
		donor, _ := f.createDonor(t, "jordan")
		req := f.createRequest(t, time.Now().UTC().Add(-time.Hour))

		if _, err := svc.MatchDonor(ctx, req.ID, donor.ID); !errors.Is(err, domain.ErrRequestExpired) {
			t.Errorf("expected ErrRequestExpired, got %v", err)
		}
	})
}

func TestRequestServiceTransition(t *testing.T) {
	ctx := context.Background()
	expires := time.Now().UTC().Add(24 * time.Hour)

	t.Run("fulfill and cancel", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()

		req := f.createRequest(t, expires)
		got, err := svc.Fulfill(ctx, req.ID)
		if err != nil {
			t.Fatalf("Fulfill: %v", err)
		}
		if got.Status != domain.RequestStatusFulfilled {
			t.Errorf("expected Fulfilled, got %s", got.Status)
		}

		other := f.createRequest(t, expires)
		got, err = svc.Cancel(ctx, other.ID)
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if got.Status != domain.RequestStatusCancelled {
			t.Errorf("expected Cancelled, got %s", got.Status)
		}
	})

	t.Run("terminal requests never change", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()
		req := f.createRequest(t, expires)

		if _, err := svc.Cancel(ctx, req.ID); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if _, err := svc.Fulfill(ctx, req.ID); !errors.Is(err, domain.ErrRequestTerminal) {
			t.Errorf("expected ErrRequestTerminal, got %v", err)
		}
	})

	t.Run("invalid transition", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()
		req := f.createRequest(t, expires)
		req.Status = domain.RequestStatusMatching
		if err := f.repos.Request.Update(ctx, req); err != nil {
			t.Fatalf("Update: %v", err)
		}

		if _, err := svc.Transition(ctx, req.ID, domain.RequestStatusPending); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()
		req := f.createRequest(t, expires)

		var verr *domain.ValidationError
		if _, err := svc.Transition(ctx, req.ID, "Paused"); !errors.As(err, &verr) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("unknown request", func(t *testing.T) {
		f := newFixture(t)
		svc := f.requestService()

		if _, err := svc.Fulfill(ctx, 999); !errors.Is(err, domain.ErrRequestNotFound) {
			t.Errorf("expected ErrRequestNotFound, got %v", err)
		}
	})
}
