package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
)

func TestDonationServiceRecord(t *testing.T) {
	ctx := context.Background()
	cfg := DonationConfig{
		MinInterval:      56 * 24 * time.Hour,
		Thresholds:       domain.BadgeThresholds{Silver: 5, Gold: 15},
		LivesPerDonation: 3,
	}

	t.Run("bumps lifetime stats", func(t *testing.T) {
		f := newFixture(t)
		svc := f.donationService(cfg)
		donor, _ := f.createDonor(t, "jordan")

		when := time.Now().UTC().Truncate(time.Second)
		rec, err := svc.Record(ctx, RecordDonationInput{
			DonorID:      donor.ID,
			BloodType:    domain.BloodOPositive,
			VolumeML:     450,
			DonationDate: when,
			Location:     "City General",
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		if rec.ID == 0 {
			t.Error("expected record to be assigned an ID")
		}

		profile, err := f.repos.DonorProfile.GetByUserID(ctx, donor.ID)
		if err != nil {
			t.Fatalf("GetByUserID: %v", err)
		}
		if profile.TotalDonations != 1 {
			t.Errorf("expected 1 donation, got %d", profile.TotalDonations)
		}
		if profile.LitersDonated != 0.45 {
			t.Errorf("expected 0.45 liters, got %v", profile.LitersDonated)
		}
		if profile.LivesSaved != 3 {
			t.Errorf("expected 3 lives saved, got %d", profile.LivesSaved)
		}
		if profile.Badge != domain.BadgeBronze {
			t.Errorf("expected Bronze below the silver cutoff, got %s", profile.Badge)
		}
		if profile.LastDonationDate == nil || !profile.LastDonationDate.Equal(when) {
			t.Errorf("expected last donation %v, got %v", when, profile.LastDonationDate)
		}
		wantNext := when.Add(cfg.MinInterval)
		if profile.NextEligibleDate == nil || !profile.NextEligibleDate.Equal(wantNext) {
			t.Errorf("expected next eligible %v, got %v", wantNext, profile.NextEligibleDate)
		}
	})

	t.Run("crosses badge threshold", func(t *testing.T) {
		f := newFixture(t)
		svc := f.donationService(cfg)
		donor, profile := f.createDonor(t, "jordan")
		profile.TotalDonations = 4
		if err := f.repos.DonorProfile.Update(ctx, profile); err != nil {
			t.Fatalf("Update: %v", err)
		}

		_, err := svc.Record(ctx, RecordDonationInput{
			DonorID:      donor.ID,
			BloodType:    domain.BloodOPositive,
			VolumeML:     450,
			DonationDate: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}

		got, err := f.repos.DonorProfile.GetByUserID(ctx, donor.ID)
		if err != nil {
			t.Fatalf("GetByUserID: %v", err)
		}
		if got.Badge != domain.BadgeSilver {
			t.Errorf("expected Silver at the fifth donation, got %s", got.Badge)
		}
		if got.LivesSaved != 15 {
			t.Errorf("expected 15 lives saved, got %d", got.LivesSaved)
		}
	})

	t.Run("ineligible donor", func(t *testing.T) {
		f := newFixture(t)
		svc := f.donationService(cfg)
		donor, profile := f.createDonor(t, "jordan")
		next := time.Now().UTC().Add(30 * 24 * time.Hour)
		profile.NextEligibleDate = &next
		if err := f.repos.DonorProfile.Update(ctx, profile); err != nil {
			t.Fatalf("Update: %v", err)
		}

		_, err := svc.Record(ctx, RecordDonationInput{
			DonorID:      donor.ID,
			BloodType:    domain.BloodOPositive,
			VolumeML:     450,
			DonationDate: time.Now().UTC(),
		})
		if !errors.Is(err, domain.ErrDonorNotEligible) {
			t.Errorf("expected ErrDonorNotEligible, got %v", err)
		}

		records, err := svc.ListByDonor(ctx, donor.ID)
		if err != nil {
			t.Fatalf("ListByDonor: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no record for a refused donation, got %d", len(records))
		}
	})

	t.Run("no donor profile", func(t *testing.T) {
		f := newFixture(t)
		svc := f.donationService(cfg)
		user := f.createUser(t, "casey", domain.RoleUser)

		_, err := svc.Record(ctx, RecordDonationInput{
			DonorID:      user.ID,
			BloodType:    domain.BloodOPositive,
			VolumeML:     450,
			DonationDate: time.Now().UTC(),
		})
		if !errors.Is(err, domain.ErrDonorProfileNotFound) {
			t.Errorf("expected ErrDonorProfileNotFound, got %v", err)
		}
	})

	t.Run("invalid record", func(t *testing.T) {
		f := newFixture(t)
		svc := f.donationService(cfg)
		donor, _ := f.createDonor(t, "jordan")

		var verr *domain.ValidationError
		_, err := svc.Record(ctx, RecordDonationInput{
			DonorID:      donor.ID,
			BloodType:    "Z+",
			VolumeML:     0,
			DonationDate: time.Now().UTC(),
		})
		if !errors.As(err, &verr) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestDonationServiceStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.donationService(DefaultDonationConfig())
	donor, profile := f.createDonor(t, "jordan")
	profile.TotalDonations = 7
	profile.LitersDonated = 3.15
	profile.LivesSaved = 21
	profile.Badge = domain.BadgeSilver
	if err := f.repos.DonorProfile.Update(ctx, profile); err != nil {
		t.Fatalf("Update: %v", err)
	}

	stats, err := svc.Stats(ctx, donor.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalDonations != 7 || stats.LitersDonated != 3.15 || stats.LivesSaved != 21 || stats.Badge != domain.BadgeSilver {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if _, err := svc.Stats(ctx, 999); !errors.Is(err, domain.ErrDonorProfileNotFound) {
		t.Errorf("expected ErrDonorProfileNotFound, got %v", err)
	}
}
