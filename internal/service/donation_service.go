package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/lock"
	"github.com/hemolink/hemolink/internal/metrics"
	"github.com/hemolink/hemolink/internal/realtime"
	"github.com/hemolink/hemolink/internal/repository"
)

// DonationConfig contains donation policy settings.
type DonationConfig struct {
	// MinInterval is the minimum time between donations.
	MinInterval time.Duration

	// Thresholds are the badge tier cutoffs.
	Thresholds domain.BadgeThresholds

	// LivesPerDonation estimates lives saved per donation.
	LivesPerDonation float64
}

// DefaultDonationConfig returns the standard whole-blood policy.
func DefaultDonationConfig() DonationConfig {
	return DonationConfig{
		MinInterval:      56 * 24 * time.Hour,
		Thresholds:       domain.BadgeThresholds{Silver: 5, Gold: 15},
		LivesPerDonation: 3,
	}
}

// DonationService records donations and maintains donor lifetime stats.
type DonationService struct {
	donationRepo repository.DonationRepository
	donorRepo    repository.DonorProfileRepository
	locker       lock.Locker
	store        realtime.Store
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	config       DonationConfig
}

// NewDonationService creates a new DonationService.
func NewDonationService(
	donationRepo repository.DonationRepository,
	donorRepo repository.DonorProfileRepository,
	locker lock.Locker,
	store realtime.Store,
	m *metrics.Metrics,
	logger zerolog.Logger,
	config DonationConfig,
) *DonationService {
	return &DonationService{
		donationRepo: donationRepo,
		donorRepo:    donorRepo,
		locker:       locker,
		store:        store,
		metrics:      m,
		logger:       logger.With().Str("service", "donation").Logger(),
		config:       config,
	}
}

// RecordDonationInput contains the data needed to record a donation.
type RecordDonationInput struct {
	DonorID      int64
	RequestID    *int64
	BloodType    domain.BloodType
	VolumeML     int
	DonationDate time.Time
	Location     string
}

// Record creates an immutable donation record and updates the donor's
// lifetime totals, badge, and next eligible date. Writes for the same
// donor are serialized under a lock so concurrent records cannot lose
// updates.
func (s *DonationService) Record(ctx context.Context, input RecordDonationInput) (*domain.DonationRecord, error) {
	rec := &domain.DonationRecord{
		DonorID:      input.DonorID,
		RequestID:    input.RequestID,
		BloodType:    input.BloodType,
		VolumeML:     input.VolumeML,
		DonationDate: input.DonationDate,
		Location:     input.Location,
		CreatedAt:    time.Now().UTC(),
	}

	if err := domain.ValidateDonationRecord(rec); err != nil {
		return nil, err
	}

	lockKey := lock.Keys.DonationRecord(input.DonorID)
	acquired, err := s.locker.AcquireWithRetry(ctx, lockKey, 30*time.Second, 3, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: donation lock held for donor %d", ErrInternalError, input.DonorID)
	}
	defer func() {
		if _, err := s.locker.Release(ctx, lockKey); err != nil {
			s.logger.Error().Err(err).Msg("failed to release donation lock")
		}
	}()

	profile, err := s.donorRepo.GetByUserID(ctx, input.DonorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrDonorProfileNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !profile.IsEligible(input.DonationDate) {
		return nil, fmt.Errorf("%w: next eligible %s", domain.ErrDonorNotEligible,
			profile.NextEligibleDate.Format(time.RFC3339))
	}

	if err := s.donationRepo.Create(ctx, rec); err != nil {
		s.logger.Error().Err(err).Int64("donor_id", input.DonorID).Msg("failed to create donation record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// Bump lifetime stats and derived fields
	profile.TotalDonations++
	profile.LitersDonated += float64(input.VolumeML) / 1000.0
	profile.LivesSaved = int(float64(profile.TotalDonations) * s.config.LivesPerDonation)
	profile.Badge = s.config.Thresholds.BadgeFor(profile.TotalDonations)

	donationDate := input.DonationDate
	profile.LastDonationDate = &donationDate
	nextEligible := donationDate.Add(s.config.MinInterval)
	profile.NextEligibleDate = &nextEligible

	if err := s.donorRepo.Update(ctx, profile); err != nil {
		s.logger.Error().Err(err).Int64("donor_id", input.DonorID).Msg("failed to update donor stats")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.store != nil {
		key := strconv.FormatInt(profile.ID, 10)
		if err := s.store.Set(ctx, realtime.PathDonors, key, profile); err != nil {
			s.logger.Warn().Err(err).Int64("profile_id", profile.ID).Msg("failed to publish donor update")
		}
	}
	if s.metrics != nil {
		s.metrics.DonationsRecorded.Inc()
	}

	s.logger.Info().
		Int64("record_id", rec.ID).
		Int64("donor_id", input.DonorID).
		Int("volume_ml", input.VolumeML).
		Int("total_donations", profile.TotalDonations).
		Str("badge", string(profile.Badge)).
		Msg("donation recorded")

	return rec, nil
}

// GetByID retrieves a donation record by ID.
func (s *DonationService) GetByID(ctx context.Context, id int64) (*domain.DonationRecord, error) {
	rec, err := s.donationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrDonationNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return rec, nil
}

// ListByDonor returns a donor's donation history, newest first.
func (s *DonationService) ListByDonor(ctx context.Context, donorID int64) ([]*domain.DonationRecord, error) {
	records, err := s.donationRepo.ListByDonorID(ctx, donorID)
	if err != nil {
		s.logger.Error().Err(err).Int64("donor_id", donorID).Msg("failed to list donations")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return records, nil
}

// DonorStats summarizes a donor's recorded history.
type DonorStats struct {
	TotalDonations int
	LitersDonated  float64
	LivesSaved     int
	Badge          domain.DonorBadge
}

// Stats returns the donor's lifetime statistics.
func (s *DonationService) Stats(ctx context.Context, donorID int64) (*DonorStats, error) {
	profile, err := s.donorRepo.GetByUserID(ctx, donorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrDonorProfileNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &DonorStats{
		TotalDonations: profile.TotalDonations,
		LitersDonated:  profile.LitersDonated,
		LivesSaved:     profile.LivesSaved,
		Badge:          profile.Badge,
	}, nil
}
