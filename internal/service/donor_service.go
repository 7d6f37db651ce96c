package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/metrics"
	"github.com/hemolink/hemolink/internal/realtime"
	"github.com/hemolink/hemolink/internal/repository"
)

// DonorService handles donor profile management.
type DonorService struct {
	donorRepo repository.DonorProfileRepository
	userRepo  repository.UserRepository
	store     realtime.Store
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewDonorService creates a new DonorService.
func NewDonorService(
	donorRepo repository.DonorProfileRepository,
	userRepo repository.UserRepository,
	store realtime.Store,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *DonorService {
	return &DonorService{
		donorRepo: donorRepo,
		userRepo:  userRepo,
		store:     store,
		metrics:   m,
		logger:    logger.With().Str("service", "donor").Logger(),
	}
}

// Register creates a donor profile for a user and flips the user's role
// to donor. Admin-tier roles keep their role; the profile alone marks
// them as donors.
func (s *DonorService) Register(ctx context.Context, userID int64) (*domain.DonorProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if _, err := s.donorRepo.GetByUserID(ctx, userID); err == nil {
		return nil, domain.ErrDonorProfileExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	profile := domain.NewDonorProfile(userID)
	if err := s.donorRepo.Create(ctx, profile); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to create donor profile")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !user.Role.IsAdminRole() && user.Role != domain.RoleModerator {
		user.Role = domain.RoleDonor
		user.NormalizeAdminFlag()
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to update user role to donor")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
	}

	s.publish(ctx, profile)

	s.logger.Info().
		Int64("user_id", userID).
		Int64("profile_id", profile.ID).
		Msg("donor profile registered")

	return profile, nil
}

// GetByUserID retrieves the donor profile extending the given user.
func (s *DonorService) GetByUserID(ctx context.Context, userID int64) (*domain.DonorProfile, error) {
	profile, err := s.donorRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrDonorProfileNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get donor profile")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return profile, nil
}

// SetAvailability updates a donor's availability status.
func (s *DonorService) SetAvailability(ctx context.Context, userID int64, status domain.DonorStatus) (*domain.DonorProfile, error) {
	if !status.IsValid() {
		verr := domain.NewValidationError()
		verr.Add("status", "must be one of Available, Unavailable, Pending")
		return nil, verr
	}

	profile, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Status = status
	if err := s.donorRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.publish(ctx, profile)
	if s.metrics != nil {
		s.metrics.DonorStatusChanges.WithLabelValues(string(status)).Inc()
	}

	s.logger.Info().
		Int64("user_id", userID).
		Str("status", string(status)).
		Msg("donor availability updated")

	return profile, nil
}

// SetVerification updates the review state of a donor profile.
func (s *DonorService) SetVerification(ctx context.Context, userID int64, status domain.VerificationStatus) (*domain.DonorProfile, error) {
	if !status.IsValid() {
		verr := domain.NewValidationError()
		verr.Add("verificationStatus", "must be one of Unverified, Pending, Verified")
		return nil, verr
	}

	profile, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.VerificationStatus = status
	if err := s.donorRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.publish(ctx, profile)

	s.logger.Info().
		Int64("user_id", userID).
		Str("verification_status", string(status)).
		Msg("donor verification updated")

	return profile, nil
}

// Eligibility reports whether the donor may donate at the given time
// and when they next become eligible.
func (s *DonorService) Eligibility(ctx context.Context, userID int64, at time.Time) (bool, *time.Time, error) {
	profile, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return false, nil, err
	}
	return profile.IsEligible(at), profile.NextEligibleDate, nil
}

// ListDonorsInput contains filter and pagination options.
type ListDonorsInput struct {
	Status             domain.DonorStatus
	VerificationStatus domain.VerificationStatus
	Page               int
	Limit              int
}

// ListDonorsOutput contains the result of listing donor profiles.
type ListDonorsOutput struct {
	Donors     []*domain.DonorProfile
	TotalCount int64
	Page       int
	Limit      int
}

// List returns donor profiles matching the filters with pagination.
func (s *DonorService) List(ctx context.Context, input ListDonorsInput) (*ListDonorsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	if input.Page <= 0 {
		input.Page = 1
	}

	result, err := s.donorRepo.List(ctx, repository.DonorListOptions{
		Status:             input.Status,
		VerificationStatus: input.VerificationStatus,
		Page:               input.Page,
		Limit:              input.Limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list donor profiles")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListDonorsOutput{
		Donors:     result.Items,
		TotalCount: result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
	}, nil
}

// publish mirrors the profile into the realtime store so watchers see
// the change.
func (s *DonorService) publish(ctx context.Context, profile *domain.DonorProfile) {
	if s.store == nil {
		return
	}
	key := strconv.FormatInt(profile.ID, 10)
	if err := s.store.Set(ctx, realtime.PathDonors, key, profile); err != nil {
		s.logger.Warn().Err(err).Int64("profile_id", profile.ID).Msg("failed to publish donor update")
	}
}
