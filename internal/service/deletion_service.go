package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/lock"
	"github.com/hemolink/hemolink/internal/metrics"
	"github.com/hemolink/hemolink/internal/repository"
)

// DeletionService handles the account deletion review workflow.
// Deleting an account is a two-step process: any moderator can file a
// request, and an admin resolves it.
type DeletionService struct {
	deletionRepo repository.DeletionRequestRepository
	userRepo     repository.UserRepository
	locker       lock.Locker
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewDeletionService creates a new DeletionService.
func NewDeletionService(
	deletionRepo repository.DeletionRequestRepository,
	userRepo repository.UserRepository,
	locker lock.Locker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *DeletionService {
	return &DeletionService{
		deletionRepo: deletionRepo,
		userRepo:     userRepo,
		locker:       locker,
		metrics:      m,
		logger:       logger.With().Str("service", "deletion").Logger(),
	}
}

// Create files a deletion request against a target user.
func (s *DeletionService) Create(ctx context.Context, requesterID, targetUserID int64, reason string) (*domain.DeletionRequest, error) {
	if _, err := s.userRepo.GetByID(ctx, targetUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	req := domain.NewDeletionRequest(requesterID, targetUserID, reason)
	if err := s.deletionRepo.Create(ctx, req); err != nil {
		s.logger.Error().Err(err).Int64("target_user_id", targetUserID).Msg("failed to create deletion request")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("deletion_id", req.ID).
		Int64("requester_id", requesterID).
		Int64("target_user_id", targetUserID).
		Msg("deletion request filed")

	return req, nil
}

// GetByID retrieves a deletion request by ID.
func (s *DeletionService) GetByID(ctx context.Context, id int64) (*domain.DeletionRequest, error) {
	req, err := s.deletionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrDeletionRequestNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return req, nil
}

// Approve resolves a pending request by deleting the target user.
// The user's donor profile and documents go with the account; donation
// records stay, as historical facts about collected blood.
func (s *DeletionService) Approve(ctx context.Context, id, reviewerID int64) (*domain.DeletionRequest, error) {
	req, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != domain.DeletionStatusPending {
		return nil, fmt.Errorf("%w: request %d is %s", domain.ErrDeletionAlreadyResolved, id, req.Status)
	}
	if req.RequesterID == reviewerID {
		return nil, ErrSelfDeletionReview
	}

	lockKey := lock.Keys.UserDeletion(req.TargetUserID)
	acquired, err := s.locker.Acquire(ctx, lockKey, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: deletion in progress for user %d", ErrInternalError, req.TargetUserID)
	}
	defer func() {
		if _, err := s.locker.Release(ctx, lockKey); err != nil {
			s.logger.Error().Err(err).Msg("failed to release deletion lock")
		}
	}()

	if err := s.userRepo.Delete(ctx, req.TargetUserID); err != nil {
		// Target already gone: resolve the request anyway
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error().Err(err).Int64("target_user_id", req.TargetUserID).Msg("failed to delete target user")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
	}

	req.Status = domain.DeletionStatusApproved
	req.ReviewedBy = &reviewerID
	if err := s.deletionRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.metrics != nil {
		s.metrics.DeletionsProcessed.WithLabelValues("approved").Inc()
	}

	s.logger.Info().
		Int64("deletion_id", id).
		Int64("target_user_id", req.TargetUserID).
		Int64("reviewer_id", reviewerID).
		Msg("deletion request approved")

	return req, nil
}

// Reject resolves a pending request without deleting anyone.
func (s *DeletionService) Reject(ctx context.Context, id, reviewerID int64) (*domain.DeletionRequest, error) {
	req, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != domain.DeletionStatusPending {
		return nil, fmt.Errorf("%w: request %d is %s", domain.ErrDeletionAlreadyResolved, id, req.Status)
	}
	if req.RequesterID == reviewerID {
		return nil, ErrSelfDeletionReview
	}

	req.Status = domain.DeletionStatusRejected
	req.ReviewedBy = &reviewerID
	if err := s.deletionRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.metrics != nil {
		s.metrics.DeletionsProcessed.WithLabelValues("rejected").Inc()
	}

	s.logger.Info().
		Int64("deletion_id", id).
		Int64("reviewer_id", reviewerID).
		Msg("deletion request rejected")

	return req, nil
}

// ListDeletionsInput contains filter and pagination options.
type ListDeletionsInput struct {
	Status domain.DeletionRequestStatus
	Page   int
	Limit  int
}

// ListDeletionsOutput contains the result of listing deletion requests.
// Requester and target summaries are redacted views without password
// material.
type ListDeletionsOutput struct {
	Requests   []*domain.DeletionRequestDetail
	TotalCount int64
	Page       int
	Limit      int
}

// List returns deletion requests with joined requester and target
// summaries.
func (s *DeletionService) List(ctx context.Context, input ListDeletionsInput) (*ListDeletionsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	if input.Page <= 0 {
		input.Page = 1
	}

	result, err := s.deletionRepo.List(ctx, repository.DeletionListOptions{
		Status:           input.Status,
		IncludeRequester: true,
		IncludeTarget:    true,
		Page:             input.Page,
		Limit:            input.Limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list deletion requests")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListDeletionsOutput{
		Requests:   result.Items,
		TotalCount: result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
	}, nil
}
