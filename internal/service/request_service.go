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

// RequestService handles the emergency request lifecycle.
type RequestService struct {
	requestRepo repository.EmergencyRequestRepository
	donorRepo   repository.DonorProfileRepository
	store       realtime.Store
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewRequestService creates a new RequestService.
func NewRequestService(
	requestRepo repository.EmergencyRequestRepository,
	donorRepo repository.DonorProfileRepository,
	store realtime.Store,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		donorRepo:   donorRepo,
		store:       store,
		metrics:     m,
		logger:      logger.With().Str("service", "request").Logger(),
	}
}

// CreateRequestInput contains the data needed to file a request.
// RequesterID is nil for anonymous requests; the contact fields are
// then the only way to reach the requester.
type CreateRequestInput struct {
	RequesterID  *int64
	ContactName  string
	ContactPhone string
	ContactEmail string
	BloodType    domain.BloodType
	UrgencyLevel domain.UrgencyLevel
	HospitalName string
	Location     domain.Location
	ExpiresAt    time.Time
}

// Create files a new emergency request.
func (s *RequestService) Create(ctx context.Context, input CreateRequestInput) (*domain.EmergencyRequest, error) {
	req := domain.NewEmergencyRequest(input.BloodType, input.UrgencyLevel, input.ExpiresAt)
	req.RequesterID = input.RequesterID
	req.ContactName = input.ContactName
	req.ContactPhone = input.ContactPhone
	req.ContactEmail = input.ContactEmail
	req.HospitalName = input.HospitalName
	req.Location = input.Location

	// Validate collects every field violation, not just the first
	if err := domain.ValidateEmergencyRequest(req); err != nil {
		return nil, err
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		s.logger.Error().Err(err).Msg("failed to create emergency request")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.publish(ctx, req)
	if s.metrics != nil {
		s.metrics.RequestsCreated.Inc()
	}

	s.logger.Info().
		Int64("request_id", req.ID).
		Str("blood_type", string(req.BloodType)).
		Str("urgency", string(req.UrgencyLevel)).
		Bool("anonymous", req.RequesterID == nil).
		Msg("emergency request created")

	return req, nil
}

// GetByID retrieves a request by ID.
func (s *RequestService) GetByID(ctx context.Context, id int64) (*domain.EmergencyRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		s.logger.Error().Err(err).Int64("request_id", id).Msg("failed to get request")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return req, nil
}

// Transition moves a request to the next lifecycle state, enforcing the
// state machine. Terminal states never change again.
func (s *RequestService) Transition(ctx context.Context, id int64, next domain.RequestStatus) (*domain.EmergencyRequest, error) {
	if !next.IsValid() {
		verr := domain.NewValidationError()
		verr.Add("status", "unknown request status")
		return nil, verr
	}

	req, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: request %d is %s", domain.ErrRequestTerminal, id, req.Status)
	}
	if !req.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, req.Status, next)
	}

	req.Status = next
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.publish(ctx, req)
	if s.metrics != nil && next == domain.RequestStatusFulfilled {
		s.metrics.RequestsFulfilled.Inc()
	}

	s.logger.Info().
		Int64("request_id", id).
		Str("status", string(next)).
		Msg("request transitioned")

	return req, nil
}

// MatchDonor adds a donor to the request's matched set and moves a
// Pending request to Matching. Matching the same donor again is a
// no-op; the matched set has no duplicates.
func (s *RequestService) MatchDonor(ctx context.Context, requestID, donorUserID int64) (*domain.EmergencyRequest, error) {
	if _, err := s.donorRepo.GetByUserID(ctx, donorUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrDonorProfileNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: request %d is %s", domain.ErrRequestTerminal, requestID, req.Status)
	}
	if req.IsExpiredAt(time.Now().UTC()) {
		return nil, domain.ErrRequestExpired
	}

	if req.HasMatchedDonor(donorUserID) {
		return req, nil
	}

	req.MatchedDonorIDs = append(req.MatchedDonorIDs, donorUserID)
	if req.Status == domain.RequestStatusPending {
		req.Status = domain.RequestStatusMatching
	}

	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.publish(ctx, req)

	s.logger.Info().
		Int64("request_id", requestID).
		Int64("donor_user_id", donorUserID).
		Int("matched_count", len(req.MatchedDonorIDs)).
		Msg("donor matched to request")

	return req, nil
}

// Fulfill marks a request as fulfilled.
func (s *RequestService) Fulfill(ctx context.Context, id int64) (*domain.EmergencyRequest, error) {
	return s.Transition(ctx, id, domain.RequestStatusFulfilled)
}

// Cancel marks a request as cancelled.
func (s *RequestService) Cancel(ctx context.Context, id int64) (*domain.EmergencyRequest, error) {
	return s.Transition(ctx, id, domain.RequestStatusCancelled)
}

// ListRequestsInput contains filter and pagination options.
type ListRequestsInput struct {
	Status       domain.RequestStatus
	BloodType    domain.BloodType
	UrgencyLevel domain.UrgencyLevel
	Page         int
	Limit        int
}

// ListRequestsOutput contains the result of listing requests.
type ListRequestsOutput struct {
	Requests   []*domain.EmergencyRequest
	TotalCount int64
	Page       int
	Limit      int
}

// List returns requests matching the filters with pagination.
func (s *RequestService) List(ctx context.Context, input ListRequestsInput) (*ListRequestsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	if input.Page <= 0 {
		input.Page = 1
	}

	result, err := s.requestRepo.List(ctx, repository.RequestListOptions{
		Status:       input.Status,
		BloodType:    input.BloodType,
		UrgencyLevel: input.UrgencyLevel,
		Page:         input.Page,
		Limit:        input.Limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list requests")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListRequestsOutput{
		Requests:   result.Items,
		TotalCount: result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
	}, nil
}

// publish mirrors the request into the realtime store.
func (s *RequestService) publish(ctx context.Context, req *domain.EmergencyRequest) {
	if s.store == nil {
		return
	}
	key := strconv.FormatInt(req.ID, 10)
	if err := s.store.Set(ctx, realtime.PathRequests, key, req); err != nil {
		s.logger.Warn().Err(err).Int64("request_id", req.ID).Msg("failed to publish request update")
	}
}
