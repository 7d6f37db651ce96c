package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/metrics"
	"github.com/hemolink/hemolink/internal/realtime"
	"github.com/hemolink/hemolink/internal/repository"
)

// NotificationService handles user notifications.
type NotificationService struct {
	notifRepo repository.NotificationRepository
	store     realtime.Store
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	notifRepo repository.NotificationRepository,
	store realtime.Store,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		store:     store,
		metrics:   m,
		logger:    logger.With().Str("service", "notification").Logger(),
	}
}

// Notify creates a notification and publishes it to the recipient's
// realtime feed.
func (s *NotificationService) Notify(ctx context.Context, userID int64, nType domain.NotificationType, title, message string) (*domain.Notification, error) {
	n := domain.NewNotification(userID, nType, title, message)

	if err := s.notifRepo.Create(ctx, n); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to create notification")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.store != nil {
		key := strconv.FormatInt(n.ID, 10)
		if err := s.store.Set(ctx, realtime.NotificationsPath(userID), key, n); err != nil {
			s.logger.Warn().Err(err).Int64("notification_id", n.ID).Msg("failed to publish notification")
		}
	}
	if s.metrics != nil {
		s.metrics.NotificationsSent.Inc()
	}

	s.logger.Info().
		Int64("notification_id", n.ID).
		Int64("user_id", userID).
		Str("type", string(nType)).
		Msg("notification created")

	return n, nil
}

// ListByUser returns a user's notifications, newest first.
func (s *NotificationService) ListByUser(ctx context.Context, userID int64) ([]*domain.Notification, error) {
	notifs, err := s.notifRepo.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list notifications")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return notifs, nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	if err := s.notifRepo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotificationNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}

// MarkAllRead marks every unread notification of a user as read and
// returns the number that changed. A second call changes nothing and
// returns zero.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	changed, err := s.notifRepo.MarkAllRead(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to mark notifications read")
		return 0, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if changed > 0 {
		s.logger.Info().
			Int64("user_id", userID).
			Int("count", changed).
			Msg("notifications marked read")
	}
	return changed, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	count, err := s.notifRepo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return count, nil
}
