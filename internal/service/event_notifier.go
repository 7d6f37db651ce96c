package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/realtime"
	"github.com/hemolink/hemolink/internal/repository"
)

// EventNotifier bridges the realtime collection feeds into stored user
// notifications. It watches the request and donor collections that the
// services publish into and fans notifications out to the affected
// users: available donors hear about new emergency requests, requesters
// hear about donors becoming available and about volunteers matching
// their request.
type EventNotifier struct {
	notifications *NotificationService
	donorRepo     repository.DonorProfileRepository
	requestRepo   repository.EmergencyRequestRepository
	logger        zerolog.Logger

	feeds []*realtime.Feed
}

// NewEventNotifier creates an EventNotifier. Call Start to attach it
// to a store.
func NewEventNotifier(
	notifications *NotificationService,
	donorRepo repository.DonorProfileRepository,
	requestRepo repository.EmergencyRequestRepository,
	logger zerolog.Logger,
) *EventNotifier {
	return &EventNotifier{
		notifications: notifications,
		donorRepo:     donorRepo,
		requestRepo:   requestRepo,
		logger:        logger.With().Str("service", "event_notifier").Logger(),
	}
}

// Start attaches the watchers to the store. Records already present
// form the silent baseline, so attaching late never floods users with
// notifications for history they have already seen.
func (n *EventNotifier) Start(store realtime.Store) {
	n.feeds = append(n.feeds,
		realtime.WatchNewRequests(store, n.onNewRequest),
		realtime.WatchDonorAvailability(store, n.onDonorAvailable),
		realtime.WatchRequestMatches(store, n.onDonorMatched),
	)
	n.logger.Info().Msg("event notifier started")
}

// Close detaches the watchers. Safe to call repeatedly.
func (n *EventNotifier) Close() {
	for _, feed := range n.feeds {
		feed.Close()
	}
	n.feeds = nil
}

// onNewRequest tells every available donor about a fresh emergency
// request. The requester never hears about their own request.
func (n *EventNotifier) onNewRequest(req *domain.EmergencyRequest) {
	ctx := context.Background()

	donors, err := n.donorRepo.List(ctx, repository.DonorListOptions{Status: domain.DonorStatusAvailable})
	if err != nil {
		n.logger.Error().Err(err).Int64("request_id", req.ID).Msg("failed to list donors for request fan-out")
		return
	}

	message := fmt.Sprintf("%s blood needed at %s (%s)", req.BloodType, req.HospitalName, req.UrgencyLevel)
	for _, profile := range donors.Items {
		if req.RequesterID != nil && *req.RequesterID == profile.UserID {
			continue
		}
		n.send(ctx, profile.UserID, domain.NotificationEmergencyRequest, "New emergency request", message)
	}
}

// onDonorAvailable tells requesters with an open request that a donor
// just became available. Anonymous requests have nobody to notify.
func (n *EventNotifier) onDonorAvailable(profile *domain.DonorProfile) {
	ctx := context.Background()

	requests, err := n.requestRepo.List(ctx, repository.RequestListOptions{})
	if err != nil {
		n.logger.Error().Err(err).Int64("donor_user_id", profile.UserID).Msg("failed to list requests for donor fan-out")
		return
	}

	now := time.Now().UTC()
	for _, req := range requests.Items {
		if req.RequesterID == nil || *req.RequesterID == profile.UserID {
			continue
		}
		if req.Status.IsTerminal() || req.IsExpiredAt(now) {
			continue
		}
		message := fmt.Sprintf("A donor is now available for your %s request", req.BloodType)
		n.send(ctx, *req.RequesterID, domain.NotificationDonorAvailable, "Donor available", message)
	}
}

// onDonorMatched tells the requester a volunteer stepped up.
func (n *EventNotifier) onDonorMatched(req *domain.EmergencyRequest, donorUserID int64) {
	if req.RequesterID == nil {
		return
	}

	message := fmt.Sprintf("A donor volunteered for your %s request", req.BloodType)
	n.send(context.Background(), *req.RequesterID, domain.NotificationDonorMatched, "Donor matched", message)
}

func (n *EventNotifier) send(ctx context.Context, userID int64, nType domain.NotificationType, title, message string) {
	if _, err := n.notifications.Notify(ctx, userID, nType, title, message); err != nil {
		n.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Str("type", string(nType)).
			Msg("failed to deliver notification")
	}
}
