package realtime

import (
	"github.com/hemolink/hemolink/internal/domain"
)

// WatchNewRequests delivers emergency requests as they are created.
// Requests that existed before the watcher attached are not replayed.
func WatchNewRequests(store Store, fn func(*domain.EmergencyRequest)) *Feed {
	return NewFeed(store, PathRequests, func(ev Event) {
		if ev.Type != EventAdded {
			return
		}
		if req, ok := ev.Value.(*domain.EmergencyRequest); ok {
			fn(req)
		}
	})
}

// WatchNewDonors delivers donor profiles as they are registered.
func WatchNewDonors(store Store, fn func(*domain.DonorProfile)) *Feed {
	return NewFeed(store, PathDonors, func(ev Event) {
		if ev.Type != EventAdded {
			return
		}
		if profile, ok := ev.Value.(*domain.DonorProfile); ok {
			fn(profile)
		}
	})
}

// WatchDonorAvailability delivers donor profiles at the moment their
// status transitions into Available. Profiles that were already
// Available when the watcher attached do not fire, and updates that
// keep the status Available do not fire again.
func WatchDonorAvailability(store Store, fn func(*domain.DonorProfile)) *Feed {
	return NewFeed(store, PathDonors, func(ev Event) {
		if ev.Type != EventChanged {
			return
		}
		current, ok := ev.Value.(*domain.DonorProfile)
		if !ok || current.Status != domain.DonorStatusAvailable {
			return
		}
		previous, ok := ev.Previous.(*domain.DonorProfile)
		if !ok || previous.Status == domain.DonorStatusAvailable {
			return
		}
		fn(current)
	})
}

// WatchRequestMatches delivers newly matched donor user IDs as
// requests pick up volunteers. Each donor fires once per request:
// donors already in the matched set when an update arrives do not
// fire again.
func WatchRequestMatches(store Store, fn func(req *domain.EmergencyRequest, donorUserID int64)) *Feed {
	return NewFeed(store, PathRequests, func(ev Event) {
		if ev.Type != EventChanged {
			return
		}
		current, ok := ev.Value.(*domain.EmergencyRequest)
		if !ok {
			return
		}
		previous, ok := ev.Previous.(*domain.EmergencyRequest)
		if !ok {
			return
		}
		for _, donorID := range current.MatchedDonorIDs {
			if !previous.HasMatchedDonor(donorID) {
				fn(current, donorID)
			}
		}
	})
}

// WatchNotifications delivers a user's notifications as they arrive.
func WatchNotifications(store Store, userID int64, fn func(*domain.Notification)) *Feed {
	return NewFeed(store, NotificationsPath(userID), func(ev Event) {
		if ev.Type != EventAdded {
			return
		}
		if notif, ok := ev.Value.(*domain.Notification); ok {
			fn(notif)
		}
	})
}
