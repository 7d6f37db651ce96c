package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/realtime"
)

func TestNotificationServiceNotify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.notificationService()
	user := f.createUser(t, "casey", domain.RoleUser)

	// Attach the feed before notifying so the initial snapshot is the
	// empty baseline and the notification arrives as an event.
	events := make(chan realtime.Event, 8)
	feed := realtime.NewFeed(f.store, realtime.NotificationsPath(user.ID), func(ev realtime.Event) {
		events <- ev
	})
	defer feed.Close()

	n, err := svc.Notify(ctx, user.ID, domain.NotificationDonorMatched, "Donor matched", "A donor accepted your request")
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if n.Read {
		t.Error("expected new notification unread")
	}

	select {
	case ev := <-events:
		if ev.Type != realtime.EventAdded {
			t.Errorf("expected added event, got %s", ev.Type)
		}
		if ev.Key != strconv.FormatInt(n.ID, 10) {
			t.Errorf("expected event key %d, got %s", n.ID, ev.Key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification event")
	}

	notifs, err := svc.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
}

func TestNotificationServiceMarkAllRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.notificationService()
	user := f.createUser(t, "casey", domain.RoleUser)
	other := f.createUser(t, "riley", domain.RoleUser)

	for i := 0; i < 3; i++ {
		if _, err := svc.Notify(ctx, user.ID, domain.NotificationSystem, "Notice", "hello"); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	if _, err := svc.Notify(ctx, other.ID, domain.NotificationSystem, "Notice", "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	count, err := svc.UnreadCount(ctx, user.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 unread, got %d", count)
	}

	changed, err := svc.MarkAllRead(ctx, user.ID)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if changed != 3 {
		t.Errorf("expected 3 changed, got %d", changed)
	}

	// Second pass finds nothing unread
	changed, err = svc.MarkAllRead(ctx, user.ID)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if changed != 0 {
		t.Errorf("expected 0 changed on repeat, got %d", changed)
	}

	otherCount, err := svc.UnreadCount(ctx, other.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if otherCount != 1 {
		t.Errorf("expected other user's unread untouched, got %d", otherCount)
	}
}

func TestNotificationServiceMarkRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.notificationService()
	user := f.createUser(t, "casey", domain.RoleUser)

	n, err := svc.Notify(ctx, user.ID, domain.NotificationDonorAvailable, "Eligible again", "You may donate")
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if err := svc.MarkRead(ctx, n.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, err := svc.UnreadCount(ctx, user.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 unread, got %d", count)
	}

	if err := svc.MarkRead(ctx, 999); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Errorf("expected ErrNotificationNotFound, got %v", err)
	}
}
