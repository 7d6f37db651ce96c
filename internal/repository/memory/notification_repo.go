package memory

import (
	"context"
	"sort"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// notificationRepository implements repository.NotificationRepository.
type notificationRepository struct {
	store *Store
}

// NewNotificationRepository creates an in-memory notification repository.
func NewNotificationRepository(store *Store) repository.NotificationRepository {
	return &notificationRepository{store: store}
}

// Create creates a new notification.
func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = s.nextNotifID
	s.nextNotifID++
	n.CreatedAt = now()

	s.notifs[n.ID] = copyNotification(n)
	return nil
}

// GetByID retrieves a notification by ID.
func (r *notificationRepository) GetByID(ctx context.Context, id int64) (*domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyNotification(n), nil
}

// ListByUserID returns a user's notifications, newest first.
func (r *notificationRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	var list []*domain.Notification
	for _, n := range s.notifs {
		if n.UserID == userID {
			list = append(list, copyNotification(n))
		}
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

// MarkRead marks one notification as read. Marking an already-read
// notification is a no-op, not an error.
func (r *notificationRepository) MarkRead(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifs[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.Read = true
	return nil
}

// MarkAllRead marks all of a user's notifications as read.
// Idempotent: a second call changes nothing and returns zero.
func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, n := range s.notifs {
		if n.UserID == userID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (r *notificationRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifs {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

// Delete deletes a notification by ID.
func (r *notificationRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.notifs, id)
	return nil
}

// Ensure notificationRepository implements the interface.
var _ repository.NotificationRepository = (*notificationRepository)(nil)
