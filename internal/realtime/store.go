// Package realtime provides a subscribable state store and a typed
// change feed over it. Services publish mutations into the store and
// subscribers receive full snapshots of the paths they watch.
package realtime

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// =============================================================================
// Paths
// =============================================================================

// Well-known collection paths.
const (
	PathRequests = "emergency_requests"
	PathDonors   = "donor_profiles"
	PathUsers    = "users"
)

// NotificationsPath returns the per-user notifications collection path.
func NotificationsPath(userID int64) string {
	return "notifications/" + strconv.FormatInt(userID, 10)
}

// =============================================================================
// Store
// =============================================================================

// Snapshot is the full state of a collection path at a point in time.
// Keys identify records within the collection.
type Snapshot map[string]interface{}

// Store is a subscribable hierarchical state store.
//
// Subscribers of a path receive the complete snapshot of that path on
// every change. Each subscriber observes snapshots in the order the
// mutations were applied. There is no consistency guarantee across
// different paths.
type Store interface {
	// Get returns the record stored at path/key.
	Get(ctx context.Context, path, key string) (interface{}, bool)

	// Set stores a record at path/key, creating or replacing it.
	Set(ctx context.Context, path, key string, value interface{}) error

	// Delete removes the record at path/key.
	Delete(ctx context.Context, path, key string) error

	// Push stores a record under a generated key and returns the key.
	Push(ctx context.Context, path string, value interface{}) (string, error)

	// Subscribe registers fn for snapshots of path. fn receives the
	// current snapshot immediately, then again after every change.
	// The returned function cancels the subscription; calling it more
	// than once is safe.
	Subscribe(path string, fn func(Snapshot)) func()
}

// MemoryStore is an in-process Store implementation.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]interface{}
	subscribers map[string][]*subscriber
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]interface{}),
		subscribers: make(map[string][]*subscriber),
	}
}

// Get returns the record stored at path/key.
func (s *MemoryStore) Get(ctx context.Context, path, key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[path]
	if !ok {
		return nil, false
	}
	v, ok := coll[key]
	return v, ok
}

// Set stores a record at path/key, creating or replacing it.
func (s *MemoryStore) Set(ctx context.Context, path, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[path]
	if !ok {
		coll = make(map[string]interface{})
		s.collections[path] = coll
	}
	coll[key] = value
	s.notifyLocked(path)
	return nil
}

// Delete removes the record at path/key.
func (s *MemoryStore) Delete(ctx context.Context, path, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[path]
	if !ok {
		return nil
	}
	if _, ok := coll[key]; !ok {
		return nil
	}
	delete(coll, key)
	s.notifyLocked(path)
	return nil
}

// Push stores a record under a generated key and returns the key.
func (s *MemoryStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	key := uuid.NewString()
	if err := s.Set(ctx, path, key, value); err != nil {
		return "", err
	}
	return key, nil
}

// Subscribe registers fn for snapshots of path.
func (s *MemoryStore) Subscribe(path string, fn func(Snapshot)) func() {
	sub := newSubscriber(fn)

	s.mu.Lock()
	s.subscribers[path] = append(s.subscribers[path], sub)
	sub.enqueue(s.snapshotLocked(path))
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			subs := s.subscribers[path]
			for i, candidate := range subs {
				if candidate == sub {
					s.subscribers[path] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
			sub.close()
		})
	}
}

// Close tears down all subscriptions.
func (s *MemoryStore) Close() {
	s.mu.Lock()
	subs := s.subscribers
	s.subscribers = make(map[string][]*subscriber)
	s.mu.Unlock()

	for _, list := range subs {
		for _, sub := range list {
			sub.close()
		}
	}
}

// snapshotLocked copies the current state of path. Caller holds mu.
func (s *MemoryStore) snapshotLocked(path string) Snapshot {
	coll := s.collections[path]
	snap := make(Snapshot, len(coll))
	for k, v := range coll {
		snap[k] = v
	}
	return snap
}

// notifyLocked enqueues the current snapshot for every subscriber of
// path. Caller holds mu, which is what orders deliveries.
func (s *MemoryStore) notifyLocked(path string) {
	subs := s.subscribers[path]
	if len(subs) == 0 {
		return
	}
	snap := s.snapshotLocked(path)
	for _, sub := range subs {
		sub.enqueue(snap)
	}
}

// =============================================================================
// Subscriber
// =============================================================================

// subscriber delivers snapshots to a callback in enqueue order.
// Deliveries run on a dedicated goroutine so callbacks never execute
// under the store lock.
type subscriber struct {
	fn func(Snapshot)

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Snapshot
	closed  bool
}

func newSubscriber(fn func(Snapshot)) *subscriber {
	sub := &subscriber{fn: fn}
	sub.cond = sync.NewCond(&sub.mu)
	go sub.run()
	return sub
}

func (sub *subscriber) enqueue(snap Snapshot) {
	sub.mu.Lock()
	if !sub.closed {
		sub.pending = append(sub.pending, snap)
		sub.cond.Signal()
	}
	sub.mu.Unlock()
}

func (sub *subscriber) close() {
	sub.mu.Lock()
	sub.closed = true
	sub.cond.Signal()
	sub.mu.Unlock()
}

func (sub *subscriber) run() {
	for {
		sub.mu.Lock()
		for len(sub.pending) == 0 && !sub.closed {
			sub.cond.Wait()
		}
		if sub.closed && len(sub.pending) == 0 {
			sub.mu.Unlock()
			return
		}
		snap := sub.pending[0]
		sub.pending = sub.pending[1:]
		sub.mu.Unlock()

		sub.fn(snap)
	}
}
