package realtime

import (
	"reflect"
	"sync"
)

// EventType identifies the kind of change a feed observed.
type EventType int

const (
	// EventAdded indicates a record appeared in the collection.
	EventAdded EventType = iota

	// EventChanged indicates an existing record's value changed.
	EventChanged

	// EventRemoved indicates a record left the collection.
	EventRemoved
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	switch et {
	case EventAdded:
		return "added"
	case EventChanged:
		return "changed"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a single observed change within a collection.
type Event struct {
	// Type is the kind of change.
	Type EventType

	// Key identifies the record within the collection.
	Key string

	// Value is the record after the change. Nil for removals.
	Value interface{}

	// Previous is the record before the change. Nil for additions.
	Previous interface{}
}

// Feed turns a stream of full snapshots into discrete change events by
// diffing each snapshot against the previous one.
//
// The first snapshot after subscribing establishes the baseline and
// emits no events. Existing records therefore never replay as a burst
// of additions when a watcher attaches.
type Feed struct {
	unsubscribe func()
	once        sync.Once

	mu   sync.Mutex
	prev Snapshot
	seen bool
}

// NewFeed subscribes to path on the store and delivers change events
// to fn. Close the feed to stop.
func NewFeed(store Store, path string, fn func(Event)) *Feed {
	feed := &Feed{}
	feed.unsubscribe = store.Subscribe(path, func(snap Snapshot) {
		feed.apply(snap, fn)
	})
	return feed
}

// Close cancels the underlying subscription. Safe to call repeatedly.
func (f *Feed) Close() {
	f.once.Do(func() {
		if f.unsubscribe != nil {
			f.unsubscribe()
		}
	})
}

// apply diffs the incoming snapshot against the previous one and emits
// one event per changed record.
func (f *Feed) apply(current Snapshot, fn func(Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.seen {
		f.prev = current
		f.seen = true
		return
	}

	prev := f.prev
	f.prev = current

	for key, value := range current {
		before, existed := prev[key]
		switch {
		case !existed:
			fn(Event{Type: EventAdded, Key: key, Value: value})
		case !reflect.DeepEqual(before, value):
			fn(Event{Type: EventChanged, Key: key, Value: value, Previous: before})
		}
	}
	for key, before := range prev {
		if _, stillThere := current[key]; !stillThere {
			fn(Event{Type: EventRemoved, Key: key, Previous: before})
		}
	}
}
