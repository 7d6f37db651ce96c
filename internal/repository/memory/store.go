// Package memory provides the in-memory implementation of the Hemolink
// repositories. It is the primary store for single-node deployments and
// doubles as the mock backend in tests.
//
// All entity maps and ID counters are exclusively owned by the Store and
// guarded by a single RWMutex, so cross-entity operations (user deletion
// cascades, deletion-request joins) observe a consistent view. Concurrent
// updates to the same record are last-write-wins; there is no conflict
// detection.
package memory

import (
	"sync"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
)

// Store holds every entity map and its monotonic ID counter.
// IDs are minted per entity and never reused within a process lifetime.
type Store struct {
	mu sync.RWMutex

	users     map[int64]*domain.User
	profiles  map[int64]*domain.DonorProfile
	requests  map[int64]*domain.EmergencyRequest
	donations map[int64]*domain.DonationRecord
	documents map[int64]*domain.Document
	deletions map[int64]*domain.DeletionRequest
	banks     map[int64]*domain.BloodBank
	notifs    map[int64]*domain.Notification

	nextUserID      int64
	nextProfileID   int64
	nextRequestID   int64
	nextDonationID  int64
	nextDocumentID  int64
	nextDeletionID  int64
	nextBankID      int64
	nextNotifID     int64
}

// NewStore creates an empty Store with all counters starting at 1.
func NewStore() *Store {
	return &Store{
		users:     make(map[int64]*domain.User),
		profiles:  make(map[int64]*domain.DonorProfile),
		requests:  make(map[int64]*domain.EmergencyRequest),
		donations: make(map[int64]*domain.DonationRecord),
		documents: make(map[int64]*domain.Document),
		deletions: make(map[int64]*domain.DeletionRequest),
		banks:     make(map[int64]*domain.BloodBank),
		notifs:    make(map[int64]*domain.Notification),

		nextUserID:     1,
		nextProfileID:  1,
		nextRequestID:  1,
		nextDonationID: 1,
		nextDocumentID: 1,
		nextDeletionID: 1,
		nextBankID:     1,
		nextNotifID:    1,
	}
}

// now returns the store's notion of the current time.
func now() time.Time {
	return time.Now().UTC()
}

// =============================================================================
// Deep copies
// =============================================================================

// Records are copied both on insert and on return so nothing outside the
// store can mutate its maps through a shared pointer.

func copyUser(u *domain.User) *domain.User {
	c := *u
	if u.SuspendedUntil != nil {
		t := *u.SuspendedUntil
		c.SuspendedUntil = &t
	}
	if u.CreatedBy != nil {
		id := *u.CreatedBy
		c.CreatedBy = &id
	}
	return &c
}

func copyProfile(p *domain.DonorProfile) *domain.DonorProfile {
	c := *p
	if p.LastDonationDate != nil {
		t := *p.LastDonationDate
		c.LastDonationDate = &t
	}
	if p.NextEligibleDate != nil {
		t := *p.NextEligibleDate
		c.NextEligibleDate = &t
	}
	return &c
}

func copyRequest(r *domain.EmergencyRequest) *domain.EmergencyRequest {
	c := *r
	if r.RequesterID != nil {
		id := *r.RequesterID
		c.RequesterID = &id
	}
	if r.MatchedDonorIDs != nil {
		c.MatchedDonorIDs = append([]int64(nil), r.MatchedDonorIDs...)
	}
	return &c
}

func copyDonation(d *domain.DonationRecord) *domain.DonationRecord {
	c := *d
	if d.RequestID != nil {
		id := *d.RequestID
		c.RequestID = &id
	}
	return &c
}

func copyDocument(d *domain.Document) *domain.Document {
	c := *d
	return &c
}

func copyDeletion(d *domain.DeletionRequest) *domain.DeletionRequest {
	c := *d
	if d.ReviewedBy != nil {
		id := *d.ReviewedBy
		c.ReviewedBy = &id
	}
	return &c
}

func copyBank(b *domain.BloodBank) *domain.BloodBank {
	c := *b
	c.InventoryLevels = make(map[domain.BloodType]int, len(b.InventoryLevels))
	for bt, units := range b.InventoryLevels {
		c.InventoryLevels[bt] = units
	}
	if b.CreatedBy != nil {
		id := *b.CreatedBy
		c.CreatedBy = &id
	}
	return &c
}

func copyNotification(n *domain.Notification) *domain.Notification {
	c := *n
	return &c
}
