package memory

import (
	"context"
	"sort"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// donationRepository implements repository.DonationRepository.
// Donation records are immutable: the interface has no update or delete.
type donationRepository struct {
	store *Store
}

// NewDonationRepository creates an in-memory donation record repository.
func NewDonationRepository(store *Store) repository.DonationRepository {
	return &donationRepository{store: store}
}

// Create creates a new donation record.
func (r *donationRepository) Create(ctx context.Context, rec *domain.DonationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextDonationID
	s.nextDonationID++
	rec.CreatedAt = now()

	s.donations[rec.ID] = copyDonation(rec)
	return nil
}

// GetByID retrieves a record by ID.
func (r *donationRepository) GetByID(ctx context.Context, id int64) (*domain.DonationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.donations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyDonation(rec), nil
}

// ListByDonorID returns all records for a donor, newest first.
func (r *donationRepository) ListByDonorID(ctx context.Context, donorID int64) ([]*domain.DonationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	var records []*domain.DonationRecord
	for _, rec := range s.donations {
		if rec.DonorID == donorID {
			records = append(records, copyDonation(rec))
		}
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].DonationDate.After(records[j].DonationDate)
	})
	return records, nil
}

// CountByDonorID returns the number of records for a donor.
func (r *donationRepository) CountByDonorID(ctx context.Context, donorID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.donations {
		if rec.DonorID == donorID {
			count++
		}
	}
	return count, nil
}

// Ensure donationRepository implements the interface.
var _ repository.DonationRepository = (*donationRepository)(nil)
