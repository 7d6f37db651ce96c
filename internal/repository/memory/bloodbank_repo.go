package memory

import (
	"context"
	"sort"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// bloodBankRepository implements repository.BloodBankRepository.
type bloodBankRepository struct {
	store *Store
}

// NewBloodBankRepository creates an in-memory blood bank repository.
func NewBloodBankRepository(store *Store) repository.BloodBankRepository {
	return &bloodBankRepository{store: store}
}

// Create creates a new blood bank.
func (r *bloodBankRepository) Create(ctx context.Context, bank *domain.BloodBank) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	bank.ID = s.nextBankID
	s.nextBankID++

	ts := now()
	bank.CreatedAt = ts
	bank.UpdatedAt = ts
	if bank.InventoryLevels == nil {
		bank.InventoryLevels = make(map[domain.BloodType]int)
	}

	s.banks[bank.ID] = copyBank(bank)
	return nil
}

// GetByID retrieves a bank by ID.
func (r *bloodBankRepository) GetByID(ctx context.Context, id int64) (*domain.BloodBank, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	bank, ok := s.banks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyBank(bank), nil
}

// Update merges the given record over the stored one.
func (r *bloodBankRepository) Update(ctx context.Context, bank *domain.BloodBank) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.banks[bank.ID]
	if !ok {
		return repository.ErrNotFound
	}

	updated := copyBank(bank)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now()

	s.banks[updated.ID] = updated
	bank.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete deletes a bank by ID.
func (r *bloodBankRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.banks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.banks, id)
	return nil
}

// List returns all banks, optionally restricted to active ones.
func (r *bloodBankRepository) List(ctx context.Context, activeOnly bool) ([]*domain.BloodBank, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	var banks []*domain.BloodBank
	for _, bank := range s.banks {
		if activeOnly && bank.Status != domain.BloodBankActive {
			continue
		}
		banks = append(banks, copyBank(bank))
	}
	s.mu.RUnlock()

	sort.Slice(banks, func(i, j int) bool { return banks[i].ID < banks[j].ID })
	return banks, nil
}

// Ensure bloodBankRepository implements the interface.
var _ repository.BloodBankRepository = (*bloodBankRepository)(nil)
