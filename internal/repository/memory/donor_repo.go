package memory

import (
	"context"
	"sort"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// donorProfileRepository implements repository.DonorProfileRepository.
type donorProfileRepository struct {
	store *Store
}

// NewDonorProfileRepository creates an in-memory donor profile repository.
func NewDonorProfileRepository(store *Store) repository.DonorProfileRepository {
	return &donorProfileRepository{store: store}
}

// Create creates a new donor profile.
func (r *donorProfileRepository) Create(ctx context.Context, profile *domain.DonorProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.ID = s.nextProfileID
	s.nextProfileID++

	ts := now()
	profile.CreatedAt = ts
	profile.UpdatedAt = ts

	s.profiles[profile.ID] = copyProfile(profile)
	return nil
}

// GetByID retrieves a profile by ID.
func (r *donorProfileRepository) GetByID(ctx context.Context, id int64) (*domain.DonorProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyProfile(p), nil
}

// GetByUserID retrieves the profile extending the given user.
func (r *donorProfileRepository) GetByUserID(ctx context.Context, userID int64) (*domain.DonorProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if p.UserID == userID {
			return copyProfile(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

// Update merges the given record over the stored one.
func (r *donorProfileRepository) Update(ctx context.Context, profile *domain.DonorProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.ID]
	if !ok {
		return repository.ErrNotFound
	}

	updated := copyProfile(profile)
	updated.ID = existing.ID
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now()

	s.profiles[updated.ID] = updated
	profile.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete deletes a profile by ID.
func (r *donorProfileRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}

// List returns profiles matching the options.
func (r *donorProfileRepository) List(ctx context.Context, opts repository.DonorListOptions) (*repository.ListResult[domain.DonorProfile], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	filtered := make([]*domain.DonorProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		if opts.VerificationStatus != "" && p.VerificationStatus != opts.VerificationStatus {
			continue
		}
		filtered = append(filtered, copyProfile(p))
	}
	s.mu.RUnlock()

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })

	return &repository.ListResult[domain.DonorProfile]{
		Items: repository.Paginate(filtered, opts.Page, opts.Limit),
		Total: int64(len(filtered)),
		Page:  opts.Page,
		Limit: opts.Limit,
	}, nil
}

// Ensure donorProfileRepository implements the interface.
var _ repository.DonorProfileRepository = (*donorProfileRepository)(nil)
