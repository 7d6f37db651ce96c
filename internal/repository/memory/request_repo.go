package memory

import (
	"context"
	"sort"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// emergencyRequestRepository implements repository.EmergencyRequestRepository.
type emergencyRequestRepository struct {
	store *Store
}

// NewEmergencyRequestRepository creates an in-memory request repository.
func NewEmergencyRequestRepository(store *Store) repository.EmergencyRequestRepository {
	return &emergencyRequestRepository{store: store}
}

// Create creates a new emergency request.
func (r *emergencyRequestRepository) Create(ctx context.Context, req *domain.EmergencyRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	req.ID = s.nextRequestID
	s.nextRequestID++

	ts := now()
	req.CreatedAt = ts
	req.UpdatedAt = ts

	s.requests[req.ID] = copyRequest(req)
	return nil
}

// GetByID retrieves a request by ID.
func (r *emergencyRequestRepository) GetByID(ctx context.Context, id int64) (*domain.EmergencyRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyRequest(req), nil
}

// Update merges the given record over the stored one.
func (r *emergencyRequestRepository) Update(ctx context.Context, req *domain.EmergencyRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.requests[req.ID]
	if !ok {
		return repository.ErrNotFound
	}

	updated := copyRequest(req)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now()

	s.requests[updated.ID] = updated
	req.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete deletes a request by ID.
func (r *emergencyRequestRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

// List returns requests matching the options.
func (r *emergencyRequestRepository) List(ctx context.Context, opts repository.RequestListOptions) (*repository.ListResult[domain.EmergencyRequest], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	filtered := make([]*domain.EmergencyRequest, 0, len(s.requests))
	for _, req := range s.requests {
		if opts.Status != "" && req.Status != opts.Status {
			continue
		}
		if opts.BloodType != "" && req.BloodType != opts.BloodType {
			continue
		}
		if opts.UrgencyLevel != "" && req.UrgencyLevel != opts.UrgencyLevel {
			continue
		}
		filtered = append(filtered, copyRequest(req))
	}
	s.mu.RUnlock()

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })

	return &repository.ListResult[domain.EmergencyRequest]{
		Items: repository.Paginate(filtered, opts.Page, opts.Limit),
		Total: int64(len(filtered)),
		Page:  opts.Page,
		Limit: opts.Limit,
	}, nil
}

// ListExpired returns non-terminal requests past their deadline.
func (r *emergencyRequestRepository) ListExpired(ctx context.Context, before time.Time, limit int) ([]*domain.EmergencyRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	var expired []*domain.EmergencyRequest
	for _, req := range s.requests {
		if req.Status.IsTerminal() {
			continue
		}
		if req.ExpiresAt.Before(before) {
			expired = append(expired, copyRequest(req))
		}
	}
	s.mu.RUnlock()

	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

// Ensure emergencyRequestRepository implements the interface.
var _ repository.EmergencyRequestRepository = (*emergencyRequestRepository)(nil)
