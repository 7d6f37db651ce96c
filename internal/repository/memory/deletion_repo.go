package memory

import (
	"context"
	"sort"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// deletionRequestRepository implements repository.DeletionRequestRepository.
type deletionRequestRepository struct {
	store *Store
}

// NewDeletionRequestRepository creates an in-memory deletion request repository.
func NewDeletionRequestRepository(store *Store) repository.DeletionRequestRepository {
	return &deletionRequestRepository{store: store}
}

// Create creates a new deletion request.
func (r *deletionRequestRepository) Create(ctx context.Context, req *domain.DeletionRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	req.ID = s.nextDeletionID
	s.nextDeletionID++

	ts := now()
	req.CreatedAt = ts
	req.UpdatedAt = ts

	s.deletions[req.ID] = copyDeletion(req)
	return nil
}

// GetByID retrieves a deletion request by ID.
func (r *deletionRequestRepository) GetByID(ctx context.Context, id int64) (*domain.DeletionRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.deletions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyDeletion(req), nil
}

// Update merges the given record over the stored one.
func (r *deletionRequestRepository) Update(ctx context.Context, req *domain.DeletionRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.deletions[req.ID]
	if !ok {
		return repository.ErrNotFound
	}

	updated := copyDeletion(req)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now()

	s.deletions[updated.ID] = updated
	req.UpdatedAt = updated.UpdatedAt
	return nil
}

// List returns deletion requests matching the options. Requester and target
// summaries are joined under the same lock so the view is consistent, and
// they are built from the redacted summary type: the password hash cannot
// cross this boundary.
func (r *deletionRequestRepository) List(ctx context.Context, opts repository.DeletionListOptions) (*repository.ListResult[domain.DeletionRequestDetail], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	filtered := make([]*domain.DeletionRequestDetail, 0, len(s.deletions))
	for _, req := range s.deletions {
		if opts.Status != "" && req.Status != opts.Status {
			continue
		}
		detail := &domain.DeletionRequestDetail{DeletionRequest: *copyDeletion(req)}
		if opts.IncludeRequester {
			if u, ok := s.users[req.RequesterID]; ok {
				detail.Requester = u.Summary()
			}
		}
		if opts.IncludeTarget {
			if u, ok := s.users[req.TargetUserID]; ok {
				detail.Target = u.Summary()
			}
		}
		filtered = append(filtered, detail)
	}
	s.mu.RUnlock()

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })

	return &repository.ListResult[domain.DeletionRequestDetail]{
		Items: repository.Paginate(filtered, opts.Page, opts.Limit),
		Total: int64(len(filtered)),
		Page:  opts.Page,
		Limit: opts.Limit,
	}, nil
}

// Ensure deletionRequestRepository implements the interface.
var _ repository.DeletionRequestRepository = (*deletionRequestRepository)(nil)
