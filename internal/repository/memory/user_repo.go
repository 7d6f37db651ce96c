package memory

import (
	"context"
	"sort"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// userRepository implements repository.UserRepository over the shared Store.
type userRepository struct {
	store *Store
}

// NewUserRepository creates an in-memory user repository.
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

// Create creates a new user, minting its ID and stamping timestamps.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = s.nextUserID
	s.nextUserID++

	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts

	s.users[user.ID] = copyUser(user)
	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

// GetByFirebaseUID retrieves a user by the external identity UID.
func (r *userRepository) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if uid == "" {
		return nil, repository.ErrNotFound
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.FirebaseUID == uid {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

// Update merges the given record over the stored one.
// The stored ID always wins; an ID smuggled inside the patch is ignored.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}

	updated := copyUser(user)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now()

	s.users[updated.ID] = updated
	user.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete deletes a user, cascading to the user's donor profile and all of
// the user's documents. The profile lookup is an O(n) scan over all
// profiles, acceptable at this scale. Donation records are kept.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)

	for pid, p := range s.profiles {
		if p.UserID == id {
			delete(s.profiles, pid)
		}
	}
	for did, d := range s.documents {
		if d.UserID == id {
			delete(s.documents, did)
		}
	}
	return nil
}

// List returns users matching the options, filtered then paginated.
func (r *userRepository) List(ctx context.Context, opts repository.UserListOptions) (*repository.ListResult[domain.User], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	excluded := make(map[domain.Role]bool, len(opts.ExcludeRoles))
	for _, role := range opts.ExcludeRoles {
		excluded[role] = true
	}
	only := make(map[domain.Role]bool, len(opts.OnlyRoles))
	for _, role := range opts.OnlyRoles {
		only[role] = true
	}

	s := r.store
	s.mu.RLock()
	filtered := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		if opts.Role != "" && u.Role != opts.Role {
			continue
		}
		if excluded[u.Role] {
			continue
		}
		if len(only) > 0 && !only[u.Role] {
			continue
		}
		filtered = append(filtered, copyUser(u))
	}
	s.mu.RUnlock()

	// Stable order: ascending ID, so pagination windows don't shift
	// between calls.
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })

	return &repository.ListResult[domain.User]{
		Items: repository.Paginate(filtered, opts.Page, opts.Limit),
		Total: int64(len(filtered)),
		Page:  opts.Page,
		Limit: opts.Limit,
	}, nil
}

// ExistsByUsername checks if a user with the given username exists.
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// ExistsByEmail checks if a user with the given email exists.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
