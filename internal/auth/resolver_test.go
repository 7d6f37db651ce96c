package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	cachememory "github.com/hemolink/hemolink/internal/cache/memory"
	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

func newTestCache() repository.Cache {
	return cachememory.NewCache()
}

// mockLookup is a UserLookup backed by a map, counting calls.
type mockLookup struct {
	users map[string]*domain.User
	calls int
	err   error
}

func (m *mockLookup) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[uid]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func TestIsEffectiveAdmin(t *testing.T) {
	adminClaim := &Identity{UID: "u", Claims: TokenClaims{Admin: true}}
	plainClaim := &Identity{UID: "u"}

	tests := []struct {
		name     string
		identity *Identity
		user     *domain.User
		want     bool
	}{
		{"no signals", plainClaim, &domain.User{Role: domain.RoleUser}, false},
		{"token claim only", adminClaim, &domain.User{Role: domain.RoleUser}, true},
		{"token claim without record", adminClaim, nil, true},
		{"is_admin flag only", plainClaim, &domain.User{IsAdmin: true, Role: domain.RoleUser}, true},
		{"admin role only", plainClaim, &domain.User{Role: domain.RoleAdmin}, true},
		{"superadmin role only", plainClaim, &domain.User{Role: domain.RoleSuperAdmin}, true},
		{"moderator is not admin", plainClaim, &domain.User{Role: domain.RoleModerator}, false},
		{"no record no claim", plainClaim, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEffectiveAdmin(tt.identity, tt.user); got != tt.want {
				t.Errorf("IsEffectiveAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolverResolve(t *testing.T) {
	lookup := &mockLookup{users: map[string]*domain.User{
		"uid-1": {ID: 42, Role: domain.RoleDonor, FirebaseUID: "uid-1"},
	}}
	resolver := NewResolver(lookup, time.Minute)

	perm, err := resolver.Resolve(context.Background(), &Identity{UID: "uid-1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if perm.UserID != 42 {
		t.Errorf("expected user ID 42, got %d", perm.UserID)
	}
	if perm.Role != domain.RoleDonor {
		t.Errorf("expected role donor, got %s", perm.Role)
	}
	if perm.Admin {
		t.Error("expected no admin privileges")
	}
}

func TestResolverMissingUserIsNotAnError(t *testing.T) {
	resolver := NewResolver(&mockLookup{users: map[string]*domain.User{}}, 0)

	perm, err := resolver.Resolve(context.Background(), &Identity{UID: "unknown", Claims: TokenClaims{Admin: true}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if perm.UserID != 0 {
		t.Errorf("expected zero user ID, got %d", perm.UserID)
	}
	if !perm.Admin {
		t.Error("expected token claim to grant admin without a record")
	}
}

func TestResolverLookupErrorPropagates(t *testing.T) {
	wantErr := errors.New("store down")
	resolver := NewResolver(&mockLookup{err: wantErr}, 0)

	if _, err := resolver.Resolve(context.Background(), &Identity{UID: "uid-1"}); !errors.Is(err, wantErr) {
		t.Errorf("expected lookup error to propagate, got %v", err)
	}
}

func TestResolverCachesWithinTTL(t *testing.T) {
	lookup := &mockLookup{users: map[string]*domain.User{
		"uid-1": {ID: 1, Role: domain.RoleUser},
	}}
	resolver := NewResolver(lookup, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := resolver.Resolve(context.Background(), &Identity{UID: "uid-1"}); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if lookup.calls != 1 {
		t.Errorf("expected 1 lookup with warm cache, got %d", lookup.calls)
	}

	resolver.Invalidate("uid-1")
	if _, err := resolver.Resolve(context.Background(), &Identity{UID: "uid-1"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if lookup.calls != 2 {
		t.Errorf("expected invalidation to force a re-read, got %d calls", lookup.calls)
	}
}

func TestResolverZeroTTLDisablesCache(t *testing.T) {
	lookup := &mockLookup{users: map[string]*domain.User{
		"uid-1": {ID: 1, Role: domain.RoleUser},
	}}
	resolver := NewResolver(lookup, 0)

	for i := 0; i < 2; i++ {
		if _, err := resolver.Resolve(context.Background(), &Identity{UID: "uid-1"}); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if lookup.calls != 2 {
		t.Errorf("expected every resolve to hit the lookup, got %d calls", lookup.calls)
	}
}

func TestCachedLookup(t *testing.T) {
	inner := &mockLookup{users: map[string]*domain.User{
		"uid-1": {ID: 7, Role: domain.RoleDonor, FirebaseUID: "uid-1"},
	}}
	cached := NewCachedLookup(inner, newTestCache(), time.Minute)

	for i := 0; i < 3; i++ {
		user, err := cached.GetByFirebaseUID(context.Background(), "uid-1")
		if err != nil {
			t.Fatalf("GetByFirebaseUID: %v", err)
		}
		if user.ID != 7 {
			t.Errorf("expected user ID 7, got %d", user.ID)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner lookup, got %d", inner.calls)
	}

	// Misses are never cached
	if _, err := cached.GetByFirebaseUID(context.Background(), "absent"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := cached.GetByFirebaseUID(context.Background(), "absent"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected misses to reach the inner lookup every time, got %d calls", inner.calls)
	}

	cached.Invalidate(context.Background(), "uid-1")
	if _, err := cached.GetByFirebaseUID(context.Background(), "uid-1"); err != nil {
		t.Fatalf("GetByFirebaseUID: %v", err)
	}
	if inner.calls != 4 {
		t.Errorf("expected invalidation to force a re-read, got %d calls", inner.calls)
	}
}
