package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
)

// =============================================================================
// Effective Permission Resolution
// =============================================================================

// IsEffectiveAdmin reports whether the caller holds admin privileges.
//
// Admin status comes from three independent signals: the token admin
// claim, the IsAdmin flag on the user record, and the record role being
// admin or superadmin. Any one of them is sufficient. The signals can
// drift apart when one is updated and the others are not; the admin CLI
// repair-flags command reconciles them.
func IsEffectiveAdmin(identity *Identity, user *domain.User) bool {
	if identity != nil && identity.Claims.Admin {
		return true
	}
	if user == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	return user.Role.IsAdminRole()
}

// EffectivePermission describes the resolved access level of a caller.
type EffectivePermission struct {
	// UserID is the internal user ID. Zero when no record matched.
	UserID int64

	// Role is the role stored on the user record.
	Role domain.Role

	// Admin indicates effective admin privileges.
	Admin bool

	// ResolvedAt is when the signals were read.
	ResolvedAt time.Time
}

// UserLookup loads a user record by external identity identifier.
type UserLookup interface {
	GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error)
}

// Resolver resolves effective permissions for verified identities.
type Resolver struct {
	users    UserLookup
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]EffectivePermission
}

// NewResolver creates a permission resolver.
// cacheTTL bounds how long a resolved permission may be reused; zero
// disables caching.
func NewResolver(users UserLookup, cacheTTL time.Duration) *Resolver {
	return &Resolver{
		users:    users,
		cacheTTL: cacheTTL,
		cache:    make(map[string]EffectivePermission),
	}
}

// Resolve computes the effective permission for an identity.
// A missing user record is not an error: the identity is authenticated
// but has no privileges beyond its token claims.
func (r *Resolver) Resolve(ctx context.Context, identity *Identity) (EffectivePermission, error) {
	if cached, ok := r.cached(identity.UID); ok {
		return cached, nil
	}

	user, err := r.users.GetByFirebaseUID(ctx, identity.UID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return EffectivePermission{}, err
		}
		user = nil
	}

	perm := EffectivePermission{
		Admin:      IsEffectiveAdmin(identity, user),
		ResolvedAt: time.Now().UTC(),
	}
	if user != nil {
		perm.UserID = user.ID
		perm.Role = user.Role
	}

	r.store(identity.UID, perm)
	return perm, nil
}

// Invalidate drops any cached permission for the given identity.
// Called after role or flag changes so the next request re-reads state.
func (r *Resolver) Invalidate(uid string) {
	r.mu.Lock()
	delete(r.cache, uid)
	r.mu.Unlock()
}

func (r *Resolver) cached(uid string) (EffectivePermission, bool) {
	if r.cacheTTL <= 0 {
		return EffectivePermission{}, false
	}
	r.mu.RLock()
	perm, ok := r.cache[uid]
	r.mu.RUnlock()
	if !ok || time.Since(perm.ResolvedAt) > r.cacheTTL {
		return EffectivePermission{}, false
	}
	return perm, true
}

func (r *Resolver) store(uid string, perm EffectivePermission) {
	if r.cacheTTL <= 0 {
		return
	}
	r.mu.Lock()
	r.cache[uid] = perm
	r.mu.Unlock()
}

// =============================================================================
// Token Source
// =============================================================================

// TokenSource provides the current identity for a session and lets
// callers force a refresh when claims may be stale.
type TokenSource struct {
	verifier TokenVerifier

	mu       sync.RWMutex
	rawToken string
	identity *Identity
}

// NewTokenSource creates a token source over a raw token.
func NewTokenSource(verifier TokenVerifier, rawToken string) *TokenSource {
	return &TokenSource{verifier: verifier, rawToken: rawToken}
}

// CurrentIdentity returns the verified identity, verifying the token on
// first use.
func (ts *TokenSource) CurrentIdentity(ctx context.Context) (*Identity, error) {
	ts.mu.RLock()
	id := ts.identity
	ts.mu.RUnlock()
	if id != nil {
		return id, nil
	}
	return ts.Refresh(ctx)
}

// Refresh re-verifies the token, discarding any cached identity.
// Claims changed since the last verification become visible after this.
func (ts *TokenSource) Refresh(ctx context.Context) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := ts.verifier.Verify(ts.rawToken)
	if err != nil {
		return nil, err
	}

	ts.mu.Lock()
	ts.identity = id
	ts.mu.Unlock()
	return id, nil
}
