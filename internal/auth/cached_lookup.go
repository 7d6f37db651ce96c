package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// CachedLookup wraps a UserLookup with a shared cache so identity
// resolution does not hit the primary store on every request. In
// multi-instance deployments the cache is Redis and the entry is
// shared; single-node deployments use the in-memory cache.
//
// Only positive lookups are cached. A missing user record stays a
// repository round trip so a freshly created account is visible on its
// first authenticated request.
type CachedLookup struct {
	inner UserLookup
	cache repository.Cache
	ttl   time.Duration
}

var _ UserLookup = (*CachedLookup)(nil)

// NewCachedLookup creates a caching UserLookup. A zero ttl disables
// caching and every call goes to the inner lookup.
func NewCachedLookup(inner UserLookup, cache repository.Cache, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

// GetByFirebaseUID loads a user record, preferring the cache.
// Cache failures degrade to a direct lookup rather than failing auth.
func (l *CachedLookup) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	if l.ttl <= 0 || l.cache == nil {
		return l.inner.GetByFirebaseUID(ctx, uid)
	}

	key := lookupKey(uid)
	if data, err := l.cache.Get(ctx, key); err == nil {
		var user domain.User
		if err := json.Unmarshal(data, &user); err == nil {
			return &user, nil
		}
		// Corrupt entry, drop it and re-read.
		_ = l.cache.Delete(ctx, key)
	} else if !errors.Is(err, repository.ErrCacheMiss) && !errors.Is(err, repository.ErrCacheUnavailable) {
		return nil, err
	}

	user, err := l.inner.GetByFirebaseUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(user); err == nil {
		_ = l.cache.Set(ctx, key, data, l.ttl)
	}

	return user, nil
}

// Invalidate drops the cached record for an identity. Called after
// role or status changes so the next request re-reads the user.
func (l *CachedLookup) Invalidate(ctx context.Context, uid string) {
	if l.cache == nil {
		return
	}
	_ = l.cache.Delete(ctx, lookupKey(uid))
}

func lookupKey(uid string) string {
	return "auth:user:" + uid
}
