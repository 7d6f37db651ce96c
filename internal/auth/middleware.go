package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// Config contains configuration for the auth middleware.
type Config struct {
	// AllowAnonymous lets unauthenticated requests through without an
	// auth context. Handlers that require identity still reject them.
	AllowAnonymous bool

	// SkipPaths are paths that skip authentication entirely.
	SkipPaths []string
}

// DefaultConfig returns the default auth configuration.
func DefaultConfig() Config {
	return Config{
		AllowAnonymous: false,
		SkipPaths:      []string{"/health", "/metrics"},
	}
}

// Middleware creates an authentication middleware.
// It verifies the bearer token, resolves the effective permission, and
// attaches an AuthContext to the request.
func Middleware(verifier TokenVerifier, resolver *Resolver, config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check if path should skip authentication
			for _, path := range config.SkipPaths {
				if r.URL.Path == path {
					next.ServeHTTP(w, r)
					return
				}
			}

			rawToken := extractBearerToken(r)
			if rawToken == "" {
				if config.AllowAnonymous {
					next.ServeHTTP(w, r)
					return
				}
				writeAuthError(w, ErrMissingToken)
				return
			}

			identity, err := verifier.Verify(rawToken)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("token verification failed")
				writeAuthError(w, err)
				return
			}

			perm, err := resolver.Resolve(r.Context(), identity)
			if err != nil {
				log.Error().Err(err).Str("uid", identity.UID).Msg("permission resolution failed")
				writeAuthError(w, ErrInvalidToken)
				return
			}

			authCtx := &AuthContext{
				UserID:         perm.UserID,
				UID:            identity.UID,
				Email:          identity.Email,
				Role:           string(perm.Role),
				EffectiveAdmin: perm.Admin,
				Identity:       identity,
			}
			r = r.WithContext(context.WithValue(r.Context(), AuthContextKey, authCtx))
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin wraps a handler and rejects callers without effective
// admin privileges. An authenticated non-admin gets 403, which is a
// normal negative outcome rather than a verification failure.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := GetAuthContext(r.Context())
		if authCtx == nil {
			writeAuthError(w, ErrMissingToken)
			return
		}
		if !authCtx.EffectiveAdmin {
			writeAuthError(w, ErrAccessDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireActiveUser wraps a handler and rejects callers whose user
// record cannot authenticate (suspended or banned).
func RequireActiveUser(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r.Context())
			if authCtx == nil {
				writeAuthError(w, ErrMissingToken)
				return
			}
			user, err := users.GetByFirebaseUID(r.Context(), authCtx.UID)
			if err == nil && !user.CanAuthenticate() {
				writeAuthError(w, ErrAccountSuspended)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken pulls the token out of the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// writeAuthError writes a JSON error response.
func writeAuthError(w http.ResponseWriter, err error) {
	authErr := NewAuthError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(authErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   authErr.Code,
		"message": authErr.Message,
	})
}

// GetAuthContext retrieves the AuthContext from a request context.
func GetAuthContext(ctx context.Context) *AuthContext {
	if authCtx, ok := ctx.Value(AuthContextKey).(*AuthContext); ok {
		return authCtx
	}
	return nil
}

// RequireAuth is a helper to get auth context or return error.
func RequireAuth(ctx context.Context) (*AuthContext, error) {
	authCtx := GetAuthContext(ctx)
	if authCtx == nil {
		return nil, ErrMissingToken
	}
	return authCtx, nil
}

// CallerID returns the internal user ID of the caller, or zero.
func CallerID(ctx context.Context) int64 {
	if authCtx := GetAuthContext(ctx); authCtx != nil {
		return authCtx.UserID
	}
	return 0
}

// IsCallerAdmin reports whether the caller holds effective admin
// privileges.
func IsCallerAdmin(ctx context.Context) bool {
	if authCtx := GetAuthContext(ctx); authCtx != nil {
		return authCtx.EffectiveAdmin
	}
	return false
}
