// Package auth provides identity token verification and effective
// permission resolution for Hemolink.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// =============================================================================
// Identity Types
// =============================================================================

// TokenClaims are the custom claims carried by a Hemolink identity token.
type TokenClaims struct {
	// Admin is the token-level admin claim. It is one of three signals
	// that grant effective admin privileges.
	Admin bool `json:"admin,omitempty"`

	// Role is an optional role hint embedded at token issue time. The
	// authoritative role lives on the user record; this claim is only
	// used for display before the record is loaded.
	Role string `json:"role,omitempty"`

	jwt.RegisteredClaims
}

// Identity represents a verified caller identity.
// It is produced by a TokenVerifier from a raw bearer token.
type Identity struct {
	// UID is the external identity identifier (the token subject).
	UID string

	// Email is the email address asserted by the identity provider.
	Email string

	// Claims are the custom claims attached to the token.
	Claims TokenClaims

	// IssuedAt is when the token was issued.
	IssuedAt time.Time

	// ExpiresAt is when the token expires.
	ExpiresAt time.Time
}

// HasAdminClaim reports whether the token carries the admin claim.
func (id *Identity) HasAdminClaim() bool {
	return id != nil && id.Claims.Admin
}

// =============================================================================
// Context Types
// =============================================================================

// AuthContext contains authentication information attached to a request.
// This is set by the auth middleware after successful verification.
type AuthContext struct {
	// UserID is the authenticated user's internal ID.
	// Zero when the identity has no matching user record.
	UserID int64

	// UID is the external identity identifier.
	UID string

	// Email is the verified email address.
	Email string

	// Role is the role stored on the user record.
	Role string

	// EffectiveAdmin indicates the caller holds admin privileges through
	// any of the recognized signals.
	EffectiveAdmin bool

	// Identity is the full verified identity.
	Identity *Identity
}

// authContextKey is the context key for AuthContext.
type authContextKey struct{}

// AuthContextKey is the key used to store AuthContext in request context.
var AuthContextKey = authContextKey{}
