package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier verifies raw bearer tokens and produces identities.
type TokenVerifier interface {
	// Verify checks the token signature, expiry, and issuer.
	Verify(rawToken string) (*Identity, error)
}

// TokenIssuer mints identity tokens. Used by the admin CLI and tests;
// production deployments typically verify tokens issued elsewhere.
type TokenIssuer interface {
	// Issue creates a signed token for the given subject.
	Issue(uid, email string, claims TokenClaims) (string, error)
}

// HMACTokenService verifies and issues HS256 identity tokens.
type HMACTokenService struct {
	secret   []byte
	issuer   string
	tokenTTL time.Duration
}

// Compile-time interface checks.
var (
	_ TokenVerifier = (*HMACTokenService)(nil)
	_ TokenIssuer   = (*HMACTokenService)(nil)
)

// NewHMACTokenService creates a token service with the given HMAC secret.
func NewHMACTokenService(secret, issuer string, tokenTTL time.Duration) (*HMACTokenService, error) {
	if len(secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	return &HMACTokenService{
		secret:   []byte(secret),
		issuer:   issuer,
		tokenTTL: tokenTTL,
	}, nil
}

// Verify checks the token signature, expiry, and issuer.
func (s *HMACTokenService) Verify(rawToken string) (*Identity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrMissingToken
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, ErrWrongIssuer
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	identity := &Identity{
		UID:    claims.Subject,
		Claims: *claims,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	// Email travels in the audience slot when present.
	if len(claims.Audience) > 0 {
		identity.Email = claims.Audience[0]
	}
	return identity, nil
}

// Issue creates a signed token for the given subject.
func (s *HMACTokenService) Issue(uid, email string, claims TokenClaims) (string, error) {
	if uid == "" {
		return "", errors.New("uid is required")
	}

	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	if email != "" {
		claims.Audience = jwt.ClaimStrings{email}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
