package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenService(t *testing.T, issuer string, ttl time.Duration) *HMACTokenService {
	t.Helper()
	svc, err := NewHMACTokenService(testSecret, issuer, ttl)
	if err != nil {
		t.Fatalf("NewHMACTokenService: %v", err)
	}
	return svc
}

func TestNewHMACTokenServiceRejectsShortSecret(t *testing.T) {
	if _, err := NewHMACTokenService("short", "hemolink", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestTokenIssueVerifyRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, "hemolink", time.Hour)

	raw, err := svc.Issue("uid-123", "jordan@example.com", TokenClaims{Admin: true, Role: "admin"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	identity, err := svc.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if identity.UID != "uid-123" {
		t.Errorf("expected uid uid-123, got %s", identity.UID)
	}
	if identity.Email != "jordan@example.com" {
		t.Errorf("expected email claim to round-trip, got %q", identity.Email)
	}
	if !identity.Claims.Admin {
		t.Error("expected admin claim to round-trip")
	}
	if identity.Claims.Role != "admin" {
		t.Errorf("expected role hint to round-trip, got %q", identity.Claims.Role)
	}
}

func TestTokenVerifyFailures(t *testing.T) {
	svc := newTestTokenService(t, "hemolink", time.Hour)

	t.Run("empty token", func(t *testing.T) {
		if _, err := svc.Verify("  "); !errors.Is(err, ErrMissingToken) {
			t.Errorf("expected ErrMissingToken, got %v", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := svc.Verify("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := newTestTokenService(t, "hemolink", -time.Minute)
		raw, err := expired.Issue("uid-123", "", TokenClaims{})
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if _, err := svc.Verify(raw); !errors.Is(err, ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := newTestTokenService(t, "someone-else", time.Hour)
		raw, err := other.Issue("uid-123", "", TokenClaims{})
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if _, err := svc.Verify(raw); !errors.Is(err, ErrWrongIssuer) {
			t.Errorf("expected ErrWrongIssuer, got %v", err)
		}
	})

	t.Run("wrong signature", func(t *testing.T) {
		forged, err := NewHMACTokenService("ffffffffffffffffffffffffffffffff", "hemolink", time.Hour)
		if err != nil {
			t.Fatalf("NewHMACTokenService: %v", err)
		}
		raw, err := forged.Issue("uid-123", "", TokenClaims{})
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if _, err := svc.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestTokenSource(t *testing.T) {
	svc := newTestTokenService(t, "hemolink", time.Hour)
	raw, err := svc.Issue("uid-123", "casey@example.com", TokenClaims{Admin: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	ctx := context.Background()
	ts := NewTokenSource(svc, raw)

	id, err := ts.CurrentIdentity(ctx)
	if err != nil {
		t.Fatalf("CurrentIdentity: %v", err)
	}
	if id.UID != "uid-123" || !id.Claims.Admin {
		t.Errorf("unexpected identity: %+v", id)
	}

	// Cached after first use
	again, err := ts.CurrentIdentity(ctx)
	if err != nil {
		t.Fatalf("CurrentIdentity: %v", err)
	}
	if again != id {
		t.Error("expected cached identity on repeat call")
	}

	refreshed, err := ts.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed == id {
		t.Error("expected refresh to re-verify")
	}

	bad := NewTokenSource(svc, "garbage")
	if _, err := bad.CurrentIdentity(ctx); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
