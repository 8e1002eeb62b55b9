package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tokenward/tokenward/jwt"
	"github.com/tokenward/tokenward/revocation"
)

func TestRunLogoutDenylistsConsumedPair(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	claims := refreshClaims(now, now.Add(time.Minute))

	var denied []revocation.DeniedToken
	deps := LogoutDeps{
		Parse:     func(string) (*jwt.Claims, error) { return claims, nil },
		IsRevoked: func(context.Context, *jwt.Claims) (bool, error) { return false, nil },
		Deny: func(_ context.Context, entries ...revocation.DeniedToken) error {
			denied = append(denied, entries...)
			return nil
		},
		Now:               func() time.Time { return now },
		ExpiredErr:        errExpiredSentinel,
		RevocationEnabled: true,
	}

	res := RunLogout(context.Background(), "tok", deps)
	if res.Failure != LogoutFailureNone {
		t.Fatalf("expected success, got %d: %v", res.Failure, res.Err)
	}
	if res.UserID != "u1" {
		t.Fatalf("expected user u1, got %s", res.UserID)
	}
	if len(denied) != 2 {
		t.Fatalf("expected both pair members denylisted, got %v", denied)
	}
}

func TestRunLogoutDenylistsPairedTokenInsideLeewayWindow(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	claims := refreshClaims(now, now.Add(-10*time.Second))

	var denied []revocation.DeniedToken
	deps := LogoutDeps{
		Parse:     func(string) (*jwt.Claims, error) { return claims, nil },
		IsRevoked: func(context.Context, *jwt.Claims) (bool, error) { return false, nil },
		Deny: func(_ context.Context, entries ...revocation.DeniedToken) error {
			denied = append(denied, entries...)
			return nil
		},
		Now:               func() time.Time { return now },
		Leeway:            30 * time.Second,
		ExpiredErr:        errExpiredSentinel,
		RevocationEnabled: true,
	}

	res := RunLogout(context.Background(), "tok", deps)
	if res.Failure != LogoutFailureNone {
		t.Fatalf("expected success, got %d: %v", res.Failure, res.Err)
	}
	if len(denied) != 2 || denied[1].TokenID != "access-1" {
		t.Fatalf("access token inside the leeway window must be denylisted, got %v", denied)
	}
}

func TestRunLogoutDisabledReportsNotSupported(t *testing.T) {
	deps := LogoutDeps{
		Parse: func(string) (*jwt.Claims, error) {
			t.Fatal("parse must not run when revocation is disabled")
			return nil, nil
		},
		RevocationEnabled: false,
	}

	res := RunLogout(context.Background(), "tok", deps)
	if res.Failure != LogoutFailureDisabled {
		t.Fatalf("expected disabled failure, got %d", res.Failure)
	}
}

func TestRunLogoutAlreadyRevoked(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	claims := refreshClaims(now, now.Add(time.Minute))

	deps := LogoutDeps{
		Parse:             func(string) (*jwt.Claims, error) { return claims, nil },
		IsRevoked:         func(context.Context, *jwt.Claims) (bool, error) { return true, nil },
		Now:               func() time.Time { return now },
		RevocationEnabled: true,
	}

	res := RunLogout(context.Background(), "tok", deps)
	if res.Failure != LogoutFailureRevoked {
		t.Fatalf("expected revoked failure, got %d", res.Failure)
	}
}

func TestRunLogoutStoreError(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	claims := refreshClaims(now, now.Add(time.Minute))

	deps := LogoutDeps{
		Parse:     func(string) (*jwt.Claims, error) { return claims, nil },
		IsRevoked: func(context.Context, *jwt.Claims) (bool, error) { return false, nil },
		Deny: func(context.Context, ...revocation.DeniedToken) error {
			return errors.New("redis down")
		},
		Now:               func() time.Time { return now },
		RevocationEnabled: true,
	}

	res := RunLogout(context.Background(), "tok", deps)
	if res.Failure != LogoutFailureStore {
		t.Fatalf("expected store failure, got %d", res.Failure)
	}
}
