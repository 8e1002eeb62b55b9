package flows

import (
	"context"
	"errors"
	"time"

	"github.com/tokenward/tokenward/jwt"
	"github.com/tokenward/tokenward/revocation"
)

// LogoutFailureKind classifies logout failures for root-level mapping.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureDecode
	LogoutFailureExpired
	LogoutFailureRevoked
	LogoutFailureStore
	// LogoutFailureDisabled is returned when revocation tracking is off.
	// Logout must report this rather than silently no-op, so a caller never
	// believes a logout succeeded while nothing was recorded.
	LogoutFailureDisabled
)

// LogoutResult reports the outcome of a logout attempt.
type LogoutResult struct {
	Failure LogoutFailureKind
	Err     error
	UserID  string
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Parse             func(string) (*jwt.Claims, error)
	IsRevoked         func(context.Context, *jwt.Claims) (bool, error)
	Deny              func(context.Context, ...revocation.DeniedToken) error
	Now               func() time.Time
	Leeway            time.Duration
	ExpiredErr        error
	RevocationEnabled bool
}

// RunLogout denylists the presented refresh token and its still-live
// paired access token. It is the revocation half of RunRefresh without the
// minting half.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) LogoutResult {
	if !deps.RevocationEnabled {
		return LogoutResult{Failure: LogoutFailureDisabled}
	}

	claims, err := deps.Parse(refreshToken)
	if err != nil {
		if deps.ExpiredErr != nil && errors.Is(err, deps.ExpiredErr) {
			return LogoutResult{Failure: LogoutFailureExpired, Err: err}
		}
		return LogoutResult{Failure: LogoutFailureDecode, Err: err}
	}
	if !claims.IsType(jwt.TokenRefresh) {
		return LogoutResult{Failure: LogoutFailureDecode, Err: errTokenType}
	}

	revoked, err := deps.IsRevoked(ctx, claims)
	if err != nil {
		return LogoutResult{Failure: LogoutFailureStore, Err: err, UserID: claims.Subject}
	}
	if revoked {
		return LogoutResult{Failure: LogoutFailureRevoked, UserID: claims.Subject}
	}

	if err := deps.Deny(ctx, consumedPair(claims, deps.Now(), deps.Leeway)...); err != nil {
		return LogoutResult{Failure: LogoutFailureStore, Err: err, UserID: claims.Subject}
	}

	return LogoutResult{UserID: claims.Subject}
}
