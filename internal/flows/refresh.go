package flows

import (
	"context"
	"errors"
	"time"

	"github.com/tokenward/tokenward/jwt"
	"github.com/tokenward/tokenward/revocation"
)

var errTokenType = errors.New("unexpected token type")

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureDecode
	RefreshFailureExpired
	// RefreshFailureRevoked includes reuse of a rotated-out refresh token,
	// which the previous rotation denylisted.
	RefreshFailureRevoked
	RefreshFailureStore
	RefreshFailureEncode
)

// RefreshResult carries either the freshly minted pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	UserID       string
	AccessToken  string
	RefreshToken string
}

// RefreshDeps captures refresh rotation dependencies.
type RefreshDeps struct {
	Parse             func(string) (*jwt.Claims, error)
	IsRevoked         func(context.Context, *jwt.Claims) (bool, error)
	Deny              func(context.Context, ...revocation.DeniedToken) error
	MintPair          func(subject, roles string) (string, string, error)
	Now               func() time.Time
	// Leeway mirrors the codec's expiry allowance. A paired access token
	// counts as live until expiry plus leeway, since the validator still
	// accepts it inside that window.
	Leeway            time.Duration
	ExpiredErr        error
	RevocationEnabled bool
}

// RunRefresh executes refresh-token rotation: decode and type-check the
// presented refresh token, run the revocation check, denylist the consumed
// pair, then mint a fresh pair for the same subject.
//
// The denylist write must be acknowledged before the new pair is minted
// and returned; otherwise a racing validate on the old access token could
// still succeed after the caller believes rotation occurred.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	claims, err := deps.Parse(refreshToken)
	if err != nil {
		if deps.ExpiredErr != nil && errors.Is(err, deps.ExpiredErr) {
			return RefreshResult{Failure: RefreshFailureExpired, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}
	if !claims.IsType(jwt.TokenRefresh) {
		return RefreshResult{Failure: RefreshFailureDecode, Err: errTokenType}
	}

	if deps.RevocationEnabled {
		revoked, err := deps.IsRevoked(ctx, claims)
		if err != nil {
			return RefreshResult{Failure: RefreshFailureStore, Err: err, UserID: claims.Subject}
		}
		if revoked {
			return RefreshResult{Failure: RefreshFailureRevoked, UserID: claims.Subject}
		}

		if err := deps.Deny(ctx, consumedPair(claims, deps.Now(), deps.Leeway)...); err != nil {
			return RefreshResult{Failure: RefreshFailureStore, Err: err, UserID: claims.Subject}
		}
	}

	access, refresh, err := deps.MintPair(claims.Subject, claims.Roles)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureEncode, Err: err, UserID: claims.Subject}
	}

	return RefreshResult{
		UserID:       claims.Subject,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}

// consumedPair lists the denylist entries for a consumed refresh token:
// always the refresh token itself, plus its paired access token unless
// that token is past expiry plus leeway. The validator accepts a token
// for leeway past its expiry, so an access token inside that window must
// still be denylisted or it would outlive its own rotation. Only beyond
// the window does denylisting buy nothing.
func consumedPair(claims *jwt.Claims, now time.Time, leeway time.Duration) []revocation.DeniedToken {
	entries := []revocation.DeniedToken{{
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}}
	if claims.PairedTokenID != "" && claims.PairedExpiresAt > now.Add(-leeway).Unix() {
		entries = append(entries, revocation.DeniedToken{
			TokenID:   claims.PairedTokenID,
			ExpiresAt: claims.PairedExpiresAt,
		})
	}
	return entries
}
