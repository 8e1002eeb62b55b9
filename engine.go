package tokenward

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tokenward/tokenward/internal/flows"
	"github.com/tokenward/tokenward/jwt"
	"github.com/tokenward/tokenward/password"
	"github.com/tokenward/tokenward/revocation"
)

// Engine is the token authority: it orchestrates issuance, validation
// with revocation checking, refresh rotation, logout, and bulk
// revocation. Engine methods are safe to call from multiple goroutines
// after [Builder.Build]; the revocation store is the only shared mutable
// resource and it lives in Redis.
type Engine struct {
	config      Config
	jwtManager  *jwt.Manager
	revocations *revocation.Store
	directory   Directory
	hasher      *password.Hasher
	metrics     *Metrics
	flows       flows.Service
}

// RevocationEnabled reports whether the revocation machinery is consulted
// on validation, refresh, and logout.
func (e *Engine) RevocationEnabled() bool {
	return e != nil && e.config.Revocation.Enabled
}

// MetricsSnapshot copies the engine counters for exporters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e != nil {
		e.metrics.Inc(id)
	}
}

// Login authenticates a username/password pair against the user directory
// and mints a token pair. Unknown users, bad passwords, and inactive
// accounts all fail with [ErrWrongCredentials]; issuance writes nothing to
// the revocation store.
func (e *Engine) Login(ctx context.Context, username, password string) (TokenPair, error) {
	if e == nil || e.directory == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Login(ctx, username, password)
	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		return pair(res.AccessToken, res.RefreshToken), nil
	case flows.LoginFailureCredentials:
		e.metricInc(MetricLoginFailure)
		if ip := clientIPFromContext(ctx); ip != "" {
			log.Printf("tokenward: login rejected for %q from %s", username, ip)
		}
		return TokenPair{}, ErrWrongCredentials
	case flows.LoginFailureDirectory:
		e.metricInc(MetricDirectoryErrors)
		return TokenPair{}, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, res.Err)
	default:
		return TokenPair{}, fmt.Errorf("%w: %w", ErrTokenCreation, res.Err)
	}
}

// Issue mints a token pair for a known subject, for hosts that
// authenticate out-of-band. Unknown or inactive subjects fail with
// [ErrUserNotFound].
func (e *Engine) Issue(ctx context.Context, userID string) (TokenPair, error) {
	if e == nil || e.directory == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Issue(ctx, userID)
	switch res.Failure {
	case flows.LoginFailureNone:
		return pair(res.AccessToken, res.RefreshToken), nil
	case flows.LoginFailureCredentials:
		return TokenPair{}, ErrUserNotFound
	case flows.LoginFailureDirectory:
		e.metricInc(MetricDirectoryErrors)
		return TokenPair{}, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, res.Err)
	default:
		return TokenPair{}, fmt.Errorf("%w: %w", ErrTokenCreation, res.Err)
	}
}

// Validate verifies an access token: signature, expiry with leeway, type
// tag, and, when revocation tracking is enabled, the composed revocation
// check. Revoked tokens fail with [ErrWrongCredentials],
// indistinguishable from bad credentials at the boundary.
func (e *Engine) Validate(ctx context.Context, accessToken string) (*jwt.Claims, error) {
	return e.validate(ctx, accessToken, jwt.TokenAccess)
}

// ValidateRefresh verifies a refresh token with the same checks as
// [Engine.Validate].
func (e *Engine) ValidateRefresh(ctx context.Context, refreshToken string) (*jwt.Claims, error) {
	return e.validate(ctx, refreshToken, jwt.TokenRefresh)
}

func (e *Engine) validate(ctx context.Context, tokenStr string, expected jwt.TokenType) (*jwt.Claims, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}

	res := e.flows.Validate(ctx, tokenStr, expected)
	switch res.Failure {
	case flows.ValidateFailureNone:
		e.metricInc(MetricValidateSuccess)
		return res.Claims, nil
	case flows.ValidateFailureExpired:
		e.metricInc(MetricValidateRejected)
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, res.Err)
	case flows.ValidateFailureRevoked:
		e.metricInc(MetricValidateRevoked)
		return nil, ErrWrongCredentials
	case flows.ValidateFailureStore:
		e.metricInc(MetricStoreErrors)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	default:
		e.metricInc(MetricValidateRejected)
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, res.Err)
	}
}

// Refresh rotates a refresh token: the presented token and its still-live
// paired access token are denylisted, with the store write acknowledged,
// before a fresh pair for the same subject is minted and returned. A
// rotated-out refresh token presented again fails with
// [ErrWrongCredentials].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil || !e.flows.Initialized() {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refreshToken)
	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		return pair(res.AccessToken, res.RefreshToken), nil
	case flows.RefreshFailureExpired:
		e.metricInc(MetricRefreshRejected)
		return TokenPair{}, fmt.Errorf("%w: %w", ErrTokenExpired, res.Err)
	case flows.RefreshFailureRevoked:
		e.metricInc(MetricRefreshRevoked)
		return TokenPair{}, ErrWrongCredentials
	case flows.RefreshFailureStore:
		e.metricInc(MetricStoreErrors)
		return TokenPair{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	case flows.RefreshFailureEncode:
		return TokenPair{}, fmt.Errorf("%w: %w", ErrTokenCreation, res.Err)
	default:
		e.metricInc(MetricRefreshRejected)
		return TokenPair{}, fmt.Errorf("%w: %w", ErrInvalidToken, res.Err)
	}
}

// Logout denylists the presented refresh token and its still-live paired
// access token without minting a replacement. When revocation tracking is
// disabled it fails with [ErrRevocationDisabled] so callers never believe
// a logout succeeded while nothing was recorded.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, refreshToken)
	switch res.Failure {
	case flows.LogoutFailureNone:
		e.metricInc(MetricLogoutSuccess)
		return nil
	case flows.LogoutFailureDisabled:
		return ErrRevocationDisabled
	case flows.LogoutFailureExpired:
		e.metricInc(MetricLogoutRejected)
		return fmt.Errorf("%w: %w", ErrTokenExpired, res.Err)
	case flows.LogoutFailureRevoked:
		e.metricInc(MetricLogoutRejected)
		return ErrWrongCredentials
	case flows.LogoutFailureStore:
		e.metricInc(MetricStoreErrors)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	default:
		e.metricInc(MetricLogoutRejected)
		return fmt.Errorf("%w: %w", ErrInvalidToken, res.Err)
	}
}

// RevokeAll moves the global revocation epoch to now: every token issued
// at or before this moment becomes invalid on its next check, including
// tokens never explicitly denylisted. Idempotent; repeated calls only move
// the epoch forward.
func (e *Engine) RevokeAll(ctx context.Context) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	return e.revokeResult(e.flows.RevokeAll(ctx), MetricRevokeAll)
}

// RevokeUser moves one subject's revocation epoch to now. Whether the
// caller may target the subject (self vs admin) is enforced at the access
// control gate.
func (e *Engine) RevokeUser(ctx context.Context, userID string) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	return e.revokeResult(e.flows.RevokeUser(ctx, userID), MetricRevokeUser)
}

func (e *Engine) revokeResult(res flows.RevokeResult, metric MetricID) error {
	switch res.Failure {
	case flows.RevokeFailureNone:
		e.metricInc(metric)
		return nil
	case flows.RevokeFailureDisabled:
		return ErrRevocationDisabled
	default:
		e.metricInc(MetricStoreErrors)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	}
}

// Cleanup sweeps expired denylist entries and returns the count removed.
// Garbage collection only; correctness never depends on it.
func (e *Engine) Cleanup(ctx context.Context) (int, error) {
	if e == nil || !e.flows.Initialized() {
		return 0, ErrEngineNotReady
	}

	res := e.flows.Cleanup(ctx)
	switch res.Failure {
	case flows.RevokeFailureNone:
		e.metricInc(MetricCleanupRuns)
		e.metrics.Add(MetricCleanupRemoved, uint64(res.Removed))
		return res.Removed, nil
	case flows.RevokeFailureDisabled:
		return 0, ErrRevocationDisabled
	default:
		e.metricInc(MetricStoreErrors)
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	}
}

func (e *Engine) mintPair(subject, roles string) (string, string, error) {
	access, refresh := jwt.NewPair(subject, roles, e.config.JWT.AccessTTL, e.config.JWT.RefreshTTL, time.Now())
	signedAccess, err := e.jwtManager.Sign(access)
	if err != nil {
		return "", "", err
	}
	signedRefresh, err := e.jwtManager.Sign(refresh)
	if err != nil {
		return "", "", err
	}
	return signedAccess, signedRefresh, nil
}

func (e *Engine) buildFlows() flows.Service {
	parse := func(tokenStr string) (*jwt.Claims, error) {
		return e.jwtManager.Parse(tokenStr)
	}

	var isRevoked func(context.Context, *jwt.Claims) (bool, error)
	var deny func(context.Context, ...revocation.DeniedToken) error
	revokeDeps := flows.RevokeDeps{
		Now:               time.Now,
		RevocationEnabled: e.config.Revocation.Enabled,
	}
	if e.revocations != nil {
		isRevoked = e.revocations.IsRevoked
		deny = e.revocations.Deny
		revokeDeps.SetGlobalEpoch = e.revocations.SetGlobalEpoch
		revokeDeps.SetUserEpoch = e.revocations.SetUserEpoch
		// Denylist entries stay until expiry plus leeway has passed;
		// inside the leeway window the validator would still accept the
		// token, so a sweep must not free it early.
		revokeDeps.SweepExpired = func(ctx context.Context, now time.Time) (int, error) {
			return e.revocations.SweepExpired(ctx, now.Add(-e.config.JWT.Leeway))
		}
	}

	loginDeps := flows.LoginDeps{
		VerifyPassword: func(hash, pw string) (bool, error) {
			return e.hasher.Verify(hash, pw)
		},
		MintPair:    e.mintPair,
		NotFoundErr: ErrUserNotFound,
	}
	if e.directory != nil {
		loginDeps.FindByUsername = func(ctx context.Context, username string) (flows.UserRecord, error) {
			return userRecord(e.directory.FindByUsername(ctx, username))
		}
		loginDeps.FindByID = func(ctx context.Context, id string) (flows.UserRecord, error) {
			return userRecord(e.directory.FindByID(ctx, id))
		}
	}

	return flows.New(flows.Deps{
		Validate: flows.ValidateDeps{
			Parse:             parse,
			IsRevoked:         isRevoked,
			ExpiredErr:        jwt.ErrExpired,
			RevocationEnabled: e.config.Revocation.Enabled,
		},
		Refresh: flows.RefreshDeps{
			Parse:             parse,
			IsRevoked:         isRevoked,
			Deny:              deny,
			MintPair:          e.mintPair,
			Now:               time.Now,
			Leeway:            e.config.JWT.Leeway,
			ExpiredErr:        jwt.ErrExpired,
			RevocationEnabled: e.config.Revocation.Enabled,
		},
		Logout: flows.LogoutDeps{
			Parse:             parse,
			IsRevoked:         isRevoked,
			Deny:              deny,
			Now:               time.Now,
			Leeway:            e.config.JWT.Leeway,
			ExpiredErr:        jwt.ErrExpired,
			RevocationEnabled: e.config.Revocation.Enabled,
		},
		Revoke: revokeDeps,
		Login:  loginDeps,
	})
}

func userRecord(user User, err error) (flows.UserRecord, error) {
	if err != nil {
		return flows.UserRecord{}, err
	}
	return flows.UserRecord{
		ID:           user.ID,
		PasswordHash: user.PasswordHash,
		Roles:        user.Roles,
		Active:       user.Active,
	}, nil
}

func pair(access, refresh string) TokenPair {
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    BearerTokenType,
	}
}
