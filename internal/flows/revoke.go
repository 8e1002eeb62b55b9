package flows

import (
	"context"
	"time"
)

// RevokeFailureKind classifies bulk-revocation and cleanup failures.
type RevokeFailureKind int

const (
	RevokeFailureNone RevokeFailureKind = iota
	RevokeFailureStore
	RevokeFailureDisabled
)

// RevokeResult reports the outcome of revoke-all, revoke-user, or cleanup.
// Removed is meaningful for cleanup only.
type RevokeResult struct {
	Failure RevokeFailureKind
	Err     error
	Removed int
}

// RevokeDeps captures epoch and sweep dependencies.
type RevokeDeps struct {
	SetGlobalEpoch    func(context.Context, time.Time) error
	SetUserEpoch      func(context.Context, string, time.Time) error
	SweepExpired      func(context.Context, time.Time) (int, error)
	Now               func() time.Time
	RevocationEnabled bool
}

// RunRevokeAll moves the global revocation epoch to now, cutting every
// token issued at or before this moment. Idempotent; repeated calls only
// move the epoch forward.
func RunRevokeAll(ctx context.Context, deps RevokeDeps) RevokeResult {
	if !deps.RevocationEnabled {
		return RevokeResult{Failure: RevokeFailureDisabled}
	}
	if err := deps.SetGlobalEpoch(ctx, deps.Now()); err != nil {
		return RevokeResult{Failure: RevokeFailureStore, Err: err}
	}
	return RevokeResult{}
}

// RunRevokeUser moves one subject's revocation epoch to now. Caller
// authorization (self vs admin) is enforced at the gate, not here.
func RunRevokeUser(ctx context.Context, userID string, deps RevokeDeps) RevokeResult {
	if !deps.RevocationEnabled {
		return RevokeResult{Failure: RevokeFailureDisabled}
	}
	if err := deps.SetUserEpoch(ctx, userID, deps.Now()); err != nil {
		return RevokeResult{Failure: RevokeFailureStore, Err: err}
	}
	return RevokeResult{}
}

// RunCleanup sweeps expired denylist entries and reports the count removed.
func RunCleanup(ctx context.Context, deps RevokeDeps) RevokeResult {
	if !deps.RevocationEnabled {
		return RevokeResult{Failure: RevokeFailureDisabled}
	}
	removed, err := deps.SweepExpired(ctx, deps.Now())
	if err != nil {
		return RevokeResult{Failure: RevokeFailureStore, Err: err}
	}
	return RevokeResult{Removed: removed}
}
