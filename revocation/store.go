// Package revocation is the key-value-backed bookkeeping of token
// invalidation facts: a global revocation epoch, per-user revocation
// epochs, and an explicit denylist of token ids with their original
// expiries.
//
// Claim sets themselves are never persisted. Only revocation facts are,
// and only until their natural expiry, after which [Store.SweepExpired]
// reclaims them.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tokenward/tokenward/jwt"
)

// ErrUnavailable reports that the backing store could not answer. Callers
// must fail closed: an unavailable store is never "not revoked".
var ErrUnavailable = errors.New("revocation store unavailable")

const (
	globalEpochKey = "revoke.global.before"
	userEpochKey   = "revoke.user.before"
	deniedKey      = "revoked.tokens"
)

// DeniedToken is one denylist entry: a token id and the token's original
// expiry, kept so sweeping knows when the entry stops mattering.
type DeniedToken struct {
	TokenID   string
	ExpiresAt int64
}

// Store tracks revocation state in Redis. All operations are single-key
// and rely only on Redis's per-command atomicity; see the package
// documentation for the tolerated race windows.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore returns a revocation store keyed under prefix (default "tw").
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "tw"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(name string) string {
	return s.prefix + ":" + name
}

// SetGlobalEpoch records t as the global revocation epoch. Every token
// issued at or before the epoch is invalid on its next check. The epoch
// only moves forward: an older t than the stored value is a no-op.
func (s *Store) SetGlobalEpoch(ctx context.Context, t time.Time) error {
	current, ok, err := s.GlobalEpoch(ctx)
	if err != nil {
		return err
	}
	if ok && !current.Before(t) {
		return nil
	}
	if err := s.client.Set(ctx, s.key(globalEpochKey), t.Unix(), 0).Err(); err != nil {
		return fmt.Errorf("%w: set global epoch: %w", ErrUnavailable, err)
	}
	return nil
}

// GlobalEpoch returns the stored global epoch and whether one exists.
func (s *Store) GlobalEpoch(ctx context.Context) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, s.key(globalEpochKey)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: get global epoch: %w", ErrUnavailable, err)
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: corrupt global epoch %q", ErrUnavailable, val)
	}
	return time.Unix(unix, 0), true, nil
}

// SetUserEpoch records t as userID's revocation epoch, same semantics as
// the global epoch but scoped to one subject.
func (s *Store) SetUserEpoch(ctx context.Context, userID string, t time.Time) error {
	current, ok, err := s.UserEpoch(ctx, userID)
	if err != nil {
		return err
	}
	if ok && !current.Before(t) {
		return nil
	}
	if err := s.client.HSet(ctx, s.key(userEpochKey), userID, t.Unix()).Err(); err != nil {
		return fmt.Errorf("%w: set user epoch: %w", ErrUnavailable, err)
	}
	return nil
}

// UserEpoch returns userID's epoch and whether one exists.
func (s *Store) UserEpoch(ctx context.Context, userID string) (time.Time, bool, error) {
	val, err := s.client.HGet(ctx, s.key(userEpochKey), userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: get user epoch: %w", ErrUnavailable, err)
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: corrupt user epoch %q", ErrUnavailable, val)
	}
	return time.Unix(unix, 0), true, nil
}

// IsGloballyRevoked reports whether a token issued at issuedAt falls at or
// before the global epoch. An absent epoch revokes nothing.
func (s *Store) IsGloballyRevoked(ctx context.Context, issuedAt time.Time) (bool, error) {
	epoch, ok, err := s.GlobalEpoch(ctx)
	if err != nil {
		return false, err
	}
	return ok && !issuedAt.After(epoch), nil
}

// IsUserRevoked reports whether a token of userID issued at issuedAt falls
// at or before that user's epoch.
func (s *Store) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	epoch, ok, err := s.UserEpoch(ctx, userID)
	if err != nil {
		return false, err
	}
	return ok && !issuedAt.After(epoch), nil
}

// Deny inserts one or more token ids into the denylist. Inserting an
// already-denied id is a no-op overwrite with the same expiry.
func (s *Store) Deny(ctx context.Context, tokens ...DeniedToken) error {
	if len(tokens) == 0 {
		return nil
	}
	pairs := make([]interface{}, 0, len(tokens)*2)
	for _, tok := range tokens {
		pairs = append(pairs, tok.TokenID, tok.ExpiresAt)
	}
	if err := s.client.HSet(ctx, s.key(deniedKey), pairs...).Err(); err != nil {
		return fmt.Errorf("%w: deny tokens: %w", ErrUnavailable, err)
	}
	return nil
}

// IsDenied reports denylist membership for one token id.
func (s *Store) IsDenied(ctx context.Context, tokenID string) (bool, error) {
	denied, err := s.client.HExists(ctx, s.key(deniedKey), tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("%w: denylist lookup: %w", ErrUnavailable, err)
	}
	return denied, nil
}

// SweepExpired deletes every denylist entry whose recorded expiry lies at
// or before cutoff and returns the count removed. Callers that validate
// with expiry leeway must back the cutoff off by that leeway, or a sweep
// could free a token the validator still accepts. The scan is not atomic
// with respect to concurrent inserts; that is fine because only entries
// past the cutoff (hence already-useless) are ever targeted. Entries with
// an unparsable expiry are reclaimed as garbage.
func (s *Store) SweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := s.client.HGetAll(ctx, s.key(deniedKey)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: denylist scan: %w", ErrUnavailable, err)
	}

	var expired []string
	cutoffUnix := cutoff.Unix()
	for tokenID, raw := range entries {
		exp, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil || exp <= cutoffUnix {
			expired = append(expired, tokenID)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	if err := s.client.HDel(ctx, s.key(deniedKey), expired...).Err(); err != nil {
		return 0, fmt.Errorf("%w: denylist sweep: %w", ErrUnavailable, err)
	}
	return len(expired), nil
}

// IsRevoked runs the composed revocation check for a claim set: global
// epoch, then per-user epoch, then the explicit denylist. The first
// positive short-circuits; the epoch checks are the cheap path and the
// denylist lookup is the fallback for precise single-token revocation.
func (s *Store) IsRevoked(ctx context.Context, claims *jwt.Claims) (bool, error) {
	if claims == nil || claims.IssuedAt == nil {
		return false, errors.New("claims missing issued-at")
	}
	issuedAt := claims.IssuedAt.Time

	revoked, err := s.IsGloballyRevoked(ctx, issuedAt)
	if err != nil || revoked {
		return revoked, err
	}
	revoked, err = s.IsUserRevoked(ctx, claims.Subject, issuedAt)
	if err != nil || revoked {
		return revoked, err
	}
	return s.IsDenied(ctx, claims.ID)
}
