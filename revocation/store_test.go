package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenward/tokenward/jwt"
)

func newTestStore(t *testing.T) (*Store, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb, "tw"), rdb
}

func TestGlobalEpochAbsentMeansNotRevoked(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	revoked, err := store.IsGloballyRevoked(ctx, time.Now())
	require.NoError(t, err)
	assert.False(t, revoked)

	_, ok, err := store.GlobalEpoch(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGlobalEpochCutsTokensIssuedBefore(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	epoch := time.Now().Truncate(time.Second)
	require.NoError(t, store.SetGlobalEpoch(ctx, epoch))

	before, err := store.IsGloballyRevoked(ctx, epoch.Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, before)

	at, err := store.IsGloballyRevoked(ctx, epoch)
	require.NoError(t, err)
	assert.True(t, at, "issued_at == epoch is revoked")

	after, err := store.IsGloballyRevoked(ctx, epoch.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, after)
}

func TestGlobalEpochOnlyMovesForward(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	later := time.Now()
	earlier := later.Add(-time.Hour)

	require.NoError(t, store.SetGlobalEpoch(ctx, later))
	require.NoError(t, store.SetGlobalEpoch(ctx, earlier))

	epoch, ok, err := store.GlobalEpoch(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, later.Unix(), epoch.Unix())
}

func TestUserEpochIsScoped(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	issuedAt := time.Now().Add(-time.Minute)
	require.NoError(t, store.SetUserEpoch(ctx, "user-a", time.Now()))

	revokedA, err := store.IsUserRevoked(ctx, "user-a", issuedAt)
	require.NoError(t, err)
	assert.True(t, revokedA)

	revokedB, err := store.IsUserRevoked(ctx, "user-b", issuedAt)
	require.NoError(t, err)
	assert.False(t, revokedB)
}

func TestDenyIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	exp := time.Now().Add(time.Hour).Unix()
	entry := DeniedToken{TokenID: "tok-1", ExpiresAt: exp}

	require.NoError(t, store.Deny(ctx, entry))
	require.NoError(t, store.Deny(ctx, entry))

	denied, err := store.IsDenied(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, denied)

	other, err := store.IsDenied(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, other)
}

func TestDenyNoEntriesIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Deny(context.Background()))
}

func TestSweepExpiredRemovesExactlyPastEntries(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Deny(ctx,
		DeniedToken{TokenID: "past-1", ExpiresAt: now.Add(-time.Hour).Unix()},
		DeniedToken{TokenID: "past-2", ExpiresAt: now.Add(-time.Second).Unix()},
		DeniedToken{TokenID: "future-1", ExpiresAt: now.Add(time.Hour).Unix()},
	))

	removed, err := store.SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// Future entry survives, swept entries are gone.
	denied, err := store.IsDenied(ctx, "future-1")
	require.NoError(t, err)
	assert.True(t, denied)
	denied, err = store.IsDenied(ctx, "past-1")
	require.NoError(t, err)
	assert.False(t, denied)

	// Second sweep finds nothing.
	removed, err = store.SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestSweepReclaimsCorruptEntries(t *testing.T) {
	store, rdb := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, rdb.HSet(ctx, "tw:revoked.tokens", "corrupt", "not-a-number").Err())

	removed, err := store.SweepExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestIsRevokedOrdering(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	access, _ := jwt.NewPair("user-a", "guest", time.Minute, time.Hour, now)

	revoked, err := store.IsRevoked(ctx, access)
	require.NoError(t, err)
	assert.False(t, revoked)

	// Denylist catches the precise token.
	require.NoError(t, store.Deny(ctx, DeniedToken{TokenID: access.ID, ExpiresAt: access.ExpiresAt.Unix()}))
	revoked, err = store.IsRevoked(ctx, access)
	require.NoError(t, err)
	assert.True(t, revoked)

	// A fresh token for the same user is untouched until an epoch lands.
	access2, _ := jwt.NewPair("user-a", "guest", time.Minute, time.Hour, now)
	revoked, err = store.IsRevoked(ctx, access2)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.SetUserEpoch(ctx, "user-a", now))
	revoked, err = store.IsRevoked(ctx, access2)
	require.NoError(t, err)
	assert.True(t, revoked)

	// Other users only fall to the global epoch.
	accessB, _ := jwt.NewPair("user-b", "guest", time.Minute, time.Hour, now)
	revoked, err = store.IsRevoked(ctx, accessB)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.SetGlobalEpoch(ctx, now))
	revoked, err = store.IsRevoked(ctx, accessB)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestStoreUnavailableFailsClosed(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "tw")
	ctx := context.Background()

	access, _ := jwt.NewPair("user-a", "guest", time.Minute, time.Hour, time.Now())

	mr.Close()

	_, err = store.IsRevoked(ctx, access)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = store.IsDenied(ctx, "tok")
	assert.ErrorIs(t, err, ErrUnavailable)

	err = store.SetGlobalEpoch(ctx, time.Now())
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = store.SweepExpired(ctx, time.Now())
	assert.ErrorIs(t, err, ErrUnavailable)
}
