package jwt

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-secret-at-least-32-bytes-long!!"),
		Leeway:        2 * time.Second,
	})
	require.NoError(t, err)
	return m
}

func TestSignParseRoundTrip(t *testing.T) {
	m := newTestManager(t)
	now := time.Now().Truncate(time.Second)

	access, refresh := NewPair("user-1", "admin, guest", time.Minute, time.Hour, now)

	for _, claims := range []*Claims{access, refresh} {
		signed, err := m.Sign(claims)
		require.NoError(t, err)
		require.NotEmpty(t, signed)

		parsed, err := m.Parse(signed)
		require.NoError(t, err)

		assert.Equal(t, claims.Type, parsed.Type)
		assert.Equal(t, claims.Subject, parsed.Subject)
		assert.Equal(t, claims.ID, parsed.ID)
		assert.Equal(t, claims.PairedTokenID, parsed.PairedTokenID)
		assert.Equal(t, claims.PairedExpiresAt, parsed.PairedExpiresAt)
		assert.Equal(t, claims.Roles, parsed.Roles)
		assert.Equal(t, claims.IssuedAt.Unix(), parsed.IssuedAt.Unix())
		assert.Equal(t, claims.ExpiresAt.Unix(), parsed.ExpiresAt.Unix())
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	m := newTestManager(t)
	access, _ := NewPair("user-1", "guest", time.Minute, time.Hour, time.Now())

	signed, err := m.Sign(access)
	require.NoError(t, err)

	// Flip one byte in each segment of the token.
	for _, idx := range []int{2, len(signed) / 2, len(signed) - 2} {
		raw := []byte(signed)
		if raw[idx] == 'A' {
			raw[idx] = 'B'
		} else {
			raw[idx] = 'A'
		}

		_, err := m.Parse(string(raw))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformed)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("another-secret-at-least-32-bytes!!!!"),
	})
	require.NoError(t, err)

	access, _ := NewPair("user-1", "guest", time.Minute, time.Hour, time.Now())
	signed, err := m.Sign(access)
	require.NoError(t, err)

	_, err = other.Parse(signed)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseExpiryBoundary(t *testing.T) {
	m, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-secret-at-least-32-bytes-long!!"),
	})
	require.NoError(t, err)

	// Minted in the past so the access token expired one second ago.
	minted := time.Now().Add(-time.Minute - time.Second)
	access, _ := NewPair("user-1", "guest", time.Minute, time.Hour, minted)

	signed, err := m.Sign(access)
	require.NoError(t, err)

	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrExpired)

	// The same token still decodes with expiry checking disabled.
	parsed, err := m.Parse(signed, WithoutExpiry())
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.Subject)
}

func TestParseLeewayToleratesSkew(t *testing.T) {
	m, err := NewManager(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-secret-at-least-32-bytes-long!!"),
		Leeway:        30 * time.Second,
	})
	require.NoError(t, err)

	minted := time.Now().Add(-time.Minute - 5*time.Second)
	access, _ := NewPair("user-1", "guest", time.Minute, time.Hour, minted)

	signed, err := m.Sign(access)
	require.NoError(t, err)

	_, err = m.Parse(signed)
	assert.NoError(t, err, "expiry within leeway should parse")
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	m, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	require.NoError(t, err)

	access, _ := NewPair("user-1", "admin", time.Minute, time.Hour, time.Now())
	signed, err := m.Sign(access)
	require.NoError(t, err)

	parsed, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, access.ID, parsed.ID)
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing hs256 secret", Config{SigningMethod: MethodHS256}},
		{"unknown method", Config{SigningMethod: "rs256", PrivateKey: []byte("x")}},
		{"negative leeway", Config{SigningMethod: MethodHS256, PrivateKey: []byte("x"), Leeway: -time.Second}},
		{"excessive leeway", Config{SigningMethod: MethodHS256, PrivateKey: []byte("x"), Leeway: 3 * time.Minute}},
		{"ed25519 missing public key", Config{SigningMethod: MethodEd25519}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewManager(tc.cfg)
			assert.Error(t, err)
		})
	}
}
