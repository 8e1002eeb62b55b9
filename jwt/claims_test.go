package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPairInvariants(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	access, refresh := NewPair("user-7", "guest", 15*time.Minute, 24*time.Hour, now)

	require.True(t, access.IsType(TokenAccess))
	require.True(t, refresh.IsType(TokenRefresh))
	assert.False(t, access.IsType(TokenRefresh))

	// Pair shares subject and issued-at; only expiry differs.
	assert.Equal(t, access.Subject, refresh.Subject)
	assert.Equal(t, access.IssuedAt.Unix(), refresh.IssuedAt.Unix())
	assert.Equal(t, now.Add(15*time.Minute).Unix(), access.ExpiresAt.Unix())
	assert.Equal(t, now.Add(24*time.Hour).Unix(), refresh.ExpiresAt.Unix())

	// Token ids are distinct and cross-referenced.
	require.NotEmpty(t, access.ID)
	require.NotEmpty(t, refresh.ID)
	assert.NotEqual(t, access.ID, refresh.ID)
	assert.Equal(t, refresh.ID, access.PairedTokenID)
	assert.Equal(t, access.ID, refresh.PairedTokenID)

	// Only the refresh side records the paired expiry.
	assert.Equal(t, access.ExpiresAt.Unix(), refresh.PairedExpiresAt)
	assert.Zero(t, access.PairedExpiresAt)
}

func TestNewPairIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		access, refresh := NewPair("u", "", time.Minute, time.Hour, time.Now())
		require.False(t, seen[access.ID])
		require.False(t, seen[refresh.ID])
		seen[access.ID] = true
		seen[refresh.ID] = true
	}
}

func TestHasAdminRole(t *testing.T) {
	cases := []struct {
		roles string
		want  bool
	}{
		{"", false},
		{"guest", false},
		{"admin", true},
		{"guest,admin", true},
		{"guest, admin ", true},
		{" admin ,guest", true},
		{"administrator", false},
		{"guest,admin2", false},
	}

	for _, tc := range cases {
		c := &Claims{Roles: tc.roles}
		assert.Equal(t, tc.want, c.HasAdminRole(), "roles=%q", tc.roles)
	}
}

func TestRoleList(t *testing.T) {
	c := &Claims{Roles: " admin , guest ,,ops"}
	assert.Equal(t, []string{"admin", "guest", "ops"}, c.RoleList())

	var nilClaims *Claims
	assert.Nil(t, nilClaims.RoleList())
	assert.False(t, nilClaims.HasAdminRole())
	assert.False(t, nilClaims.IsType(TokenAccess))
}
