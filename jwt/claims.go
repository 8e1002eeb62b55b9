package jwt

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access claims from refresh claims. It is carried
// as an explicit claim field; the token id itself is never type-prefixed.
type TokenType string

const (
	// TokenAccess marks the short-lived credential that authorizes API calls.
	TokenAccess TokenType = "access"
	// TokenRefresh marks the longer-lived credential exchanged for a new pair.
	TokenRefresh TokenType = "refresh"
)

// RoleAdmin is the role label that admits administrative operations.
const RoleAdmin = "admin"

// Claims is the signed claim set for either token variant.
//
// Subject, ID (the token id), IssuedAt and ExpiresAt live in the embedded
// RegisteredClaims. PairedTokenID references the counterpart token minted
// in the same batch. PairedExpiresAt is set on refresh claims only: it is
// the paired access token's expiry, needed at rotation time to decide
// whether that token still requires explicit denylisting.
type Claims struct {
	Type            TokenType `json:"typ"`
	PairedTokenID   string    `json:"pji,omitempty"`
	PairedExpiresAt int64     `json:"pex,omitempty"`
	Roles           string    `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// IsType reports whether the claim set carries the expected token type.
func (c *Claims) IsType(expected TokenType) bool {
	return c != nil && c.Type == expected
}

// HasAdminRole reports whether the admin role is present in the claim
// set's comma-separated role list. Labels are trimmed before comparison.
func (c *Claims) HasAdminRole() bool {
	return c.HasRole(RoleAdmin)
}

// HasRole reports membership of one role label in the claim set's roles.
func (c *Claims) HasRole(role string) bool {
	if c == nil || c.Roles == "" {
		return false
	}
	for _, r := range strings.Split(c.Roles, ",") {
		if strings.TrimSpace(r) == role {
			return true
		}
	}
	return false
}

// RoleList returns the trimmed role labels, dropping empty entries.
func (c *Claims) RoleList() []string {
	if c == nil || c.Roles == "" {
		return nil
	}
	parts := strings.Split(c.Roles, ",")
	roles := make([]string, 0, len(parts))
	for _, r := range parts {
		if trimmed := strings.TrimSpace(r); trimmed != "" {
			roles = append(roles, trimmed)
		}
	}
	return roles
}

// NewPair mints an access/refresh claim pair for subject. The pair shares
// issued-at and subject; only the expiries differ per the configured TTLs.
// Token ids are fresh random UUIDs, and each claim set references its
// counterpart through PairedTokenID.
func NewPair(subject, roles string, accessTTL, refreshTTL time.Duration, now time.Time) (*Claims, *Claims) {
	// JWT timestamps are unix seconds; truncate up front so minted claims
	// compare identically before and after a codec round-trip.
	now = now.Truncate(time.Second)
	accessID := uuid.NewString()
	refreshID := uuid.NewString()
	accessExpiry := now.Add(accessTTL)

	access := &Claims{
		Type:          TokenAccess,
		PairedTokenID: refreshID,
		Roles:         roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        accessID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
	}

	refresh := &Claims{
		Type:            TokenRefresh,
		PairedTokenID:   accessID,
		PairedExpiresAt: accessExpiry.Unix(),
		Roles:           roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        refreshID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(refreshTTL)),
		},
	}

	return access, refresh
}
