package tokenward

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"time"

	"github.com/tokenward/tokenward/jwt"
	"github.com/tokenward/tokenward/password"
)

// JWTConfig configures the token codec and the pair TTLs.
type JWTConfig struct {
	SigningMethod jwt.SigningMethod
	// PrivateKey is the HS256 secret or Ed25519 private key.
	PrivateKey []byte
	// PublicKey is the Ed25519 public key. Unused for HS256.
	PublicKey []byte
	// AccessTTL and RefreshTTL set the pair expiries. A pair shares
	// issued-at; only these TTLs differ between the two tokens.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Leeway is the clock-skew allowance for expiry validation.
	Leeway time.Duration
	Issuer string
}

// RevocationConfig switches and namespaces the revocation machinery.
type RevocationConfig struct {
	// Enabled is the single flag consulted uniformly by Validate,
	// ValidateRefresh, Refresh, and Logout. When false the engine runs in
	// stateless mode: signature+expiry only, and Logout/RevokeAll/
	// RevokeUser/Cleanup return ErrRevocationDisabled.
	Enabled bool
	// KeyPrefix namespaces all revocation keys in Redis.
	KeyPrefix string
}

// Config is the process-wide engine configuration: constructed once before
// [Builder.Build], immutable afterwards, injected rather than ambient so
// the engine stays testable with varied configurations.
type Config struct {
	JWT        JWTConfig
	Revocation RevocationConfig
	Password   password.Config
}

// DefaultConfig returns a validated baseline: a fresh Ed25519 key pair,
// 15m/168h TTLs, 30s leeway, and revocation tracking enabled. Hosts that
// need tokens to survive process restarts must supply their own keys.
func DefaultConfig() Config {
	cfg := Config{
		JWT: JWTConfig{
			SigningMethod: jwt.MethodEd25519,
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    168 * time.Hour,
			Leeway:        30 * time.Second,
		},
		Revocation: RevocationConfig{
			Enabled:   true,
			KeyPrefix: "tw",
		},
		Password: password.DefaultConfig(),
	}
	if pub, priv, err := ed25519.GenerateKey(rand.Reader); err == nil {
		cfg.JWT.PrivateKey = priv
		cfg.JWT.PublicKey = pub
	}
	return cfg
}

// StatelessConfig returns DefaultConfig with revocation tracking disabled:
// tokens are valid purely by signature and expiry.
func StatelessConfig() Config {
	cfg := DefaultConfig()
	cfg.Revocation.Enabled = false
	return cfg
}

// Validate checks the configuration invariants shared by every preset.
// Codec key material is validated by the codec itself at Build.
func (c Config) Validate() error {
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("leeway out of range")
	}
	if c.Revocation.Enabled && c.Revocation.KeyPrefix == "" {
		return errors.New("revocation key prefix required")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	cloned := cfg
	cloned.JWT.PrivateKey = append([]byte(nil), cfg.JWT.PrivateKey...)
	cloned.JWT.PublicKey = append([]byte(nil), cfg.JWT.PublicKey...)
	return cloned
}
