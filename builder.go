package tokenward

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/tokenward/tokenward/jwt"
	"github.com/tokenward/tokenward/password"
	"github.com/tokenward/tokenward/revocation"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// [Builder.Build]; no I/O happens before the first engine method call.
type Builder struct {
	config    Config
	redis     *redis.Client
	directory Directory

	built bool
}

// New returns a builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration. The config is cloned;
// later mutation of cfg by the caller does not reach the engine.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the revocation store. Required
// when revocation tracking is enabled.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithDirectory sets the user directory consulted by Login and Issue.
// Engines built without one still serve the pure token operations.
func (b *Builder) WithDirectory(directory Directory) *Builder {
	b.directory = directory
	return b
}

// Build validates the configuration, wires the flow service, and returns
// a ready engine. A builder builds at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	manager, err := jwt.NewManager(jwt.Config{
		SigningMethod: b.config.JWT.SigningMethod,
		PrivateKey:    b.config.JWT.PrivateKey,
		PublicKey:     b.config.JWT.PublicKey,
		Leeway:        b.config.JWT.Leeway,
		Issuer:        b.config.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(b.config.Password)
	if err != nil {
		return nil, err
	}

	var store *revocation.Store
	if b.config.Revocation.Enabled {
		if b.redis == nil {
			return nil, errors.New("revocation tracking requires a redis client")
		}
		store = revocation.NewStore(b.redis, b.config.Revocation.KeyPrefix)
	}

	engine := &Engine{
		config:      b.config,
		jwtManager:  manager,
		revocations: store,
		directory:   b.directory,
		hasher:      hasher,
		metrics:     newMetrics(),
	}
	engine.flows = engine.buildFlows()

	b.built = true
	return engine, nil
}
