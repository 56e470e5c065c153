package tokenAuth

import (
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/tokenAuth/internal/audit"
	"github.com/MrEthical07/tokenAuth/internal/rate"
	"github.com/MrEthical07/tokenAuth/jwt"
	"github.com/MrEthical07/tokenAuth/password"
	"github.com/MrEthical07/tokenAuth/revocation"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// dummyPassword is hashed once per Build and verified for unknown usernames.
const dummyPassword = "tokenauth-timing-equalizer"

// Builder assembles an [Engine]. Each Builder can be built once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userStore   UserStore
	revocations revocation.Store
	hasher      password.Hasher
	auditSink   AuditSink
	logger      *zap.Logger
	now         func() time.Time

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the HS256 signing secret.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.JWT.Secret = cloneBytes(secret)
	return b
}

// WithRedis enables the Redis revocation store and the login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the account store. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithRevocationStore overrides the revocation backend chosen by Build.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.revocations = store
	return b
}

// WithHasher overrides the hasher derived from Config.Password.
func (b *Builder) WithHasher(h password.Hasher) *Builder {
	b.hasher = h
	return b
}

// WithAuditSink sets the audit destination. Audit must also be enabled in Config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. Defaults to zap.NewNop().
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for token timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.userStore == nil {
		return nil, errors.New("user store required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	jm, err := jwt.NewManager(jwt.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Now:    now,
	})
	if err != nil {
		return nil, err
	}

	hasher := b.hasher
	if hasher == nil {
		hasher, err = hasherFromConfig(cfg.Password)
		if err != nil {
			return nil, err
		}
	}
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}

	revocations := b.revocations
	switch {
	case revocations != nil:
	case b.redis != nil:
		revocations = revocation.NewRedis(b.redis,
			revocation.WithPrefix(cfg.Revocation.RedisPrefix),
			revocation.WithClock(now),
		)
	default:
		revocations = revocation.NewMemory()
	}

	var limiter *rate.Limiter
	if b.redis != nil && cfg.Security.EnableLoginThrottle {
		limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.Security.EnableIPThrottle,
			MaxAttempts:      cfg.Security.MaxLoginAttempts,
			Window:           cfg.Security.LoginCooldownDuration,
		})
	}

	sink := b.auditSink
	if sink == nil && cfg.Audit.Enabled {
		sink = NewZapSink(logger)
	}

	engine := &Engine{
		config:      cloneConfig(cfg),
		jwtManager:  jm,
		hasher:      hasher,
		dummyHash:   dummyHash,
		userStore:   b.userStore,
		revocations: revocations,
		rateLimiter: limiter,
		logger:      logger.Named("tokenauth"),
		now:         now,
		metrics:     NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink),
	}
	engine.initFlows()

	b.built = true

	return engine, nil
}

func hasherFromConfig(cfg PasswordConfig) (password.Hasher, error) {
	bc, err := password.NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	if cfg.Algorithm != PasswordArgon2id {
		// Verify reads argon2 parameters from each stored hash.
		ar, err := password.NewArgon2(password.DefaultArgon2Params())
		if err != nil {
			return nil, err
		}
		return password.Multi{Primary: bc, Others: []password.Hasher{ar}}, nil
	}

	ar, err := password.NewArgon2(password.Argon2Params{
		Memory:      cfg.Memory,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	return password.Multi{Primary: ar, Others: []password.Hasher{bc}}, nil
}
