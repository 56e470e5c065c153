package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces revocation keys.
const DefaultRedisPrefix = "tar"

const (
	minRedisTTL = time.Second
	// redisTTLMargin keeps a key alive past exp despite millisecond rounding
	// of the TTL and clock skew between Redis and this process.
	redisTTLMargin = time.Second
)

// Redis stores one key per revoked token with a TTL reaching past the token's expiry.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// RedisOption customises a [Redis] store.
type RedisOption func(*Redis)

// WithPrefix overrides [DefaultRedisPrefix].
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithClock replaces time.Now when computing key TTLs.
func WithClock(now func() time.Time) RedisOption {
	return func(r *Redis) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRedis returns a store backed by client.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client, prefix: DefaultRedisPrefix, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Contains checks for the token's key.
func (r *Redis) Contains(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Revoke writes the token's key. Tokens already past expiresAt still get
// a short-lived key so a concurrent refresh observes the revocation.
func (r *Redis) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now()) + redisTTLMargin
	if ttl < minRedisTTL {
		ttl = minRedisTTL
	}
	if err := r.client.Set(ctx, r.key(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) key(token string) string {
	return r.prefix + ":" + Fingerprint(token)
}
