package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "aaa:revoked:"

// Redis is a Registry backed by a shared Redis instance, for deployments
// running more than one AAA replica. Entry expiry rides on native key TTLs.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis registry. An empty prefix uses "aaa:revoked:".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{
		client: client,
		prefix: prefix,
	}
}

// Add implements Registry. The reason is stored as the key's value for
// operator inspection.
func (r *Redis) Add(ctx context.Context, jti, reason string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.prefix+jti, reason, ttl).Err()
}

// Contains implements Registry.
func (r *Redis) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
