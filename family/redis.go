package family

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "aaa:"

// Redis is a Store backed by a shared Redis instance. Membership lives in a
// set per family; consumed flags are SETNX keys, whose first-writer-wins
// semantics carry the single-winner guarantee across replicas.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis store. An empty prefix uses "aaa:".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{
		client: client,
		prefix: prefix,
	}
}

func (r *Redis) familyKey(familyID string) string {
	return r.prefix + "family:" + familyID
}

func (r *Redis) consumedKey(jti string) string {
	return r.prefix + "consumed:" + jti
}

// AddMember implements Store. Members are stored as "jti@unix-expiry" so
// that readers can rebuild remaining TTLs; the set's own TTL is refreshed
// to the newest member's lifetime, which under rotation is always the
// latest refresh token.
func (r *Redis) AddMember(ctx context.Context, familyID string, member Member) error {
	ttl := time.Until(member.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	key := r.familyKey(familyID)
	if err := r.client.SAdd(ctx, key, encodeMember(member)).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, key, ttl).Err()
}

// Members implements Store.
func (r *Redis) Members(ctx context.Context, familyID string) ([]Member, error) {
	raw, err := r.client.SMembers(ctx, r.familyKey(familyID)).Result()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]Member, 0, len(raw))
	for _, item := range raw {
		member, err := decodeMember(item)
		if err != nil {
			return nil, err
		}
		if now.Before(member.ExpiresAt) {
			out = append(out, member)
		}
	}
	return out, nil
}

// Consume implements Store.
func (r *Redis) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return r.client.SetNX(ctx, r.consumedKey(jti), "1", ttl).Result()
}

// IsConsumed implements Store.
func (r *Redis) IsConsumed(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.consumedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func encodeMember(member Member) string {
	return fmt.Sprintf("%s@%d", member.JTI, member.ExpiresAt.Unix())
}

func decodeMember(raw string) (Member, error) {
	at := strings.LastIndexByte(raw, '@')
	if at <= 0 || at == len(raw)-1 {
		return Member{}, fmt.Errorf("corrupt family member entry %q", raw)
	}
	unix, err := strconv.ParseInt(raw[at+1:], 10, 64)
	if err != nil {
		return Member{}, fmt.Errorf("corrupt family member expiry %q", raw)
	}
	return Member{
		JTI:       raw[:at],
		ExpiresAt: time.Unix(unix, 0),
	}, nil
}
