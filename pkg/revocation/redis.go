package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the slice of go-redis we actually use.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps revoked jtis as redis keys whose TTL equals the token's
// remaining lifetime, so expiry needs no sweeping at all.
type RedisStore struct {
	client redisClient
}

func NewRedisStore(client redisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// The token is already past its expiry, nothing to shadow.
		return nil
	}
	return r.client.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

func (r *RedisStore) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func revokedKey(jti string) string {
	return "revoked:" + jti
}
