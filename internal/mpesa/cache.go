package mpesa

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores the Daraja bearer token between calls so every
// outbound request does not pay for a credential exchange.
type TokenCache interface {
	// Get returns the cached token, or "" on a miss.
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
}

const tokenKey = "mpesa:access_token"

// RedisTokenCache keeps the token in Redis with the configured TTL.
type RedisTokenCache struct {
	rdb *redis.Client
}

func NewRedisTokenCache(rdb *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{rdb: rdb}
}

var _ TokenCache = (*RedisTokenCache)(nil)

func (c *RedisTokenCache) Get(ctx context.Context) (string, error) {
	tok, err := c.rdb.Get(ctx, tokenKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return tok, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, tokenKey, token, ttl).Err()
}
