package certval

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"credlink/internal/domain"
	"credlink/internal/usecase"
)

const redisKeyPrefix = "credlink:chain:"

// RedisCache shares chain verdicts across engine instances. Marshalling
// errors and server failures degrade to cache misses; validation is
// idempotent to recompute.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, fingerprint string) (*domain.ChainValidationResult, bool, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+fingerprint).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var result domain.ChainValidationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

func (c *RedisCache) Put(ctx context.Context, fingerprint string, result domain.ChainValidationResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKeyPrefix+fingerprint, raw, ttl).Err()
}

var _ usecase.ValidationCache = (*RedisCache)(nil)
