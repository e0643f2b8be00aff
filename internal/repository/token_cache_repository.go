package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"interactive-maps-server/config"
)

const defaultBearerKey = "identity:bearer_token"

type TokenCacheRepository struct {
	client *config.RedisClient
	key    string
}

func NewTokenCacheRepository(rdb *config.RedisClient, key string) *TokenCacheRepository {
	if key == "" {
		key = defaultBearerKey
	}
	return &TokenCacheRepository{rdb, key}
}

func (r *TokenCacheRepository) SetBearerToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("non-positive bearer token ttl %s", ttl)
	}

	cmd := r.client.Client.Set(ctx, r.key, token, ttl)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("saving to Redis failed: %w", err)
	}
	if cmd.Val() != "OK" {
		return fmt.Errorf("unexpected Redis reply: %s", cmd.Val())
	}

	return nil
}

// GetBearerToken : empty string without error on a cache miss
func (r *TokenCacheRepository) GetBearerToken(ctx context.Context) (string, error) {
	val, err := r.client.Client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("reading from Redis failed: %w", err)
	}
	return val, nil
}

func (r *TokenCacheRepository) DeleteBearerToken(ctx context.Context) error {
	if err := r.client.Client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("deleting from Redis failed: %w", err)
	}
	return nil
}
