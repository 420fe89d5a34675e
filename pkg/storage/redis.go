package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-adp-client/pkg/config"
)

// RedisKV keeps entries in Redis under a key prefix, for consoles that share
// one session across several gateway instances.
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// NewRedisKV connects to Redis and wraps the client.
func NewRedisKV(cfg config.RedisConfig, prefix string) (*RedisKV, error) {
	client, err := NewRedis(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisKVFromClient(client, prefix), nil
}

// NewRedisKVFromClient wraps an existing client. A nil client behaves as an always-empty store.
func NewRedisKVFromClient(client *redis.Client, prefix string) *RedisKV {
	return &RedisKV{client: client, prefix: prefix}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	if r.client == nil {
		return "", miss()
	}
	raw, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", miss()
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *RedisKV) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
