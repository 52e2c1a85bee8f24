package chatctx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTier backs the fast tier with a Redis instance.
type RedisTier struct {
	client *redis.Client
}

func NewRedisTier(addr, password string, db int) (*RedisTier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisTier{client: client}, nil
}

func (t *RedisTier) Get(ctx context.Context, key string) (string, error) {
	value, err := t.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	return value, err
}

func (t *RedisTier) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return t.client.Set(ctx, key, value, ttl).Err()
}

func (t *RedisTier) Delete(ctx context.Context, key string) error {
	return t.client.Del(ctx, key).Err()
}

func (t *RedisTier) Close() error {
	return t.client.Close()
}

// NilFastTier is the fast tier used when no Redis address is configured.
// Every read misses, so the cache always resolves against the store.
type NilFastTier struct{}

func (NilFastTier) Get(context.Context, string) (string, error) {
	return "", ErrCacheMiss
}

func (NilFastTier) Set(context.Context, string, string, time.Duration) error {
	return nil
}

func (NilFastTier) Delete(context.Context, string) error {
	return nil
}

func (NilFastTier) Close() error {
	return nil
}
