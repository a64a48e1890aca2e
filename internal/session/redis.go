package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "portal:session:"

// RedisProvider keeps one hash per browser session and refreshes its TTL on every write.
type RedisProvider struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProvider(client *redis.Client, ttl time.Duration) *RedisProvider {
	return &RedisProvider{client: client, ttl: ttl}
}

func (p *RedisProvider) Scope(id string) KV {
	return &redisKV{p: p, key: redisKeyPrefix + id}
}

type redisKV struct {
	p   *RedisProvider
	key string
}

func (r *redisKV) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	vals, err := r.p.client.HMGet(ctx, r.key, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("hmget %s: %w", r.key, err)
	}
	out := make(map[string]string, len(keys))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

func (r *redisKV) Set(ctx context.Context, values map[string]string) error {
	fields := make(map[string]interface{}, len(values))
	for k, v := range values {
		fields[k] = v
	}
	_, err := r.p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, fields)
		if r.p.ttl > 0 {
			pipe.Expire(ctx, r.key, r.p.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("hset %s: %w", r.key, err)
	}
	return nil
}

func (r *redisKV) Delete(ctx context.Context, keys ...string) error {
	if err := r.p.client.HDel(ctx, r.key, keys...).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", r.key, err)
	}
	return nil
}
