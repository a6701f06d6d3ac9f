package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warp/rebate-engine/engine"
)

// RedisConfig configures the shared evaluation cache.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis stores JSON-encoded evaluations with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*Redis)(nil)

// NewRedis connects and pings. The caller owns Close.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisWithClient(client, cfg.TTL), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (engine.Evaluation, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return engine.Evaluation{}, false, nil
	}
	if err != nil {
		return engine.Evaluation{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var ev engine.Evaluation
	if err := json.Unmarshal(val, &ev); err != nil {
		// stale encoding; treat as a miss and let Set overwrite it
		return engine.Evaluation{}, false, nil
	}
	return ev, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, ev engine.Evaluation) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
