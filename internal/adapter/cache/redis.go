package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/outlet-kpi/internal/ports"
	"github.com/seu-repo/outlet-kpi/pkg/config"
)

// RedisCache implements ports.Cache on Redis. Calls go through a circuit
// breaker so a dead Redis fails fast instead of stalling uploads.
type RedisCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func NewRedisCache(cfg config.RedisConfig, cb config.CircuitBreakerConfig, log *zap.Logger) (ports.Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opts)

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Successfully connected to Redis", zap.String("addr", opts.Addr))
	return &RedisCache{
		client:  client,
		breaker: circuitbreaker.New("redis", cb, log),
		log:     log,
	}, nil
}

// do runs fn through the breaker. A cache miss is not a failure.
func (c *RedisCache) do(fn func() (interface{}, error)) (interface{}, error) {
	if c.breaker == nil {
		return fn()
	}
	var miss bool
	v, err := c.breaker.Execute(func() (interface{}, error) {
		v, err := fn()
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil, nil
		}
		return v, err
	})
	if miss {
		return nil, redis.Nil
	}
	return v, err
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.do(func() (interface{}, error) {
		return c.client.Get(ctx, key).Result()
	})
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", ports.ErrCacheMiss, key)
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	_, err := c.do(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, value, expiration).Err()
	})
	return err
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	_, err := c.do(func() (interface{}, error) {
		return nil, c.client.Del(ctx, key).Err()
	})
	return err
}

func (c *RedisCache) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
