//go:build integration

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/ports"
	"github.com/seu-repo/outlet-kpi/pkg/config"
)

// redisURL returns REDIS_URL when set (CI), otherwise starts a container.
func redisURL(t *testing.T) string {
	t.Helper()
	if url := os.Getenv("REDIS_URL"); url != "" {
		return url
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Redis container not available: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get redis connection string: %v", err)
	}
	return url
}

func TestRedisCache_Operations(t *testing.T) {
	ctx := context.Background()
	c, err := NewRedisCache(
		config.RedisConfig{URL: redisURL(t)},
		config.CircuitBreakerConfig{Enabled: true, MaxRequests: 3, Interval: time.Minute, Timeout: time.Second, FailureThreshold: 0.6},
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer c.Close()

	t.Run("SetGet", func(t *testing.T) {
		if err := c.Set(ctx, "test:key", "value", time.Minute); err != nil {
			t.Fatalf("Failed to set key: %v", err)
		}
		got, err := c.Get(ctx, "test:key")
		if err != nil {
			t.Fatalf("Failed to get key: %v", err)
		}
		if got != "value" {
			t.Errorf("Expected 'value', got '%s'", got)
		}
	})

	t.Run("MissDoesNotTripBreaker", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			if _, err := c.Get(ctx, "test:absent"); !errors.Is(err, ports.ErrCacheMiss) {
				t.Fatalf("Expected cache miss, got %v", err)
			}
		}
		if err := c.Set(ctx, "test:after-miss", "v", time.Minute); err != nil {
			t.Errorf("Expected breaker to stay closed, got %v", err)
		}
	})

	t.Run("Expiration", func(t *testing.T) {
		if err := c.Set(ctx, "test:expiring", "v", 100*time.Millisecond); err != nil {
			t.Fatalf("Failed to set key: %v", err)
		}
		time.Sleep(250 * time.Millisecond)
		if _, err := c.Get(ctx, "test:expiring"); !errors.Is(err, ports.ErrCacheMiss) {
			t.Errorf("Key should have expired, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		c.Set(ctx, "test:delete", "v", time.Minute)
		if err := c.Delete(ctx, "test:delete"); err != nil {
			t.Fatalf("Failed to delete key: %v", err)
		}
		if _, err := c.Get(ctx, "test:delete"); !errors.Is(err, ports.ErrCacheMiss) {
			t.Errorf("Key should have been deleted, got %v", err)
		}
	})

	if err := c.Ping(); err != nil {
		t.Errorf("Expected ping to succeed, got %v", err)
	}
}
