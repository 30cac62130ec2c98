package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/ports"
)

type localEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e localEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// LocalCache is the in-process session store used by the memory backend and
// the CLI. With maxEntries > 0 a Set of a new key on a full cache evicts the
// entry closest to expiry.
type LocalCache struct {
	mu         sync.Mutex
	data       map[string]localEntry
	maxEntries int
	now        func() time.Time
	log        *zap.Logger

	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewLocalCache sweeps expired entries every cleanupInterval; zero means one
// minute. maxEntries <= 0 disables the bound.
func NewLocalCache(cleanupInterval time.Duration, maxEntries int, log *zap.Logger) *LocalCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	c := &LocalCache{
		data:       make(map[string]localEntry),
		maxEntries: maxEntries,
		now:        time.Now,
		log:        log,
		stopCh:     make(chan struct{}),
	}
	go c.sweepLoop(cleanupInterval)

	log.Info("Memory session store initialized",
		zap.Duration("cleanup_interval", cleanupInterval),
		zap.Int("max_entries", maxEntries),
	)
	return c
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ports.ErrCacheMiss, key)
	}
	if entry.expired(c.now()) {
		delete(c.data, key)
		return "", fmt.Errorf("%w: %s expired", ports.ErrCacheMiss, key)
	}
	return string(entry.value), nil
}

func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = append([]byte(nil), v...)
	case string:
		data = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
		data = b
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry := localEntry{value: data}
	if expiration > 0 {
		entry.expiresAt = now.Add(expiration)
	}
	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.data[key] = entry
	return nil
}

// evictLocked drops expired entries and, if still full, the one expiring
// soonest. Entries without expiration go last.
func (c *LocalCache) evictLocked(now time.Time) {
	if c.sweepLocked(now) > 0 && len(c.data) < c.maxEntries {
		return
	}
	var (
		victim string
		soon   time.Time
	)
	for key, entry := range c.data {
		if victim == "" || (!entry.expiresAt.IsZero() && (soon.IsZero() || entry.expiresAt.Before(soon))) {
			victim, soon = key, entry.expiresAt
		}
	}
	delete(c.data, victim)
	c.log.Warn("Memory session store full, evicted session", zap.String("key", victim))
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Len counts live entries.
func (c *LocalCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for _, entry := range c.data {
		if !entry.expired(now) {
			n++
		}
	}
	return n
}

func (c *LocalCache) Ping() error {
	select {
	case <-c.stopCh:
		return fmt.Errorf("memory session store closed")
	default:
		return nil
	}
}

func (c *LocalCache) Close() error {
	c.closeOnce.Do(func() { close(c.stopCh) })
	return nil
}

func (c *LocalCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			n := c.sweepLocked(c.now())
			c.mu.Unlock()
			if n > 0 {
				c.log.Debug("Expired sessions removed", zap.Int("count", n))
			}
		case <-c.stopCh:
			return
		}
	}
}

func (c *LocalCache) sweepLocked(now time.Time) int {
	n := 0
	for key, entry := range c.data {
		if entry.expired(now) {
			delete(c.data, key)
			n++
		}
	}
	return n
}
