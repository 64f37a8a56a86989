package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// cacheEntry wraps a cached value with expiration time
type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *cacheEntry) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// InMemoryAssetCache implements AssetCache in process memory
type InMemoryAssetCache struct {
	entries  sync.Map // map[string]*cacheEntry
	logger   *zap.Logger
	maxBytes int64
	size     int64
	stopCh   chan struct{}
	stopped  int32
	now      func() time.Time

	hits   int64
	misses int64
}

// InMemoryAssetCacheOption is a functional option for configuring the cache
type InMemoryAssetCacheOption func(*InMemoryAssetCache)

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryAssetCacheOption {
	return func(c *InMemoryAssetCache) {
		c.logger = logger
	}
}

// WithMaxBytes bounds the total cached bytes; new entries beyond it are skipped
func WithMaxBytes(n int64) InMemoryAssetCacheOption {
	return func(c *InMemoryAssetCache) {
		c.maxBytes = n
	}
}

// NewInMemoryAssetCache creates an in-memory cache with a background sweeper
func NewInMemoryAssetCache(opts ...InMemoryAssetCacheOption) *InMemoryAssetCache {
	c := &InMemoryAssetCache{
		logger:   zap.NewNop(),
		maxBytes: 32 << 20,
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired()

	return c
}

// Get returns cached bytes for url
func (c *InMemoryAssetCache) Get(_ context.Context, url string) ([]byte, bool, error) {
	if v, ok := c.entries.Load(url); ok {
		entry := v.(*cacheEntry)
		if !entry.isExpired(c.now()) {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, true, nil
		}
		c.remove(url)
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, false, nil
}

// Set stores bytes for url
func (c *InMemoryAssetCache) Set(_ context.Context, url string, data []byte, ttl time.Duration) error {
	if len(data) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultAssetTTL
	}
	if atomic.LoadInt64(&c.size)+int64(len(data)) > c.maxBytes {
		c.logger.Debug("Asset cache full, skipping entry",
			zap.String("url", url),
			zap.Int("bytes", len(data)))
		return nil
	}

	c.remove(url)
	c.entries.Store(url, &cacheEntry{value: data, expiresAt: c.now().Add(ttl)})
	atomic.AddInt64(&c.size, int64(len(data)))
	return nil
}

// Delete removes url from the cache
func (c *InMemoryAssetCache) Delete(_ context.Context, url string) error {
	c.remove(url)
	return nil
}

func (c *InMemoryAssetCache) remove(url string) {
	if v, loaded := c.entries.LoadAndDelete(url); loaded {
		atomic.AddInt64(&c.size, -int64(len(v.(*cacheEntry).value)))
	}
}

// Stats returns hit and miss counters
func (c *InMemoryAssetCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Size returns the number of cached bytes
func (c *InMemoryAssetCache) Size() int64 {
	return atomic.LoadInt64(&c.size)
}

// cleanupExpired periodically removes expired entries
func (c *InMemoryAssetCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := c.now()
			c.entries.Range(func(key, value any) bool {
				if value.(*cacheEntry).isExpired(now) {
					c.remove(key.(string))
				}
				return true
			})
		case <-c.stopCh:
			return
		}
	}
}

// Close stops the background sweeper
func (c *InMemoryAssetCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

var _ AssetCache = (*InMemoryAssetCache)(nil)
