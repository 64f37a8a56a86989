package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultAssetKeyPrefix = "crm:asset:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisAssetCache implements AssetCache using Redis, so assets are shared
// between server instances
type RedisAssetCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisAssetCache connects to Redis and verifies the connection
func NewRedisAssetCache(cfg RedisConfig) (*RedisAssetCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisAssetCacheWithClient(client, ""), nil
}

// NewRedisAssetCacheWithClient creates a cache with an existing Redis client
func NewRedisAssetCacheWithClient(client *redis.Client, keyPrefix string) *RedisAssetCache {
	if keyPrefix == "" {
		keyPrefix = defaultAssetKeyPrefix
	}
	return &RedisAssetCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Key returns the Redis key used for url
func (c *RedisAssetCache) Key(url string) string {
	return assetKey(c.keyPrefix, url)
}

// Get returns cached bytes for url
func (c *RedisAssetCache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.Key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read asset from cache: %w", err)
	}
	return data, true, nil
}

// Set stores bytes for url with a TTL
func (c *RedisAssetCache) Set(ctx context.Context, url string, data []byte, ttl time.Duration) error {
	if len(data) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultAssetTTL
	}
	if err := c.client.Set(ctx, c.Key(url), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write asset to cache: %w", err)
	}
	return nil
}

// Delete removes url from the cache
func (c *RedisAssetCache) Delete(ctx context.Context, url string) error {
	if err := c.client.Del(ctx, c.Key(url)).Err(); err != nil {
		return fmt.Errorf("failed to delete asset from cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisAssetCache) Close() error {
	return c.client.Close()
}

var _ AssetCache = (*RedisAssetCache)(nil)
