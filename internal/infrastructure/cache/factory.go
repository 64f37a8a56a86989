package cache

import (
	"go.uber.org/zap"
)

// Options selects and configures the asset cache
type Options struct {
	Enabled bool
	Redis   *RedisConfig // nil keeps the cache in memory
	Logger  *zap.Logger
}

// NewAssetCache returns a Redis cache when configured, falling back to an
// in-memory cache if Redis is unreachable. It returns nil when disabled.
func NewAssetCache(opts Options) AssetCache {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.Enabled {
		return nil
	}

	if opts.Redis != nil && opts.Redis.Host != "" {
		c, err := NewRedisAssetCache(*opts.Redis)
		if err == nil {
			logger.Info("Using Redis asset cache",
				zap.String("host", opts.Redis.Host),
				zap.Int("port", opts.Redis.Port))
			return c
		}
		logger.Warn("Redis unavailable, falling back to in-memory asset cache", zap.Error(err))
	}

	return NewInMemoryAssetCache(WithInMemoryLogger(logger))
}
