package cache

import (
	"context"
	"log/slog"

	"github.com/hitoshi/sporty/internal/config"
)

// New は設定に基づいてキャッシュプロバイダーを生成する。
// Redisが指定されていて接続できない場合はインメモリにフォールバックする。
func New(ctx context.Context, cfg *config.Config) Provider {
	if cfg.CacheProvider != "redis" {
		return NewMemoryCache()
	}

	redisCache, err := NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("redis unavailable, falling back to in-memory cache",
			slog.String("addr", cfg.RedisAddr),
			slog.String("error", err.Error()),
		)
		return NewMemoryCache()
	}

	return redisCache
}
