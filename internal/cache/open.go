package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/trustcircle/config"
	"github.com/d60-Lab/trustcircle/internal/repository"
	"github.com/d60-Lab/trustcircle/internal/service"
)

// Open 按 circle.cache_backend 选择缓存实现；返回的 close 释放 redis 连接
func Open(ctx context.Context, cfg *config.Config, db *gorm.DB) (service.ContextCache, func() error, error) {
	switch cfg.Circle.CacheBackend {
	case "db":
		return repository.NewCircleCacheRepository(db), func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisContextCache(client, cfg.Circle.CacheTTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported circle cache backend %q", cfg.Circle.CacheBackend)
	}
}
