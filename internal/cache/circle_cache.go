package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/trustcircle/internal/model"
	"github.com/d60-Lab/trustcircle/pkg/logger"
)

const keyPrefix = "circle:ctx:"

// RedisContextCache stores circle contexts as JSON values keyed by user id.
type RedisContextCache struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisContextCache builds a cache on the given client. ttl <= 0 keeps
// entries until they are invalidated.
func NewRedisContextCache(client *redis.Client, ttl time.Duration) *RedisContextCache {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisContextCache{client: client, ttl: ttl}
}

func key(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

func (c *RedisContextCache) Get(ctx context.Context, userID int64) (*model.CircleContext, bool, error) {
	data, err := c.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key(userID), err)
	}
	var out model.CircleContext
	if err := json.Unmarshal(data, &out); err != nil {
		c.misses.Add(1)
		logger.Warn("redis circle cache value corrupt, treating as miss",
			zap.Int64("user_id", userID), zap.String("key", key(userID)), zap.Error(err))
		return nil, false, nil
	}
	c.hits.Add(1)
	return &out, true, nil
}

func (c *RedisContextCache) Put(ctx context.Context, userID int64, cc *model.CircleContext) error {
	payload, err := json.Marshal(cc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(userID), payload, c.ttl).Err()
}

func (c *RedisContextCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = key(id)
	}
	return c.client.Del(ctx, keys...).Err()
}

// Counters reports cache hits and misses since creation.
func (c *RedisContextCache) Counters() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
