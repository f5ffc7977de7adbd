package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"retailpos/internal/domain/settings"
	"retailpos/pkg/logger"
)

const settingsKey = keyPrefix + "settings"

var _ settings.Store = (*SettingsCache)(nil)

// SettingsCache is a read-through Redis cache in front of a settings.Store.
// The whole key/value set lives in one hash that is dropped on every write.
// Redis failures degrade to reading the store directly.
type SettingsCache struct {
	store settings.Store
	rdb   *redis.Client
	ttl   time.Duration
}

// NewSettingsCache wraps store.
func NewSettingsCache(store settings.Store, rdb *redis.Client, ttl time.Duration) *SettingsCache {
	return &SettingsCache{store: store, rdb: rdb, ttl: ttl}
}

// Get returns a setting, filling the cache on a miss.
func (c *SettingsCache) Get(ctx context.Context, key string) (string, bool, error) {
	all, err := c.All(ctx)
	if err != nil {
		return "", false, err
	}
	v, ok := all[key]
	return v, ok, nil
}

// Set writes through to the store and invalidates the cache.
func (c *SettingsCache) Set(ctx context.Context, key, value string) error {
	if err := c.store.Set(ctx, key, value); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, settingsKey).Err(); err != nil {
		logger.Warn(ctx, "settings cache invalidation failed", "error", err)
	}
	return nil
}

// All returns every setting.
func (c *SettingsCache) All(ctx context.Context) (map[string]string, error) {
	cached, err := c.rdb.HGetAll(ctx, settingsKey).Result()
	if err == nil && len(cached) > 0 {
		return cached, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn(ctx, "settings cache read failed", "error", err)
	}

	all, err := c.store.All(ctx)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, all)
	return all, nil
}

func (c *SettingsCache) fill(ctx context.Context, all map[string]string) {
	if len(all) == 0 {
		return
	}
	values := make(map[string]any, len(all))
	for k, v := range all {
		values[k] = v
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, settingsKey, values)
		pipe.Expire(ctx, settingsKey, c.ttl)
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "settings cache fill failed", "error", err)
	}
}
