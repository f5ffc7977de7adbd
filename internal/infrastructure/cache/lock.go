package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"retailpos/internal/core/apperror"
	"retailpos/internal/domain/sales"
	"retailpos/pkg/logger"
)

const (
	defaultLockTTL   = 10 * time.Second
	lockRetryEvery   = 100 * time.Millisecond
	lockKeyNamespace = keyPrefix + "lock:"
)

var _ sales.Locker = (*RedisLocker)(nil)

// RedisLocker implements sales.Locker with redislock. When Redis itself is
// unreachable the lock is skipped with a warning; the database transaction
// still guarantees stock consistency.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker. Locks expire after ttl if never released.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

// Obtain waits up to the lock TTL for key.
func (l *RedisLocker) Obtain(ctx context.Context, key string) (func(), error) {
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockRetryEvery), int(l.ttl/lockRetryEvery)),
	}

	lock, err := l.client.Obtain(ctx, lockKeyNamespace+key, l.ttl, opts)
	switch {
	case err == nil:
		return func() {
			// The request context may already be done when the caller releases.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			if rerr := lock.Release(releaseCtx); rerr != nil && !errors.Is(rerr, redislock.ErrLockNotHeld) {
				logger.Warn(ctx, "release lock failed", "key", key, "error", rerr)
			}
		}, nil
	case errors.Is(err, redislock.ErrNotObtained):
		return nil, apperror.NewConflict("another operation is in progress, retry").WithDetail("lock", key)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		logger.Warn(ctx, "redis lock unavailable, continuing without it", "key", key, "error", err)
		return func() {}, nil
	}
}
