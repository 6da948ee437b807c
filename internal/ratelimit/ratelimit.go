// Package ratelimit throttles mutating requests per actor with a fixed window
// counter kept in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// WindowStore increments the counter for key inside a window and reports the
// new count together with the time left in the window.
type WindowStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisStore implements WindowStore with INCR and EXPIRE NX in one pipeline.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore wraps client; keys are namespaced with prefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	fullKey := s.prefix + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.ExpireNX(ctx, fullKey, window)
		ttl = pipe.PTTL(ctx, fullKey)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit incr: %w", err)
	}
	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return incr.Val(), remaining, nil
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter applies a per-key limit over a fixed window.
type Limiter struct {
	store  WindowStore
	limit  int
	window time.Duration
	logger *zap.Logger
}

// NewLimiter builds a limiter. A limit of zero or less allows everything.
func NewLimiter(store WindowStore, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{store: store, limit: limit, window: window, logger: logger}
}

// Allow counts one hit for key. Store failures fail open.
func (l *Limiter) Allow(ctx context.Context, key string) Decision {
	if l == nil || l.store == nil || l.limit <= 0 {
		return Decision{Allowed: true}
	}
	count, ttl, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		l.logger.Warn("rate limiter unavailable; allowing request", zap.String("key", key), zap.Error(err))
		return Decision{Allowed: true}
	}
	if count > int64(l.limit) {
		return Decision{Allowed: false, RetryAfter: ttl}
	}
	return Decision{Allowed: true, Remaining: l.limit - int(count)}
}

// Limit returns the configured per-window limit.
func (l *Limiter) Limit() int {
	if l == nil {
		return 0
	}
	return l.limit
}
