package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/ratelimit"
)

const redisStartupPingTimeout = 3 * time.Second

// Redis is the shared client behind the mutation rate limiter and the
// readiness probe. Every key the service writes goes under keyPrefix.
type Redis struct {
	Client    *redis.Client
	keyPrefix string
}

// NewRedis builds the client and checks reachability once. An unreachable
// server is logged, not fatal: the limiter fails open and readiness reports it.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisStartupPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable; rate limiting will fail open",
			zap.String("addr", cfg.Addr),
			zap.Error(err),
		)
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.String("key_prefix", cfg.KeyPrefix))
	}

	return &Redis{Client: client, keyPrefix: cfg.KeyPrefix}
}

// Key namespaces name under the configured prefix.
func (r *Redis) Key(name string) string {
	return r.keyPrefix + name
}

// RateLimitStore returns the window counter store used for per-actor throttling.
func (r *Redis) RateLimitStore() *ratelimit.RedisStore {
	return ratelimit.NewRedisStore(r.Client, r.Key("ratelimit:"))
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping backs the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
