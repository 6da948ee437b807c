package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("REDIS_DB", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "maintenance-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, "migrations", cfg.Postgres.MigrationsDir)
	assert.Equal(t, 120, cfg.RateLimit.PerWindow)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, "maintenance:", cfg.Redis.KeyPrefix)
	assert.Equal(t, 5*time.Second, cfg.Postgres.ConnectTimeoutDuration())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "10")
	t.Setenv("POSTGRES_MAX_CONNS", "not-a-number")
	t.Setenv("POSTGRES_CONNECT_TIMEOUT_SECONDS", "2")
	t.Setenv("REDIS_KEY_PREFIX", "plant-7:")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.False(t, cfg.RateLimit.Enabled())
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window())
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.Equal(t, 2*time.Second, cfg.Postgres.ConnectTimeoutDuration())
	assert.Equal(t, "plant-7:", cfg.Redis.KeyPrefix)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
