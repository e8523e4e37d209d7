package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("LOAD_TIMEOUT_SECONDS", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8*time.Second, cfg.Load.Timeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Load.SettleDelay())
	assert.Equal(t, "ticket.events", cfg.RabbitMQ.Exchange)
	assert.True(t, cfg.Triage.AllowReopen)
	assert.Empty(t, cfg.Postgres.DSN)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOAD_TIMEOUT_SECONDS", "3")
	t.Setenv("TRIAGE_ALLOW_REOPEN", "false")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Load.Timeout())
	assert.False(t, cfg.Triage.AllowReopen)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadTimeoutFallsBackOnNonPositive(t *testing.T) {
	assert.Equal(t, 8*time.Second, LoadConfig{TimeoutSeconds: 0}.Timeout())
	assert.Equal(t, time.Duration(0), LoadConfig{SettleMillis: -5}.SettleDelay())
}
