package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars clears all vinoteca-related environment variables.
func clearEnvVars() {
	envVars := []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR",
		"DATABASE_URL", "REDIS_URL", "SEEN_CACHE_TTL", "RABBITMQ_URL",
		"MP_ACCESS_TOKEN", "MP_BASE_URL", "MP_BACK_URL", "MP_WEBHOOK_SECRET", "CURRENCY_ID",
		"ADMIN_EMAIL", "ALLOW_ORDER_REGRESSION",
		"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES",
		"OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_INTERVAL",
		"WORKER_HEALTH_ADDR",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)

	assert.Equal(t, "https://api.mercadopago.com", cfg.GatewayBaseURL)
	assert.Equal(t, "ARS", cfg.CurrencyID)
	assert.False(t, cfg.AllowOrderRegression)

	assert.Equal(t, 100*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.SeenCacheTTL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("APP_ENV", "production")
	os.Setenv("MP_ACCESS_TOKEN", "APP_USR-test-token")
	os.Setenv("ALLOW_ORDER_REGRESSION", "true")
	os.Setenv("OUTBOX_BATCH_SIZE", "25")
	os.Setenv("SEEN_CACHE_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "APP_USR-test-token", cfg.GatewayAccessToken)
	assert.True(t, cfg.AllowOrderRegression)
	assert.Equal(t, 25, cfg.OutboxBatchSize)
	assert.Equal(t, time.Hour, cfg.SeenCacheTTL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")
	os.Setenv("SEEN_CACHE_TTL", "soon")
	os.Setenv("ALLOW_ORDER_REGRESSION", "sí")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, 24*time.Hour, cfg.SeenCacheTTL)
	assert.False(t, cfg.AllowOrderRegression)
}
