package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir()) // no stray .env
	t.Setenv("APP_PORT", "5000")
	t.Setenv("DB_USER", "nfc")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "nfc")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		expectError string
		validate    func(*testing.T, Config)
	}{
		{
			name: "defaults",
			validate: func(t *testing.T, cfg Config) {
				assert.Equal(t, "dev", cfg.Env)
				assert.Equal(t, "5000", cfg.Port)
				assert.Equal(t, 60, cfg.AccessTTLMin)
				assert.Equal(t, 10, cfg.BcryptCost)
				assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
				assert.False(t, cfg.DBAutoMigrate)
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"APP_ENV":              "prod",
				"ACCESS_TOKEN_TTL_MIN": "15",
				"BCRYPT_COST":          "12",
				"CORS_ORIGINS":         "https://a.example, https://b.example,",
				"DB_AUTO_MIGRATE":      "yes",
			},
			validate: func(t *testing.T, cfg Config) {
				assert.Equal(t, "prod", cfg.Env)
				assert.Equal(t, 15, cfg.AccessTTLMin)
				assert.Equal(t, 12, cfg.BcryptCost)
				assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
				assert.True(t, cfg.DBAutoMigrate)
			},
		},
		{
			name:        "missing secret",
			env:         map[string]string{"JWT_SECRET": ""},
			expectError: "JWT_SECRET",
		},
		{
			name:        "bad int",
			env:         map[string]string{"BCRYPT_COST": "ten"},
			expectError: "BCRYPT_COST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadMissingRequiredWrapsSentinel(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_HOST", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingEnv)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 5*time.Second, cfg.TTL)
	assert.Equal(t, "ip_route", cfg.KeyStrategy)
}

func TestLoadQueueConfig(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")
	t.Setenv("QUEUE_BREAKER_FAILURES", "-2")
	t.Setenv("QUEUE_BUFFER_SIZE", "0")

	cfg := LoadQueueConfig()
	assert.Equal(t, "amqp://u:p@broker:5672/", cfg.URL)
	assert.Equal(t, "tap.recorded", cfg.TapQueue)
	assert.Equal(t, uint32(1), cfg.BreakerFailures)
	assert.Equal(t, 1, cfg.BufferSize)
	assert.False(t, cfg.ConsumerEnabled)
}

func TestLoadRedisConfigHostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "other:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.True(t, cfg.Enabled)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "off")
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "")

	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, time.Minute, cfg.TTL)
	assert.Equal(t, "tenant_route_query", cfg.KeyStrategy)
	assert.Equal(t, "cache", cfg.Prefix)
}
