package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_DefaultsWithoutFiles(t *testing.T) {
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.env")).Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.CoinGecko.BaseURL)
	assert.Equal(t, "@every 1m", cfg.Refresh.Schedule)
	assert.Equal(t, 30, cfg.CoinGecko.RequestsPerMinute)
}

func TestLoader_PlainEnvNames(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/prices")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("COINGECKO_API_URL", "http://localhost:9999/api/v3")
	t.Setenv("API_RATE_LIMIT", "42")
	t.Setenv("COINGECKO_RATE_LIMIT", "10")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.env")).Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://user:pass@db:5432/prices", cfg.Database.URL)
	assert.Equal(t, "redis://cache:6379/1", cfg.Cache.Redis.URL)
	assert.Equal(t, "http://localhost:9999/api/v3", cfg.CoinGecko.BaseURL)
	assert.Equal(t, 42, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 10, cfg.CoinGecko.RequestsPerMinute)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoader_CacheTTL(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"segundos sin unidad", "300", 5 * time.Minute},
		{"duración Go", "90s", 90 * time.Second},
		{"minutos", "2m", 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CACHE_TTL", tt.value)

			cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.env")).Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Cache.TTL)
		})
	}
}

func TestLoader_InvalidCacheTTL(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")

	_, err := NewLoader(filepath.Join(t.TempDir(), "missing.env")).Load()
	assert.Error(t, err)
}

func TestLoader_RedisHostPort(t *testing.T) {
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.env")).Load()
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", cfg.Cache.Redis.Addr)
}

func TestLoader_DotEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BACKFILL_DAYS=7\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("BACKFILL_DAYS") })

	cfg, err := NewLoader(envFile).Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.History.BackfillDays)
}

func TestLoader_DebugRaisesLogLevel(t *testing.T) {
	t.Setenv("DEBUG", "true")

	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.env")).Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func writeConfigFiles(t *testing.T, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func clearEnvironment(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ENVIRONMENT", "ENV", "LOG_LEVEL", "CACHE_TTL", "APP_PORT"} {
		t.Setenv(key, "")
	}
}

func TestLoader_LoadForEnvironment_MergesOverlay(t *testing.T) {
	clearEnvironment(t)
	writeConfigFiles(t, map[string]string{
		"config.yaml": "app:\n  environment: production\nserver:\n  port: 8100\nlogging:\n  level: info\ncache:\n  ttl: 300\n",
		"config.production.yaml": "logging:\n  level: warn\ncache:\n  ttl: 60\n",
	})

	cfg, err := NewLoader("missing.env").LoadForEnvironment("")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, 8100, cfg.Server.Port, "las claves no superpuestas vienen del archivo base")
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestLoader_LoadForEnvironment_ExplicitAndEnvAlias(t *testing.T) {
	clearEnvironment(t)
	writeConfigFiles(t, map[string]string{
		"config.staging.yaml": "server:\n  port: 8200\n",
	})

	cfg, err := NewLoader("missing.env").LoadForEnvironment("Staging")
	require.NoError(t, err)
	assert.Equal(t, 8200, cfg.Server.Port)

	t.Setenv("ENV", "staging")
	cfg, err = NewLoader("missing.env").LoadForEnvironment("")
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.App.Environment)
	assert.Equal(t, 8200, cfg.Server.Port)
}

func TestLoader_LoadForEnvironment_EnvVarsWin(t *testing.T) {
	clearEnvironment(t)
	writeConfigFiles(t, map[string]string{
		"config.development.yaml": "server:\n  port: 8300\n",
	})
	t.Setenv("APP_PORT", "9100")

	cfg, err := NewLoader("missing.env").LoadForEnvironment("")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoader_LoadForEnvironment_MissingOverlay(t *testing.T) {
	clearEnvironment(t)
	writeConfigFiles(t, nil)

	cfg, err := NewLoader("missing.env").LoadForEnvironment("production")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig().Server.Port, cfg.Server.Port)
}

func TestLoader_LoadForEnvironment_BrokenOverlay(t *testing.T) {
	clearEnvironment(t)
	writeConfigFiles(t, map[string]string{
		"config.production.yaml": "server: [unclosed\n",
	})

	_, err := NewLoader("missing.env").LoadForEnvironment("production")
	assert.Error(t, err)
}
