package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.App.HTTPHost)
	assert.Equal(t, "8000", cfg.App.HTTPPort)
	assert.Equal(t, "0.0.0.0:8000", cfg.App.Address())
	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URL)
	assert.Equal(t, "userdb", cfg.Mongo.Database)
	assert.Equal(t, "users", cfg.Mongo.Collection)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "MONGODB_URL=mongodb://file-host:27017\nHTTP_PORT=9000\nSTORE_DRIVER=postgres\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	t.Setenv("MONGODB_URL", "mongodb://env-host:27017")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://env-host:27017", cfg.Mongo.URL)
	assert.Equal(t, "9000", cfg.App.HTTPPort)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
}

func TestLoadConfig_ProductionLoggerDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Logger.EnableSampling)
}

func TestLoadConfig_ProductionFromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte("APP_ENV=production\nLOG_LEVEL=warn\n"), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoadConfig_DecodesTypedValues(t *testing.T) {
	t.Setenv("MONGODB_MAX_POOL_SIZE", "42")
	t.Setenv("RATE_LIMIT_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("STORE_DRIVER", "Postgres")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, uint64(42), cfg.Mongo.MaxPoolSize)
	assert.InDelta(t, 2.5, cfg.RateLimit.RequestsPerSecond, 1e-9)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, 300, cfg.Redis.CacheTTL)
}

func TestConfig_Validate(t *testing.T) {
	base := func(t *testing.T) *Config {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	t.Run("unknown store driver", func(t *testing.T) {
		cfg := base(t)
		cfg.Store.Driver = "cassandra"
		assert.ErrorContains(t, cfg.Validate(), "unsupported STORE_DRIVER")
	})

	t.Run("rate limit without redis", func(t *testing.T) {
		cfg := base(t)
		cfg.RateLimit.Enabled = true
		assert.ErrorContains(t, cfg.Validate(), "requires REDIS_ENABLED")
	})

	t.Run("rate limit with redis", func(t *testing.T) {
		cfg := base(t)
		cfg.RateLimit.Enabled = true
		cfg.Redis.Enabled = true
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing mongo url", func(t *testing.T) {
		cfg := base(t)
		cfg.Mongo.URL = ""
		assert.ErrorContains(t, cfg.Validate(), "MONGODB_URL is required")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "userdb", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=userdb port=5432 sslmode=disable", c.DSN())
}
