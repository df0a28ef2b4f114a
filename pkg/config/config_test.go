package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

		require.NoError(t, err)
		assert.Equal(t, Default(), *cfg)
	})

	t.Run("yaml overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "press.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  adminPassword: "pw"
store:
  kind: mongo
mongo:
  host: "mongo:27017"
  dbname: "blog"
scheduler:
  warmInterval: 30m
log:
  level: debug
`), 0o644))

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, "pw", cfg.Server.AdminPassword)
		assert.Equal(t, StoreMongo, cfg.Store.Kind)
		assert.Equal(t, "mongo:27017", cfg.Mongo.Host)
		assert.Equal(t, "admin", cfg.Mongo.AuthSource)
		assert.Equal(t, 30*time.Minute, cfg.Scheduler.WarmInterval)
		assert.Equal(t, 10*time.Second, cfg.Feishu.HTTPTimeout)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("environment overrides yaml", func(t *testing.T) {
		t.Setenv("PRESS_ADDR", ":7070")
		t.Setenv("PRESS_CONFIG_FILE", "/data/site.json")
		t.Setenv("PRESS_WARM_INTERVAL", "5m")
		t.Setenv("PRESS_LOG_DEVELOPMENT", "true")
		t.Setenv("PRESS_ADMIN_PASSWORD", "secret")
		t.Setenv("PRESS_MONGO_HOST", "db:27017")

		cfg, err := LoadConfig("")

		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Server.Addr)
		assert.Equal(t, "/data/site.json", cfg.Store.FilePath)
		assert.Equal(t, 5*time.Minute, cfg.Scheduler.WarmInterval)
		assert.True(t, cfg.Log.Development)
		assert.Equal(t, "secret", cfg.Server.AdminPassword)
		assert.Equal(t, "db:27017", cfg.Mongo.Host)
	})

	t.Run("empty environment value keeps yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "press.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9191\"\n"), 0o644))
		t.Setenv("PRESS_ADDR", "")

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, ":9191", cfg.Server.Addr)
	})

	t.Run("bad bool in environment", func(t *testing.T) {
		t.Setenv("PRESS_LOG_DEVELOPMENT", "maybe")

		_, err := LoadConfig("")

		assert.ErrorContains(t, err, "PRESS_LOG_DEVELOPMENT")
	})

	t.Run("bad duration in environment", func(t *testing.T) {
		t.Setenv("PRESS_WARM_INTERVAL", "soon")

		_, err := LoadConfig("")

		assert.ErrorContains(t, err, "PRESS_WARM_INTERVAL")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "press.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

		_, err := LoadConfig(path)

		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"zero timeout", func(c *Config) { c.Feishu.HTTPTimeout = 0 }, "httpTimeout"},
		{"unknown store", func(c *Config) { c.Store.Kind = "redis" }, "store.kind"},
		{"file store without path", func(c *Config) { c.Store.FilePath = "" }, "store.filePath"},
		{"mongo without host", func(c *Config) { c.Store.Kind = StoreMongo; c.Mongo.Host = "" }, "mongo.host"},
		{"negative warm interval", func(c *Config) { c.Scheduler.WarmInterval = -time.Second }, "warmInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
