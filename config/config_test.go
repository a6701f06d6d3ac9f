package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rebate-engine/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "rebates.db", cfg.Database.Path)
	assert.Equal(t, config.CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Cache.Redis.TTL)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  shutdown_timeout: 5s
cache:
  backend: redis
  redis:
    address: cache:6379
    ttl: 1m
logging:
  format: json
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, config.CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Address)
	assert.Equal(t, time.Minute, cfg.Cache.Redis.TTL)
	assert.Equal(t, "json", cfg.Logging.Format)
	// untouched keys keep defaults
	assert.Equal(t, "rebates.db", cfg.Database.Path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("REBATE_SERVER_PORT", "9100")
	t.Setenv("REBATE_DATABASE_PATH", ":memory:")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"port":    "server:\n  port: 70000\n",
		"backend": "cache:\n  backend: memcached\n",
		"format":  "logging:\n  format: xml\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}
