package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyDir keeps tests independent of any configs/ directory in the package.
func emptyDir(t *testing.T) Option {
	t.Helper()

	return WithDir(t.TempDir())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("", emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, "quotebook", cfg.App.Name)
	assert.Equal(t, "dev", cfg.App.Version)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DefaultClientRetryMaxAttempts, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, DefaultClientCircuitMaxFailures, cfg.Client.CircuitBreaker.MaxFailures)

	require.NoError(t, cfg.Validate())
}

func TestLoad_RemoteDefaults(t *testing.T) {
	cfg, err := Load("", emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, "remote-quotes", cfg.Services.Remote.Name)
	assert.Equal(t, "https://jsonplaceholder.typicode.com", cfg.Services.Remote.BaseURL)
	assert.Equal(t, "/posts", cfg.Services.Remote.FetchPath)
	assert.Equal(t, "/posts", cfg.Services.Remote.PushPath)
	assert.Equal(t, DefaultRemoteCategory, cfg.Services.Remote.Category)
	assert.Equal(t, 1, cfg.Services.Remote.UserID)
}

func TestLoad_StorageAndSyncDefaults(t *testing.T) {
	cfg, err := Load("", emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, "disk", cfg.Storage.Driver)
	assert.Equal(t, "./data", cfg.Storage.Path)
	assert.Equal(t, uint64(DefaultStorageCacheSize), cfg.Storage.CacheSize)

	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, DefaultSyncTimeout, cfg.Sync.Timeout)
	assert.False(t, cfg.Sync.PushEnabled)

	assert.Empty(t, cfg.Import.WatchDir)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("APP_SERVER__PORT", "9090")
	t.Setenv("APP_LOG__LEVEL", "warn")
	t.Setenv("APP_SERVICES__REMOTE__BASE_URL", "http://localhost:3000")
	t.Setenv("APP_SYNC__PUSH_ENABLED", "true")
	t.Setenv("APP_SYNC__INTERVAL", "1m")

	cfg, err := Load("", emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "http://localhost:3000", cfg.Services.Remote.BaseURL)
	assert.True(t, cfg.Sync.PushEnabled)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
}

func TestLoad_DurationParsing(t *testing.T) {
	cfg, err := Load("", emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Zero(t, cfg.Server.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, 5*time.Second, cfg.Client.Retry.MaxInterval)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
}

func TestLoad_NonExistentProfile(t *testing.T) {
	cfg, err := Load("nonexistent", emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, "quotebook", cfg.App.Name)
}

func TestLoad_FilePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
storage:
  driver: sqlite
  path: /var/lib/quotebook
sync:
  interval: 45s
`)
	writeFile(t, dir, "dev.yaml", `
sync:
  interval: 5s
services:
  remote:
    category: Remote
`)

	cfg, err := Load("dev", WithDir(dir))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/quotebook", cfg.Storage.Path)
	assert.Equal(t, 5*time.Second, cfg.Sync.Interval)
	assert.Equal(t, "Remote", cfg.Services.Remote.Category)
}

func TestLoad_EnvBeatsFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "import:\n  watch_dir: /srv/inbox\n")
	t.Setenv("APP_IMPORT__WATCH_DIR", "/tmp/inbox")

	cfg, err := Load("", WithDir(dir))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/inbox", cfg.Import.WatchDir)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "sync: [unclosed")

	_, err := Load("", WithDir(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading base config")
}

func TestLoad_BoolEnvVar(t *testing.T) {
	t.Setenv("APP_TELEMETRY__ENABLED", "true")

	cfg, err := Load("", emptyDir(t))
	require.NoError(t, err)

	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoad_LogFileDefaults(t *testing.T) {
	cfg, err := Load("", emptyDir(t))
	require.NoError(t, err)

	assert.False(t, cfg.Log.File.Enabled)
	assert.Equal(t, "./logs/quotebook.log", cfg.Log.File.Path)
	assert.Equal(t, DefaultLogFileMaxSizeMB, cfg.Log.File.MaxSizeMB)
	assert.Equal(t, DefaultLogFileMaxBackups, cfg.Log.File.MaxBackups)
	assert.Equal(t, DefaultLogFileMaxAgeDays, cfg.Log.File.MaxAgeDays)
	assert.True(t, cfg.Log.File.Compress)
}

func TestLoad_ClientDefaults(t *testing.T) {
	cfg, err := Load("", emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultClientRetryMultiplier, cfg.Client.Retry.Multiplier)
	assert.Equal(t, 30*time.Second, cfg.Client.CircuitBreaker.Timeout)
	assert.Equal(t, DefaultClientCircuitHalfOpenLimit, cfg.Client.CircuitBreaker.HalfOpenLimit)
	assert.Equal(t, DefaultTransportMaxIdleConns, cfg.Client.Transport.MaxIdleConns)
	assert.Equal(t, DefaultTransportIdleConnTimeout, cfg.Client.Transport.IdleConnTimeout)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"APP_SERVER__PORT":               "server.port",
		"APP_SERVICES__REMOTE__BASE_URL": "services.remote.base_url",
		"APP_SYNC__PUSH_ENABLED":         "sync.push_enabled",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, envKey(in))
		})
	}
}
