package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("REFRESHMON_INTERVAL", "30")
	t.Setenv("REFRESHMON_SUPPRESS_WINDOW", "5m")
	t.Setenv("REFRESHMON_AUTOSTART", "false")
	t.Setenv("REFRESHMON_BACKEND", "fake")
	t.Setenv("REFRESHMON_WEB_PORT", "18080")
	t.Setenv("REFRESHMON_LOG_LEVEL", "debug")
	t.Setenv("REFRESHMON_HISTORY_RETENTION", "168h")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.Equal(t, 7*24*time.Hour, cfg.Database.Retention)
	assert.Equal(t, 30*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.SuppressWindow)
	assert.False(t, cfg.Daemon.Autostart)
	assert.Equal(t, "fake", cfg.Monitor.Backend)
	assert.Equal(t, 18080, cfg.Web.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("REFRESHMON_INTERVAL", "1")
	t.Setenv("REFRESHMON_SUPPRESS_WINDOW", "soon")
	t.Setenv("REFRESHMON_AUTOSTART", "maybe")
	t.Setenv("REFRESHMON_WEB_PORT", "70000")

	cfg := Default()
	LoadFromEnv(cfg)

	def := Default()
	assert.Equal(t, def.Monitor.Interval, cfg.Monitor.Interval)
	assert.Zero(t, cfg.Monitor.SuppressWindow)
	assert.True(t, cfg.Daemon.Autostart)
	assert.Equal(t, def.Web.Port, cfg.Web.Port)
}

func TestNewReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  interval: 45s\ndatabase:\n  retention: 72h\nweb:\n  port: 19000\n"), 0644))
	t.Setenv("REFRESHMON_CONFIG", path)
	t.Setenv("REFRESHMON_WEB_PORT", "19001")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 72*time.Hour, cfg.Database.Retention)
	assert.Equal(t, 19001, cfg.Web.Port, "environment overrides the file")
}

func TestLoadFileMissingIsIgnored(t *testing.T) {
	cfg := Default()
	require.NoError(t, LoadFile(cfg, filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Equal(t, Default().Monitor, cfg.Monitor)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "monitor: [\n"},
		{"bad duration", "monitor:\n  interval: often\n"},
		{"bad retention", "database:\n  retention: forever\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Parse(Default(), []byte(tt.data)))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"interval too long", func(c *Config) { c.Monitor.Interval = 2 * time.Hour }},
		{"negative window", func(c *Config) { c.Monitor.SuppressWindow = -time.Second }},
		{"negative retention", func(c *Config) { c.Database.Retention = -time.Hour }},
		{"empty host", func(c *Config) { c.Web.Host = "" }},
		{"empty pid file", func(c *Config) { c.Daemon.PIDFile = "" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
