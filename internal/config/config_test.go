package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTOVOTE_CONFIG_PATH", "")
	t.Setenv("AUTOVOTE_DB_PATH", "test.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, "test.db", cfg.DB.Path)
	require.Equal(t, 10*time.Second, cfg.Vote.TabLifetime.Std())
	require.Equal(t, 2*time.Second, cfg.Vote.InterProjectDelay.Std())
	require.Equal(t, 24*time.Hour, cfg.Schedule.RolloverInterval.Std())
	require.Zero(t, cfg.Schedule.BatchInterval)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autovote.yaml")
	content := `
transport:
  mode: http
server:
  port: 9090
vote:
  tab_lifetime: 15s
  inter_project_delay: 3s
schedule:
  batch_interval: 30m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("AUTOVOTE_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 15*time.Second, cfg.Vote.TabLifetime.Std())
	require.Equal(t, 3*time.Second, cfg.Vote.InterProjectDelay.Std())
	require.Equal(t, 30*time.Minute, cfg.Schedule.BatchInterval.Std())
	// Untouched values keep their defaults.
	require.Equal(t, 2*time.Second, cfg.Vote.MinHumanDelay.Std())
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autovote.toml")
	content := `
[browser]
headless = false
exec_path = "/usr/bin/chromium"

[vote]
max_human_delay = "8s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("AUTOVOTE_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.Browser.Headless)
	require.Equal(t, "/usr/bin/chromium", cfg.Browser.ExecPath)
	require.Equal(t, 8*time.Second, cfg.Vote.MaxHumanDelay.Std())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTOVOTE_CONFIG_PATH", "")
	t.Setenv("AUTOVOTE_TRANSPORT", "http")
	t.Setenv("AUTOVOTE_SERVER_PORT", "7000")
	t.Setenv("AUTOVOTE_BROWSER_HEADLESS", "false")
	t.Setenv("AUTOVOTE_BATCH_INTERVAL", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, 7000, cfg.Server.Port)
	require.False(t, cfg.Browser.Headless)
	require.Equal(t, time.Hour, cfg.Schedule.BatchInterval.Std())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("AUTOVOTE_CONFIG_PATH", "")

	t.Run("port", func(t *testing.T) {
		t.Setenv("AUTOVOTE_SERVER_PORT", "not-a-port")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("transport", func(t *testing.T) {
		t.Setenv("AUTOVOTE_TRANSPORT", "carrier-pigeon")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("duration", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("vote:\n  tab_lifetime: soon\n"), 0o644))
		t.Setenv("AUTOVOTE_CONFIG_PATH", path)
		_, err := Load()
		require.Error(t, err)
	})
}

func TestValidate_HumanDelayOrder(t *testing.T) {
	cfg := Default()
	cfg.Vote.MinHumanDelay = Duration(5 * time.Second)
	cfg.Vote.MaxHumanDelay = Duration(time.Second)
	require.Error(t, cfg.Validate())
}
