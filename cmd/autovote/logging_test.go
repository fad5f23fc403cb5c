package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/autovote/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestLogFileWriter_KeepsTail(t *testing.T) {
	oldMax, oldKeep := maxLogSizeBytes, keepLogSizeBytes
	maxLogSizeBytes, keepLogSizeBytes = 100, 40
	t.Cleanup(func() { maxLogSizeBytes, keepLogSizeBytes = oldMax, oldKeep })

	path := filepath.Join(t.TempDir(), "logs", "autovote.log")
	w, file, err := newLogFileWriter(path)
	require.NoError(t, err)
	defer file.Close()

	_, err = w.Write([]byte(strings.Repeat("a", 90)))
	require.NoError(t, err)
	_, err = w.Write([]byte(strings.Repeat("b", 20)))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 40)
	require.True(t, strings.HasSuffix(string(data), strings.Repeat("b", 20)))
}

func TestEnsureDir(t *testing.T) {
	require.NoError(t, ensureDir(":memory:"))
	require.NoError(t, ensureDir("file:x?mode=memory"))

	path := filepath.Join(t.TempDir(), "nested", "autovote.db")
	require.NoError(t, ensureDir(path))
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestNewLogger_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autovote.log")
	t.Setenv("AUTOVOTE_LOG_PATH", path)

	logger, closeFn, err := newLogger(config.LogConfig{Level: "debug", Format: "json"}, os.Stderr)
	require.NoError(t, err)
	logger.Debug("hello", "k", "v")
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"hello"`)
	require.Contains(t, string(data), `"k":"v"`)
}
