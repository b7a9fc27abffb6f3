package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "civicsearch.log")
	cfg := DefaultConfig()
	cfg.FilePath = logPath
	cfg.WriteToStderr = false

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)

	logger.Info("load_complete", slog.Int("chunks", 4))
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"load_complete"`)
	assert.Contains(t, string(data), `"chunks":4`)
}

func TestSetup_RespectsLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "civicsearch.log")
	cfg := DefaultConfig()
	cfg.FilePath = logPath
	cfg.Level = "warn"
	cfg.WriteToStderr = false

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), tt.input)
	}
}

func TestRotatingWriter_RotatesAtMaxSize(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "civicsearch.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// Two writes that together exceed 1MB force a rotation.
	payload := strings.Repeat("x", 600*1024)
	_, err = w.Write([]byte(payload))
	require.NoError(t, err)
	_, err = w.Write([]byte(payload))
	require.NoError(t, err)

	_, err = os.Stat(logPath + ".1")
	assert.NoError(t, err, "rotated file should exist")
}

func TestRotatingWriter_KeepsMaxFiles(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "civicsearch.log")

	w, err := NewRotatingWriter(logPath, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	payload := strings.Repeat("x", 1100*1024)
	for i := 0; i < 4; i++ {
		_, err = w.Write([]byte(payload))
		require.NoError(t, err)
	}

	_, err = os.Stat(logPath + ".3")
	assert.True(t, os.IsNotExist(err), "files beyond maxFiles should be deleted")
}
