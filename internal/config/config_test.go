package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/opencivic/civicsearch/internal/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 1_500_000, cfg.Index.TargetChunkBytes)
	assert.Equal(t, 100, cfg.Search.DefaultLimit)
	assert.Equal(t, 120, cfg.Search.SnippetContext)
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
version: 1
archive:
  dir: /data/meetings
index:
  output_dir: /data/meetings/search
  target_chunk_bytes: 500000
search:
  default_limit: 50
  max_limit: 200
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFilename), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/data/meetings", cfg.Archive.Dir)
	assert.Equal(t, 500000, cfg.Index.TargetChunkBytes)
	assert.Equal(t, 50, cfg.Search.DefaultLimit)
	// Unset keys keep their defaults.
	assert.Equal(t, 120, cfg.Search.SnippetContext)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "archive:\n  dir: /from/file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFilename), []byte(yaml), 0o644))

	t.Setenv("CIVICSEARCH_ARCHIVE_DIR", "/from/env")
	t.Setenv("CIVICSEARCH_BASE_URL", "https://archive.example/search")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Archive.Dir)
	assert.Equal(t, "https://archive.example/search", cfg.Index.BaseURL)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFilename), []byte("{not yaml"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeConfigInvalid, cerrors.GetCode(err))
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk bytes", func(c *Config) { c.Index.TargetChunkBytes = 0 }},
		{"zero default limit", func(c *Config) { c.Search.DefaultLimit = 0 }},
		{"max below default", func(c *Config) { c.Search.MaxLimit = 10 }},
		{"zero snippet context", func(c *Config) { c.Search.SnippetContext = 0 }},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "soon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDebounceWindow(t *testing.T) {
	cfg := NewConfig()
	d, err := cfg.DebounceWindow()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	cfg.Watch.Debounce = "500ms"
	d, err = cfg.DebounceWindow()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Archive.Dir = "/data/meetings"

	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/data/meetings", loaded.Archive.Dir)
}
