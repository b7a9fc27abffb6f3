// Package config loads and validates CivicSearch configuration.
//
// Configuration is resolved in priority order:
//  1. Environment variables (CIVICSEARCH_*) - highest priority
//  2. Config file (civicsearch.yaml in the working directory)
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	cerrors "github.com/opencivic/civicsearch/internal/errors"
)

// DefaultConfigFilename is the config file looked up in the working directory.
const DefaultConfigFilename = "civicsearch.yaml"

// Config represents the complete CivicSearch configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Archive   ArchiveConfig   `yaml:"archive" json:"archive"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Watch     WatchConfig     `yaml:"watch" json:"watch"`
}

// ArchiveConfig locates the processed meeting-clip archive.
type ArchiveConfig struct {
	// Dir is the pipeline output directory containing clips/<id>/.
	Dir string `yaml:"dir" json:"dir"`
}

// IndexConfig configures index generation and retrieval.
type IndexConfig struct {
	// OutputDir is where chunk and manifest files are written.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// TargetChunkBytes is the serialized chunk size target.
	// Chunk count is derived from this; per-chunk sizes are not
	// byte-balanced (count-based slicing).
	TargetChunkBytes int `yaml:"target_chunk_bytes" json:"target_chunk_bytes"`

	// BaseURL is where the loader fetches manifest and chunks from.
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// SearchConfig configures query execution.
type SearchConfig struct {
	// DefaultLimit is the default number of results (default: 100).
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// MaxLimit is the maximum allowed results (default: 500).
	MaxLimit int `yaml:"max_limit" json:"max_limit"`

	// SnippetContext is the snippet context window in characters (default: 120).
	SnippetContext int `yaml:"snippet_context" json:"snippet_context"`

	// CacheSize is the LRU query-result cache size (default: 128).
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// TelemetryConfig configures query metrics collection.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// WatchConfig configures archive watching for rebuild-on-change.
type WatchConfig struct {
	// Debounce is the event coalescing window (e.g. "2s").
	Debounce string `yaml:"debounce" json:"debounce"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Archive: ArchiveConfig{
			Dir: "archive",
		},
		Index: IndexConfig{
			OutputDir:        filepath.Join("archive", "search"),
			TargetChunkBytes: 1_500_000,
			BaseURL:          "",
		},
		Search: SearchConfig{
			DefaultLimit:   100,
			MaxLimit:       500,
			SnippetContext: 120,
			CacheSize:      128,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			Path:    filepath.Join("archive", "search", "telemetry.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce: "2s",
		},
	}
}

// Load reads configuration from dir/civicsearch.yaml, applies env
// overrides, and validates the result. A missing config file is not an
// error; defaults plus env overrides are returned.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	path := filepath.Join(dir, DefaultConfigFilename)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, cerrors.Wrap(cerrors.ErrCodeConfigNotFound, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, cerrors.New(cerrors.ErrCodeConfigInvalid,
				fmt.Sprintf("parse %s: %v", path, err), err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to dir/civicsearch.yaml.
func (c *Config) Save(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInternal, err)
	}
	path := filepath.Join(dir, DefaultConfigFilename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeIndexWrite, err)
	}
	return nil
}

// applyEnvOverrides applies CIVICSEARCH_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CIVICSEARCH_ARCHIVE_DIR"); v != "" {
		c.Archive.Dir = v
	}
	if v := os.Getenv("CIVICSEARCH_INDEX_DIR"); v != "" {
		c.Index.OutputDir = v
	}
	if v := os.Getenv("CIVICSEARCH_BASE_URL"); v != "" {
		c.Index.BaseURL = v
	}
	if v := os.Getenv("CIVICSEARCH_CHUNK_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.TargetChunkBytes = n
		}
	}
	if v := os.Getenv("CIVICSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Index.TargetChunkBytes <= 0 {
		return cerrors.New(cerrors.ErrCodeConfigInvalid,
			"index.target_chunk_bytes must be positive", nil)
	}
	if c.Search.DefaultLimit <= 0 {
		return cerrors.New(cerrors.ErrCodeConfigInvalid,
			"search.default_limit must be positive", nil)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return cerrors.New(cerrors.ErrCodeConfigInvalid,
			"search.max_limit must be >= search.default_limit", nil)
	}
	if c.Search.SnippetContext <= 0 {
		return cerrors.New(cerrors.ErrCodeConfigInvalid,
			"search.snippet_context must be positive", nil)
	}
	if c.Search.CacheSize <= 0 {
		return cerrors.New(cerrors.ErrCodeConfigInvalid,
			"search.cache_size must be positive", nil)
	}
	if _, err := c.DebounceWindow(); err != nil {
		return cerrors.New(cerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("watch.debounce: %v", err), err)
	}
	return nil
}

// DebounceWindow parses the watch debounce duration.
func (c *Config) DebounceWindow() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return 2 * time.Second, nil
	}
	return time.ParseDuration(c.Watch.Debounce)
}
