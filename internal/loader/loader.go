// Package loader fetches the chunked search index over HTTP and
// assembles the in-memory index. Loads are idempotent and
// single-flight: once loaded, Load is a no-op, concurrent callers
// share one fetch sequence, and each successful fetch bumps a
// generation counter so downstream caches can invalidate. Reload
// replaces an already loaded index.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	cerrors "github.com/opencivic/civicsearch/internal/errors"
	"github.com/opencivic/civicsearch/internal/index"
	"github.com/opencivic/civicsearch/internal/store"
)

// Progress reports chunk-level load progress. Loaded counts fully
// fetched chunks; partially fetched chunks never count.
type Progress struct {
	Loaded int
	Total  int
}

// Config configures the loader.
type Config struct {
	// BaseURL is the directory URL the manifest and chunks live under.
	BaseURL string

	// Concurrency bounds parallel chunk fetches.
	Concurrency int

	// Timeout applies per HTTP request.
	Timeout time.Duration

	// Client overrides the HTTP client. Nil uses a default client with
	// Timeout applied.
	Client *http.Client

	// Index configures the assembled in-memory index.
	Index store.Config
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Timeout:     30 * time.Second,
		Index:       store.DefaultConfig(),
	}
}

// Loader downloads and assembles the search index.
type Loader struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	mu         sync.Mutex
	loading    bool
	inflight   chan struct{}
	index      *store.MemoryIndex
	manifest   *index.Manifest
	progress   Progress
	lastErr    error
	generation uint64
}

// New creates a Loader.
func New(cfg Config) *Loader {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Loader{
		cfg:    cfg,
		client: client,
		logger: slog.Default().With(slog.String("component", "loader")),
	}
}

// Load makes the index available: it fetches the manifest and every
// chunk it lists, then builds the in-memory index. Load is idempotent.
// Once a load has succeeded it returns immediately without touching
// the network; if a load is already in flight the call joins it
// instead of starting a second fetch sequence, and returns that load's
// outcome. A failed load leaves the loader unloaded; a later call
// retries from scratch. Use Reload to replace an already loaded index.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	if !l.loading && l.index != nil {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()
	return l.Reload(ctx)
}

// Reload unconditionally fetches the manifest and chunks again and
// replaces the in-memory index, bumping the generation counter on
// success. Like Load, a call made while a load is in flight joins it.
// A failed reload keeps the previously loaded index in place.
func (l *Loader) Reload(ctx context.Context) error {
	l.mu.Lock()
	if l.loading {
		done := l.inflight
		l.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		l.mu.Lock()
		err := l.lastErr
		l.mu.Unlock()
		return err
	}
	done := make(chan struct{})
	l.loading = true
	l.inflight = done
	l.lastErr = nil
	l.progress = Progress{}
	l.mu.Unlock()

	ix, manifest, err := l.load(ctx)

	l.mu.Lock()
	l.loading = false
	l.lastErr = err
	if err == nil {
		l.index = ix
		l.manifest = manifest
		l.generation++
	}
	close(done)
	l.mu.Unlock()
	return err
}

func (l *Loader) load(ctx context.Context) (*store.MemoryIndex, *index.Manifest, error) {
	start := time.Now()

	var manifest index.Manifest
	manifestURL := l.url(index.ManifestFilename)
	if err := l.fetchJSON(ctx, manifestURL, &manifest); err != nil {
		return nil, nil, err
	}

	l.mu.Lock()
	l.progress = Progress{Total: manifest.TotalChunks}
	l.mu.Unlock()

	chunks := make([]*index.ChunkFile, len(manifest.Chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Concurrency)
	for i, meta := range manifest.Chunks {
		g.Go(func() error {
			var chunk index.ChunkFile
			if err := l.fetchJSON(gctx, l.url(meta.Filename), &chunk); err != nil {
				return err
			}
			chunks[i] = &chunk
			l.mu.Lock()
			l.progress.Loaded++
			l.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Index assembly is synchronous: documents are inserted in chunk
	// order so ranking ties resolve the same way on every load.
	ix := store.NewMemoryIndex(l.cfg.Index)
	for _, chunk := range chunks {
		for _, doc := range chunk.Documents {
			ix.Insert(doc)
		}
	}
	ix.Finalize()

	l.logger.Info("search index loaded",
		slog.Int("clips", ix.Len()),
		slog.Int("chunks", len(chunks)),
		slog.Duration("elapsed", time.Since(start)))
	return ix, &manifest, nil
}

// fetchJSON GETs url and decodes the body into v. Failures map to the
// manifest or chunk load error for the requested file.
func (l *Loader) fetchJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return l.loadError(url, 0, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return l.loadError(url, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return l.loadError(url, resp.StatusCode, nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return l.loadError(url, resp.StatusCode, err)
	}
	return nil
}

func (l *Loader) loadError(url string, status int, cause error) error {
	filename := url
	if i := strings.LastIndex(url, "/"); i >= 0 {
		filename = url[i+1:]
	}
	var ce *cerrors.CivicError
	if filename == index.ManifestFilename {
		ce = cerrors.ManifestLoadError(url, status)
	} else {
		ce = cerrors.ChunkLoadError(filename, status)
	}
	if cause != nil {
		ce.Cause = cause
		if status == 0 {
			ce.Message = fmt.Sprintf("failed to load %s: %v", filename, cause)
		}
	}
	return ce
}

func (l *Loader) url(name string) string {
	return strings.TrimRight(l.cfg.BaseURL, "/") + "/" + name
}

// IsLoading reports whether a load is in flight.
func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// IsLoaded reports whether at least one load has completed.
func (l *Loader) IsLoaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index != nil
}

// Progress returns the current chunk-level progress.
func (l *Loader) Progress() Progress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.progress
}

// Err returns the outcome of the most recent load.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Generation returns the number of successful loads. It increments
// once per completed load, so cache keys derived from it invalidate
// whenever the index is replaced.
func (l *Loader) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}

// Index returns the loaded index, or nil before the first successful
// load.
func (l *Loader) Index() *store.MemoryIndex {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index
}

// Manifest returns the manifest from the last successful load, or nil.
func (l *Loader) Manifest() *index.Manifest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.manifest
}
