// Package search implements the query engine: query parsing (quoted
// exact vs. free-form), per-word index lookups, result merging and
// ranking, and snippet attachment. Results are cached per index
// generation so repeated queries skip the index entirely.
package search

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/opencivic/civicsearch/internal/archive"
	"github.com/opencivic/civicsearch/internal/loader"
	"github.com/opencivic/civicsearch/internal/snippet"
)

// Result is one search hit in ranked order.
type Result struct {
	ClipID       int              `json:"clip_id"`
	Title        string           `json:"title"`
	Date         string           `json:"date"`
	MeetingBody  string           `json:"meeting_body"`
	Topics       []string         `json:"topics"`
	Snippet      *snippet.Snippet `json:"snippet"`
	IsExactMatch bool             `json:"isExactMatch"`
}

// Recorder receives query metrics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordQuery(term string, exact bool, results int, elapsed time.Duration)
}

// Config configures the engine.
type Config struct {
	// DefaultLimit applies when a caller passes limit <= 0.
	DefaultLimit int

	// MaxLimit caps any requested limit.
	MaxLimit int

	// SnippetContext is the excerpt window size per side.
	SnippetContext int

	// CacheSize bounds the query result cache. Zero disables caching.
	CacheSize int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:   100,
		MaxLimit:       500,
		SnippetContext: snippet.DefaultContext,
		CacheSize:      128,
	}
}

type cacheKey struct {
	generation uint64
	term       string
	exact      bool
	limit      int
}

// Engine answers queries against the loader's current index.
type Engine struct {
	cfg      Config
	loader   *loader.Loader
	cache    *lru.Cache[cacheKey, []Result]
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder attaches a query metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine creates an Engine reading from l.
func NewEngine(cfg Config, l *loader.Loader, opts ...Option) *Engine {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 100
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.SnippetContext <= 0 {
		cfg.SnippetContext = snippet.DefaultContext
	}
	e := &Engine{
		cfg:    cfg,
		loader: l,
		logger: slog.Default().With(slog.String("component", "search")),
	}
	if cfg.CacheSize > 0 {
		// Size is validated positive, so construction cannot fail.
		e.cache, _ = lru.New[cacheKey, []Result](cfg.CacheSize)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// parseQuery splits a raw query into its normalized term and mode.
// A query wrapped in double quotes is exact with the quotes stripped;
// everything else is free-form, trimmed.
func parseQuery(raw string) (term string, exact bool) {
	term = strings.TrimSpace(raw)
	if len(term) > 2 && term[0] == '"' && term[len(term)-1] == '"' {
		return strings.TrimSpace(term[1 : len(term)-1]), true
	}
	return term, false
}

// Search runs a query and returns ranked results. An empty or
// whitespace-only query returns no results without touching the index,
// as does a query issued before the index has loaded.
func (e *Engine) Search(query string, limit int) []Result {
	term, exact := parseQuery(query)
	if term == "" {
		return nil
	}
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}

	ix := e.loader.Index()
	if ix == nil {
		e.logger.Debug("query before index load", slog.String("term", term))
		return nil
	}

	key := cacheKey{
		generation: e.loader.Generation(),
		term:       strings.ToLower(term),
		exact:      exact,
		limit:      limit,
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return cached
		}
	}

	start := time.Now()
	var results []Result
	switch {
	case exact:
		results = e.searchExact(ix, term, limit)
	case len(strings.Fields(term)) > 1:
		results = e.searchMultiWord(ix, term, limit)
	default:
		results = e.searchSingleWord(ix, term, limit)
	}

	if e.cache != nil {
		e.cache.Add(key, results)
	}
	if e.recorder != nil {
		e.recorder.RecordQuery(term, exact, len(results), time.Since(start))
	}
	return results
}

// searchExact over-fetches candidates from the token index, then keeps
// only documents holding the phrase as a whole word. Candidates that
// fail the whole-word test are discarded without counting toward the
// limit; zero survivors means an empty result set, never a fallback to
// partial matching.
func (e *Engine) searchExact(ix indexReader, term string, limit int) []Result {
	candidates := ix.Search(term, 3*limit)

	results := make([]Result, 0, limit)
	for _, id := range candidates {
		doc, ok := ix.Get(id)
		if !ok {
			continue
		}
		if snippet.WholeWordIndex(doc.Content, term) < 0 {
			continue
		}
		results = append(results, e.result(doc, term, true))
		if len(results) == limit {
			break
		}
	}
	return results
}

// searchSingleWord is a direct token lookup preserving index rank.
func (e *Engine) searchSingleWord(ix indexReader, term string, limit int) []Result {
	ids := ix.Search(term, limit)
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		doc, ok := ix.Get(id)
		if !ok {
			continue
		}
		results = append(results, e.result(doc, term, false))
	}
	return results
}

// searchMultiWord looks each word up independently and merges hits.
// Documents matching more distinct query words rank first; among equal
// word counts, the best (lowest) rank position any word search gave
// the document wins.
func (e *Engine) searchMultiWord(ix indexReader, term string, limit int) []Result {
	words := strings.Fields(term)

	type hit struct {
		matchCount int
		bestRank   int
		order      int
	}
	hits := make(map[int]*hit)
	var ids []int
	for _, word := range words {
		for rank, id := range ix.Search(word, 2*limit) {
			h, ok := hits[id]
			if !ok {
				h = &hit{bestRank: rank, order: len(ids)}
				hits[id] = h
				ids = append(ids, id)
			} else if rank < h.bestRank {
				h.bestRank = rank
			}
			h.matchCount++
		}
	}

	sort.SliceStable(ids, func(a, b int) bool {
		ha, hb := hits[ids[a]], hits[ids[b]]
		if ha.matchCount != hb.matchCount {
			return ha.matchCount > hb.matchCount
		}
		if ha.bestRank != hb.bestRank {
			return ha.bestRank < hb.bestRank
		}
		return ha.order < hb.order
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		doc, ok := ix.Get(id)
		if !ok {
			continue
		}
		results = append(results, e.result(doc, term, false))
	}
	return results
}

// result builds a Result with the extracted snippet. Free-form
// extraction tries the full query and falls back to its first word,
// so multi-word queries still get an excerpt when only the leading
// word occurs verbatim.
func (e *Engine) result(doc *archive.Document, term string, exact bool) Result {
	return Result{
		ClipID:      doc.ID,
		Title:       doc.Title,
		Date:        doc.Date,
		MeetingBody: doc.MeetingBody,
		Topics:      doc.Topics,
		Snippet: snippet.Extract(doc.Content, term, snippet.Options{
			Context: e.cfg.SnippetContext,
			Exact:   exact,
		}),
		IsExactMatch: exact,
	}
}

// indexReader is the slice of the in-memory index the engine needs.
type indexReader interface {
	Search(term string, limit int) []int
	Get(id int) (*archive.Document, bool)
}
