// Package telemetry collects local query metrics: mode frequency, top
// terms, zero-result queries, and a latency histogram. All data stays
// on the local machine; nothing is reported externally.
package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// QueryMode classifies a search query by how it was executed.
type QueryMode string

const (
	ModeExact      QueryMode = "exact"
	ModeSingleWord QueryMode = "single"
	ModeMultiWord  QueryMode = "multi"
)

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketUnder1ms   LatencyBucket = "lt1ms"
	BucketUnder10ms  LatencyBucket = "lt10ms"
	BucketUnder50ms  LatencyBucket = "lt50ms"
	BucketUnder200ms LatencyBucket = "lt200ms"
	BucketSlow       LatencyBucket = "slow"
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < time.Millisecond:
		return BucketUnder1ms
	case d < 10*time.Millisecond:
		return BucketUnder10ms
	case d < 50*time.Millisecond:
		return BucketUnder50ms
	case d < 200*time.Millisecond:
		return BucketUnder200ms
	default:
		return BucketSlow
	}
}

// TermCount is a query term and its frequency.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// ExtractTerms splits a query into lowercased terms of length >= 3.
func ExtractTerms(query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var terms []string
	for _, w := range strings.Fields(query) {
		if len(w) >= 3 {
			terms = append(terms, w)
		}
	}
	return terms
}

// Snapshot is an immutable view of collected metrics.
type Snapshot struct {
	ModeCounts          map[QueryMode]int64     `json:"mode_counts"`
	TopTerms            []TermCount             `json:"top_terms"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TotalQueries        int64                   `json:"total_queries"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of queries with no results.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

// Config configures the collector.
type Config struct {
	// TopTermsCapacity bounds the tracked term set.
	TopTermsCapacity int

	// ZeroResultsCapacity bounds the in-memory zero-result buffer.
	ZeroResultsCapacity int

	// FlushInterval is how often metrics are flushed to the store.
	// Zero disables auto-flush.
	FlushInterval time.Duration
}

// DefaultConfig returns the default collector configuration.
func DefaultConfig() Config {
	return Config{
		TopTermsCapacity:    100,
		ZeroResultsCapacity: 100,
		FlushInterval:       60 * time.Second,
	}
}

// Collector aggregates query metrics in memory and periodically
// flushes them to a Store. It satisfies the search engine's recorder
// interface; all methods are safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	modes        map[QueryMode]int64
	topTerms     *lru.Cache[string, int64]
	zeroResults  []string
	latencies    map[LatencyBucket]int64
	totalQueries int64
	zeroCount    int64
	since        time.Time

	// Deltas accumulated since the last flush, so a flush never
	// double-counts what an earlier flush already persisted.
	pendingModes     map[QueryMode]int64
	pendingTerms     map[string]int64
	pendingZero      []zeroQuery
	pendingLatencies map[LatencyBucket]int64

	store  Store
	cfg    Config
	ticker *time.Ticker
	stop   chan struct{}
	closed bool
}

type zeroQuery struct {
	query string
	at    time.Time
}

// NewCollector creates a Collector. A nil store keeps metrics in
// memory only.
func NewCollector(store Store, cfg Config) *Collector {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = 100
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = 100
	}
	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)

	c := &Collector{
		modes:            make(map[QueryMode]int64),
		topTerms:         topTerms,
		latencies:        make(map[LatencyBucket]int64),
		since:            time.Now(),
		pendingModes:     make(map[QueryMode]int64),
		pendingTerms:     make(map[string]int64),
		pendingLatencies: make(map[LatencyBucket]int64),
		store:            store,
		cfg:              cfg,
		stop:             make(chan struct{}),
	}
	if cfg.FlushInterval > 0 && store != nil {
		c.ticker = time.NewTicker(cfg.FlushInterval)
		go c.flushLoop()
	}
	return c
}

func (c *Collector) flushLoop() {
	for {
		select {
		case <-c.ticker.C:
			_ = c.Flush()
		case <-c.stop:
			return
		}
	}
}

// RecordQuery captures one executed search query.
func (c *Collector) RecordQuery(term string, exact bool, results int, elapsed time.Duration) {
	mode := ModeSingleWord
	switch {
	case exact:
		mode = ModeExact
	case len(strings.Fields(term)) > 1:
		mode = ModeMultiWord
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.modes[mode]++
	c.pendingModes[mode]++
	c.totalQueries++

	for _, t := range ExtractTerms(term) {
		count, _ := c.topTerms.Get(t)
		c.topTerms.Add(t, count+1)
		c.pendingTerms[t]++
	}

	if results == 0 {
		c.zeroCount++
		c.zeroResults = append(c.zeroResults, term)
		if len(c.zeroResults) > c.cfg.ZeroResultsCapacity {
			c.zeroResults = c.zeroResults[1:]
		}
		c.pendingZero = append(c.pendingZero, zeroQuery{query: term, at: time.Now()})
	}

	bucket := LatencyToBucket(elapsed)
	c.latencies[bucket]++
	c.pendingLatencies[bucket]++
}

// Snapshot returns the metrics collected since startup.
func (c *Collector) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	modes := make(map[QueryMode]int64, len(c.modes))
	for k, v := range c.modes {
		modes[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(c.latencies))
	for k, v := range c.latencies {
		latencies[k] = v
	}

	var terms []TermCount
	for _, key := range c.topTerms.Keys() {
		if count, ok := c.topTerms.Peek(key); ok {
			terms = append(terms, TermCount{Term: key, Count: count})
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})

	zero := make([]string, len(c.zeroResults))
	copy(zero, c.zeroResults)

	return &Snapshot{
		ModeCounts:          modes,
		TopTerms:            terms,
		ZeroResultQueries:   zero,
		LatencyDistribution: latencies,
		TotalQueries:        c.totalQueries,
		ZeroResultCount:     c.zeroCount,
		Since:               c.since,
	}
}

// Flush persists metrics accumulated since the previous flush. Safe to
// call with no store configured.
func (c *Collector) Flush() error {
	if c.store == nil {
		return nil
	}

	c.mu.Lock()
	modes := c.pendingModes
	terms := c.pendingTerms
	zero := c.pendingZero
	latencies := c.pendingLatencies
	c.pendingModes = make(map[QueryMode]int64)
	c.pendingTerms = make(map[string]int64)
	c.pendingZero = nil
	c.pendingLatencies = make(map[LatencyBucket]int64)
	c.mu.Unlock()

	today := time.Now().Format("2006-01-02")
	if len(modes) > 0 {
		if err := c.store.SaveModeCounts(today, modes); err != nil {
			return err
		}
	}
	if err := c.store.UpsertTermCounts(terms); err != nil {
		return err
	}
	for _, z := range zero {
		if err := c.store.AddZeroResultQuery(z.query, z.at); err != nil {
			return err
		}
	}
	if len(latencies) > 0 {
		if err := c.store.SaveLatencyCounts(today, latencies); err != nil {
			return err
		}
	}
	return nil
}

// Close stops auto-flush and writes any unflushed metrics.
func (c *Collector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.ticker != nil {
		c.ticker.Stop()
		close(c.stop)
	}
	return c.Flush()
}
