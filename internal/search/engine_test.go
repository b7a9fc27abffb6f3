package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/civicsearch/internal/archive"
	"github.com/opencivic/civicsearch/internal/index"
	"github.com/opencivic/civicsearch/internal/loader"
)

func clip(id int, title, content string) *archive.Document {
	return &archive.Document{
		ID:          id,
		Title:       title,
		Date:        "2024-04-02",
		MeetingBody: "City Council",
		Topics:      []string{"general"},
		Content:     content,
	}
}

// newEngine builds a real chunked index, serves it over HTTP, loads
// it, and returns an engine over the loaded index.
func newEngine(t *testing.T, docs []*archive.Document, opts ...Option) *Engine {
	t.Helper()
	dir := t.TempDir()
	_, err := index.NewBuilder(index.DefaultBuilderConfig()).Build(docs, dir)
	require.NoError(t, err)

	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(srv.Close)

	l := loader.New(loader.Config{BaseURL: srv.URL})
	require.NoError(t, l.Load(context.Background()))
	return NewEngine(DefaultConfig(), l, opts...)
}

func resultIDs(results []Result) []int {
	ids := make([]int, len(results))
	for i, r := range results {
		ids[i] = r.ClipID
	}
	return ids
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		raw   string
		term  string
		exact bool
	}{
		{`"budget"`, "budget", true},
		{`"price road"`, "price road", true},
		{`budget`, "budget", false},
		{`  price road  `, "price road", false},
		{`""`, `""`, false},
		{`"x"`, "x", true},
		{`"unclosed`, `"unclosed`, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			term, exact := parseQuery(tt.raw)
			assert.Equal(t, tt.term, term)
			assert.Equal(t, tt.exact, exact)
		})
	}
}

func TestSearch_ExactWholeWord(t *testing.T) {
	e := newEngine(t, []*archive.Document{
		clip(1, "Budget Session", "the Budget committee met"),
	})

	got := e.Search(`"budget"`, 10)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ClipID)
	assert.True(t, got[0].IsExactMatch)
	require.NotNil(t, got[0].Snippet)
	assert.Equal(t, "Budget",
		got[0].Snippet.Text[got[0].Snippet.MatchStart:got[0].Snippet.MatchEnd])

	// "budge" appears only inside "Budget"; exact mode never falls
	// back to substring matching.
	assert.Empty(t, e.Search(`"budge"`, 10))
}

func TestSearch_ExactPhrase(t *testing.T) {
	e := newEngine(t, []*archive.Document{
		clip(1, "a", "the price road widening project"),
		clip(2, "b", "discussion of price and road conditions separately"),
	})

	got := e.Search(`"price road"`, 10)
	assert.Equal(t, []int{1}, resultIDs(got))
}

func TestSearch_SingleWordPrefix(t *testing.T) {
	e := newEngine(t, []*archive.Document{
		clip(1, "a", "the rezoning ordinance passed"),
		clip(2, "b", "unrelated minutes"),
	})

	got := e.Search("rezon", 10)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ClipID)
	assert.False(t, got[0].IsExactMatch)
}

func TestSearch_MultiWordPartialCredit(t *testing.T) {
	e := newEngine(t, []*archive.Document{
		clip(1, "a", "the price road widening"),
		clip(2, "b", "sewer line maintenance"),
		clip(3, "c", "price of the Gilbert rd repaving"),
	})

	// "rd" is not a prefix of "road", so clip 1 gets credit for
	// "price" only; clip 3 matches both words and ranks first; clip 2
	// matches neither and is absent.
	got := e.Search("price rd", 10)
	assert.Equal(t, []int{3, 1}, resultIDs(got))
}

func TestSearch_MultiWordSnippetFallsBackToFirstWord(t *testing.T) {
	e := newEngine(t, []*archive.Document{
		clip(1, "a", "the price went up before the road vote"),
	})

	got := e.Search("price road", 10)
	require.Len(t, got, 1)
	s := got[0].Snippet
	require.NotNil(t, s)
	assert.Equal(t, "price", s.Text[s.MatchStart:s.MatchEnd])
}

func TestSearch_EmptyAndWhitespaceQueries(t *testing.T) {
	e := newEngine(t, []*archive.Document{clip(1, "a", "content here")})

	assert.Empty(t, e.Search("", 10))
	assert.Empty(t, e.Search("   \t ", 10))
}

func TestSearch_UnloadedIndexReturnsEmpty(t *testing.T) {
	l := loader.New(loader.Config{BaseURL: "http://127.0.0.1:0"})
	e := NewEngine(DefaultConfig(), l)

	assert.Empty(t, e.Search("budget", 10))
}

func TestSearch_LimitAndDefaults(t *testing.T) {
	docs := make([]*archive.Document, 30)
	for i := range docs {
		docs[i] = clip(i+1, fmt.Sprintf("m%d", i+1), "the transit plan review")
	}
	e := newEngine(t, docs)

	assert.Len(t, e.Search("transit", 5), 5)
	// limit <= 0 falls back to the configured default.
	assert.Len(t, e.Search("transit", 0), 30)
}

func TestSearch_DeterministicOrdering(t *testing.T) {
	e := newEngine(t, []*archive.Document{
		clip(1, "a", "roads roads repair"),
		clip(2, "b", "roads budget"),
		clip(3, "c", "roads roads roads"),
	})

	first := resultIDs(e.Search("roads", 10))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, resultIDs(e.Search("roads", 10)))
	}
}

type captureRecorder struct {
	terms []string
	exact []bool
	count []int
}

func (r *captureRecorder) RecordQuery(term string, exact bool, results int, _ time.Duration) {
	r.terms = append(r.terms, term)
	r.exact = append(r.exact, exact)
	r.count = append(r.count, results)
}

func TestSearch_RecordsMetricsOnMiss(t *testing.T) {
	rec := &captureRecorder{}
	e := newEngine(t, []*archive.Document{
		clip(1, "a", "water rates discussion"),
	}, WithRecorder(rec))

	e.Search("water", 10)
	e.Search(`"missing phrase"`, 10)
	// A cache hit skips the recorder.
	e.Search("water", 10)

	require.Len(t, rec.terms, 2)
	assert.Equal(t, []string{"water", "missing phrase"}, rec.terms)
	assert.Equal(t, []bool{false, true}, rec.exact)
	assert.Equal(t, []int{1, 0}, rec.count)
}

func TestQuick_FuzzyTitleMatch(t *testing.T) {
	e := newEngine(t, []*archive.Document{
		clip(1, "Annual Budget Hearing", "transcript text"),
		clip(2, "Parks Advisory Board", "transcript text"),
	})

	got := e.Quick("budget", 10)
	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[0].ClipID)
	assert.Equal(t, "Annual Budget Hearing", got[0].Title)

	assert.Empty(t, e.Quick("  ", 10))
}
