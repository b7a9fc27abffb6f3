package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencivic/civicsearch/internal/search"
	"github.com/opencivic/civicsearch/internal/snippet"
)

func TestWriter_StatusMessages(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Success("Index built")
	w.Warning("Clip skipped")
	w.Errorf("build failed: %s", "locked")

	out := buf.String()
	assert.Contains(t, out, "✅ Index built")
	assert.Contains(t, out, "Clip skipped")
	assert.Contains(t, out, "❌ build failed: locked")
}

func TestWriter_Results_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Results(nil)
	assert.Contains(t, buf.String(), "No results.")
}

func TestWriter_Results_RendersHits(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Results([]search.Result{
		{
			ClipID:      7,
			Title:       "Budget Hearing",
			Date:        "2024-03-12",
			MeetingBody: "City Council",
			Topics:      []string{"finance"},
			Snippet: &snippet.Snippet{
				Text:       "the annual budget was approved",
				MatchStart: 11,
				MatchEnd:   17,
				Suffix:     "...",
			},
			IsExactMatch: true,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "1. Budget Hearing")
	assert.Contains(t, out, "clip 7 · 2024-03-12 · City Council · finance · exact")
	// Without color the match span is bracketed.
	assert.Contains(t, out, "the annual [budget] was approved...")
}

func TestWriter_Results_SnippetOptional(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Results([]search.Result{
		{ClipID: 1, Title: "No Snippet", Date: "2024-01-01", MeetingBody: "Board"},
	})

	assert.Contains(t, buf.String(), "No Snippet")
}
