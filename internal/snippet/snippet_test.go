package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_ShortContentReturnedWhole(t *testing.T) {
	content := "the budget committee met on tuesday"

	s := Extract(content, "budget", Options{Context: 120})
	require.NotNil(t, s)

	assert.Equal(t, content, s.Text)
	assert.Equal(t, "", s.Prefix)
	assert.Equal(t, "", s.Suffix)
	assert.Equal(t, "budget", s.Text[s.MatchStart:s.MatchEnd])
}

func TestExtract_MatchAtStartHasNoPrefix(t *testing.T) {
	content := "budget review " + strings.Repeat("and further discussion ", 20)

	s := Extract(content, "budget", Options{Context: 40})
	require.NotNil(t, s)

	assert.Equal(t, "", s.Prefix)
	assert.Equal(t, "...", s.Suffix)
	assert.Equal(t, 0, s.MatchStart)
}

func TestExtract_MidContentHasBothEllipses(t *testing.T) {
	content := strings.Repeat("preliminary remarks ", 20) +
		"rezoning " + strings.Repeat("closing remarks ", 20)

	s := Extract(content, "rezoning", Options{Context: 50})
	require.NotNil(t, s)

	assert.Equal(t, "...", s.Prefix)
	assert.Equal(t, "...", s.Suffix)
	assert.Equal(t, "rezoning", s.Text[s.MatchStart:s.MatchEnd])
	assert.LessOrEqual(t, len(s.Text), 2*50+len("rezoning"))
}

func TestExtract_WindowSnapsToWordBoundaries(t *testing.T) {
	content := strings.Repeat("alpha bravo charlie ", 30) +
		"target " + strings.Repeat("delta echo foxtrot ", 30)

	s := Extract(content, "target", Options{Context: 45})
	require.NotNil(t, s)

	// Trimmed edges never cut a word in half.
	assert.False(t, strings.HasPrefix(s.Text, "lpha"), "text %q starts mid-word", s.Text)
	first := strings.Fields(s.Text)[0]
	assert.Contains(t, []string{"alpha", "bravo", "charlie", "target"}, first)
	fields := strings.Fields(s.Text)
	last := fields[len(fields)-1]
	assert.Contains(t, []string{"delta", "echo", "foxtrot", "target"}, last)
}

func TestExtract_CaseInsensitive(t *testing.T) {
	s := Extract("the Budget committee met", "budget", Options{})
	require.NotNil(t, s)
	assert.Equal(t, "Budget", s.Text[s.MatchStart:s.MatchEnd])
}

func TestExtract_ExactRequiresWholeWord(t *testing.T) {
	content := "the Budget committee met"

	require.NotNil(t, Extract(content, "budget", Options{Exact: true}))
	// "budge" is a substring of "Budget" but not a whole word; exact
	// mode must not fall back to substring matching.
	assert.Nil(t, Extract(content, "budge", Options{Exact: true}))
}

func TestExtract_ExactMatchesAtStringEdges(t *testing.T) {
	require.NotNil(t, Extract("budget first", "budget", Options{Exact: true}))
	require.NotNil(t, Extract("last word budget", "budget", Options{Exact: true}))
	require.NotNil(t, Extract("(budget)", "budget", Options{Exact: true}))
}

func TestExtract_FreeFormFallsBackToFirstWord(t *testing.T) {
	content := "the price of the road project rose"

	// Full phrase "price rd" is absent; first word "price" is found.
	s := Extract(content, "price rd", Options{})
	require.NotNil(t, s)
	assert.Equal(t, "price", s.Text[s.MatchStart:s.MatchEnd])

	assert.Nil(t, Extract(content, "sewer line", Options{}))
}

func TestExtract_NoMatchReturnsNil(t *testing.T) {
	assert.Nil(t, Extract("some content", "absent", Options{}))
	assert.Nil(t, Extract("", "term", Options{}))
	assert.Nil(t, Extract("content", "  ", Options{}))
}

func TestWholeWordIndex(t *testing.T) {
	tests := []struct {
		name    string
		content string
		term    string
		want    int
	}{
		{"simple", "the budget committee", "budget", 4},
		{"case insensitive", "the Budget committee", "budget", 4},
		{"start of string", "budget talks", "budget", 0},
		{"end of string", "annual budget", "budget", 7},
		{"punctuation bounded", "item (budget) next", "budget", 6},
		{"inside larger word skipped", "budgetary talks", "budget", -1},
		{"second occurrence is whole", "budgetary budget", "budget", 10},
		{"phrase", "the Price Road project", "price road", 4},
		{"absent", "nothing here", "budget", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WholeWordIndex(tt.content, tt.term))
		})
	}
}
