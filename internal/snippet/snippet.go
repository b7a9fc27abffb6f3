// Package snippet extracts a bounded excerpt of document content
// around the first query match, with highlight offsets relative to
// the excerpt. Window edges snap to word boundaries so the excerpt
// never cuts a word in half.
package snippet

import (
	"strings"
	"unicode/utf8"

	"github.com/opencivic/civicsearch/internal/store"
)

// DefaultContext is the number of bytes of surrounding content kept on
// each side of the match.
const DefaultContext = 120

// Snippet is a match excerpt. MatchStart and MatchEnd are byte offsets
// into Text, not into the source content. Prefix and Suffix hold "..."
// when content was truncated on that side and "" at a content edge.
type Snippet struct {
	Text       string `json:"text"`
	MatchStart int    `json:"matchStart"`
	MatchEnd   int    `json:"matchEnd"`
	Prefix     string `json:"prefix"`
	Suffix     string `json:"suffix"`
}

// Options controls extraction.
type Options struct {
	// Context is the window size on each side of the match. Zero means
	// DefaultContext.
	Context int

	// Exact requires a whole-word occurrence of the term. Free-form
	// extraction falls back from the full term to its first word;
	// exact extraction never falls back.
	Exact bool
}

// Extract locates the first occurrence of term in content and returns
// the surrounding excerpt, or nil when the term does not occur under
// the requested matching rule.
func Extract(content, term string, opts Options) *Snippet {
	if content == "" || strings.TrimSpace(term) == "" {
		return nil
	}
	ctx := opts.Context
	if ctx <= 0 {
		ctx = DefaultContext
	}

	var matchIdx, matchLen int
	if opts.Exact {
		matchIdx = WholeWordIndex(content, term)
		matchLen = len(term)
	} else {
		matchIdx, matchLen = freeFormIndex(content, term)
	}
	if matchIdx < 0 {
		return nil
	}

	start := matchIdx - ctx
	if start < 0 {
		start = 0
	}
	end := matchIdx + matchLen + ctx
	if end > len(content) {
		end = len(content)
	}

	// A trimmed edge starts or ends mid-word; snap it to the nearest
	// boundary on the inside, unless that would eat into the match.
	if start > 0 {
		start = snapStart(content, start, matchIdx)
	}
	if end < len(content) {
		end = snapEnd(content, end, matchIdx+matchLen)
	}

	s := &Snippet{
		Text:       content[start:end],
		MatchStart: matchIdx - start,
		MatchEnd:   matchIdx - start + matchLen,
	}
	if start > 0 {
		s.Prefix = "..."
	}
	if end < len(content) {
		s.Suffix = "..."
	}
	return s
}

// WholeWordIndex returns the byte offset of the first case-insensitive
// occurrence of term in content bounded by non-word characters or the
// string edges, or -1. The boundary rule matches the index tokenizer.
func WholeWordIndex(content, term string) int {
	term = strings.ToLower(term)
	lower := strings.ToLower(content)
	from := 0
	for {
		i := strings.Index(lower[from:], term)
		if i < 0 {
			return -1
		}
		i += from
		if boundaryBefore(lower, i) && boundaryAfter(lower, i+len(term)) {
			return i
		}
		from = i + 1
	}
}

// freeFormIndex finds the full term, then falls back to its first
// whitespace-delimited word. Returns offset and matched length, or
// (-1, 0).
func freeFormIndex(content, term string) (int, int) {
	lower := strings.ToLower(content)
	term = strings.ToLower(strings.TrimSpace(term))

	if i := strings.Index(lower, term); i >= 0 {
		return i, len(term)
	}
	words := strings.Fields(term)
	if len(words) > 1 {
		if i := strings.Index(lower, words[0]); i >= 0 {
			return i, len(words[0])
		}
	}
	return -1, 0
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return store.IsBoundary(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return store.IsBoundary(r)
}

// snapStart advances a trimmed window start past the partial word it
// landed in. The start never moves past the match itself.
func snapStart(content string, start, matchIdx int) int {
	if boundaryBefore(content, start) {
		return start
	}
	for i := start; i < matchIdx; {
		r, size := utf8.DecodeRuneInString(content[i:])
		if store.IsBoundary(r) {
			return i + size
		}
		i += size
	}
	return start
}

// snapEnd pulls a trimmed window end back before the partial word it
// landed in. The end never moves back into the match.
func snapEnd(content string, end, matchEnd int) int {
	if boundaryAfter(content, end) {
		return end
	}
	for i := end; i > matchEnd; {
		r, size := utf8.DecodeLastRuneInString(content[:i])
		if store.IsBoundary(r) {
			return i - size
		}
		i -= size
	}
	return end
}
