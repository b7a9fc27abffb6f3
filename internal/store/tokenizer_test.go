package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_SplitsOnWhitespaceAndPunctuation(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "whitespace",
			input:  "budget committee met",
			expect: []string{"budget", "committee", "met"},
		},
		{
			name:   "punctuation",
			input:  "Motion carried, 5-2. Adjourned.",
			expect: []string{"motion", "carried", "5", "2", "adjourned"},
		},
		{
			name:   "mixed separators",
			input:  "Price Road (SR-101): widening",
			expect: []string{"price", "road", "sr", "101", "widening"},
		},
		{
			name:   "empty",
			input:  "",
			expect: nil,
		},
		{
			name:   "only boundaries",
			input:  " ,.;! ",
			expect: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, TokenTexts(tt.input))
		})
	}
}

func TestTokenize_Lowercases(t *testing.T) {
	tokens := Tokenize("Budget HEARING")
	require.Len(t, tokens, 2)
	assert.Equal(t, "budget", tokens[0].Text)
	assert.Equal(t, "hearing", tokens[1].Text)
}

func TestTokenize_RecordsByteOffsets(t *testing.T) {
	tokens := Tokenize("the Budget committee")
	require.Len(t, tokens, 3)
	assert.Equal(t, 0, tokens[0].Start)
	assert.Equal(t, 4, tokens[1].Start)
	assert.Equal(t, 11, tokens[2].Start)
}

func TestIsBoundary(t *testing.T) {
	for _, r := range " \t\n.,;:!?()[]\"'-/" {
		assert.True(t, IsBoundary(r), string(r))
	}
	for _, r := range "aZ09é" {
		assert.False(t, IsBoundary(r), string(r))
	}
}
