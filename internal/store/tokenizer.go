package store

import (
	"strings"
	"unicode"
)

// Token is a single word occurrence within source text.
type Token struct {
	// Text is the lowercased token.
	Text string
	// Start is the byte offset of the token in the original text.
	Start int
}

// IsBoundary classifies a rune as a word boundary. Boundaries are
// whitespace and punctuation-class characters; string edges are
// boundaries by definition. Letters and digits are word runes.
func IsBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Tokenize splits text into lowercased word tokens using boundary
// classification rather than a regex, so matching behavior cannot
// drift between dialects.
func Tokenize(text string) []Token {
	var tokens []Token

	start := -1
	for i, r := range text {
		if IsBoundary(r) {
			if start >= 0 {
				tokens = append(tokens, Token{
					Text:  strings.ToLower(text[start:i]),
					Start: start,
				})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{
			Text:  strings.ToLower(text[start:]),
			Start: start,
		})
	}

	return tokens
}

// TokenTexts returns just the token strings, for callers that do not
// need offsets.
func TokenTexts(text string) []string {
	tokens := Tokenize(text)
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}
