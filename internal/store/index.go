// Package store holds the in-memory search index built from loaded
// chunks. Documents are kept whole (forward index) alongside an
// inverted token index where lookups match by token prefix. The index
// is built once per process and is read-only afterwards, so the query
// path takes no locks.
package store

import (
	"sort"
	"strings"

	"github.com/opencivic/civicsearch/internal/archive"
)

// Config configures index construction.
type Config struct {
	// MinTokenLength is the minimum token length to index (default: 1).
	MinTokenLength int

	// ContextWindow is the bidirectional neighbor distance registered
	// at index time. Token pairs within this window contribute
	// proximity scoring for multi-token lookups (default: 2).
	ContextWindow int
}

// DefaultConfig returns sensible index defaults.
func DefaultConfig() Config {
	return Config{
		MinTokenLength: 1,
		ContextWindow:  2,
	}
}

// posting aggregates one document's occurrences of a token.
type posting struct {
	docID    int
	count    int
	firstPos int
}

// MemoryIndex is the process-wide in-memory search index.
type MemoryIndex struct {
	cfg Config

	docs    map[int]*archive.Document
	order   []int       // insertion order of document ids
	ordinal map[int]int // docID -> insertion sequence

	postings map[string][]posting   // token -> per-doc aggregates, insertion order
	pairs    map[string]map[int]int // "a\x00b" -> docID -> co-occurrence count

	sortedTokens []string // built by Finalize for prefix range scans
	finalized    bool
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex(cfg Config) *MemoryIndex {
	if cfg.MinTokenLength <= 0 {
		cfg.MinTokenLength = 1
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 2
	}
	return &MemoryIndex{
		cfg:      cfg,
		docs:     make(map[int]*archive.Document),
		ordinal:  make(map[int]int),
		postings: make(map[string][]posting),
		pairs:    make(map[string]map[int]int),
	}
}

// Insert adds a document to the index. Inserting an id twice replaces
// nothing; the second insert is ignored so chunk overlap bugs cannot
// duplicate postings.
func (ix *MemoryIndex) Insert(doc *archive.Document) {
	if _, exists := ix.docs[doc.ID]; exists {
		return
	}
	ix.docs[doc.ID] = doc
	ix.ordinal[doc.ID] = len(ix.order)
	ix.order = append(ix.order, doc.ID)

	tokens := Tokenize(doc.Content)

	// Aggregate counts and first positions per token.
	type agg struct {
		count    int
		firstPos int
	}
	seen := make(map[string]*agg)
	var tokenOrder []string
	for _, tok := range tokens {
		if len(tok.Text) < ix.cfg.MinTokenLength {
			continue
		}
		if a, ok := seen[tok.Text]; ok {
			a.count++
		} else {
			seen[tok.Text] = &agg{count: 1, firstPos: tok.Start}
			tokenOrder = append(tokenOrder, tok.Text)
		}
	}
	for _, text := range tokenOrder {
		a := seen[text]
		ix.postings[text] = append(ix.postings[text], posting{
			docID:    doc.ID,
			count:    a.count,
			firstPos: a.firstPos,
		})
	}

	// Register token pairs within the context window, both directions.
	for i := range tokens {
		hi := i + ix.cfg.ContextWindow
		if hi >= len(tokens) {
			hi = len(tokens) - 1
		}
		for j := i + 1; j <= hi; j++ {
			ix.addPair(tokens[i].Text, tokens[j].Text, doc.ID)
			ix.addPair(tokens[j].Text, tokens[i].Text, doc.ID)
		}
	}

	ix.finalized = false
}

func (ix *MemoryIndex) addPair(a, b string, docID int) {
	key := a + "\x00" + b
	m := ix.pairs[key]
	if m == nil {
		m = make(map[int]int)
		ix.pairs[key] = m
	}
	m[docID]++
}

// Finalize sorts the token table for prefix range scans. Must be
// called after the last Insert and before the index is published for
// querying.
func (ix *MemoryIndex) Finalize() {
	ix.sortedTokens = make([]string, 0, len(ix.postings))
	for token := range ix.postings {
		ix.sortedTokens = append(ix.sortedTokens, token)
	}
	sort.Strings(ix.sortedTokens)
	ix.finalized = true
}

// Get returns a document by id.
func (ix *MemoryIndex) Get(id int) (*archive.Document, bool) {
	doc, ok := ix.docs[id]
	return doc, ok
}

// Len returns the number of indexed documents.
func (ix *MemoryIndex) Len() int {
	return len(ix.order)
}

// Docs returns all documents in insertion order.
func (ix *MemoryIndex) Docs() []*archive.Document {
	out := make([]*archive.Document, len(ix.order))
	for i, id := range ix.order {
		out[i] = ix.docs[id]
	}
	return out
}

// Search returns up to limit document ids matching term, best first.
// Single-token terms match by token prefix. Multi-token terms require
// every token to match and rank documents where the tokens co-occur
// within the context window above ones where they are merely present,
// which makes the result a candidate superset for whole-phrase
// filtering by the caller.
func (ix *MemoryIndex) Search(term string, limit int) []int {
	if limit <= 0 {
		return nil
	}
	words := TokenTexts(term)
	if len(words) == 0 {
		return nil
	}
	if !ix.finalized {
		ix.Finalize()
	}

	if len(words) == 1 {
		return ix.searchPrefix(words[0], limit)
	}
	return ix.searchPhrase(words, limit)
}

// docScore accumulates ranking signals for one document.
type docScore struct {
	docID     int
	exact     bool // matched a full token, not just a prefix
	pairScore int
	count     int
	firstPos  int
}

// rank orders scored documents deterministically: exact-token hits
// before prefix-only hits, then occurrence count, proximity score,
// earliest first occurrence, and finally insertion order.
func (ix *MemoryIndex) rank(scores map[int]*docScore, limit int) []int {
	out := make([]*docScore, 0, len(scores))
	for _, s := range scores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.exact != b.exact {
			return a.exact
		}
		if a.pairScore != b.pairScore {
			return a.pairScore > b.pairScore
		}
		if a.count != b.count {
			return a.count > b.count
		}
		if a.firstPos != b.firstPos {
			return a.firstPos < b.firstPos
		}
		return ix.ordinal[a.docID] < ix.ordinal[b.docID]
	})

	if len(out) > limit {
		out = out[:limit]
	}
	ids := make([]int, len(out))
	for i, s := range out {
		ids[i] = s.docID
	}
	return ids
}

// searchPrefix gathers documents for every indexed token sharing the
// given prefix.
func (ix *MemoryIndex) searchPrefix(word string, limit int) []int {
	scores := make(map[int]*docScore)
	ix.collectPrefix(word, func(token string, p posting) {
		s := scores[p.docID]
		if s == nil {
			s = &docScore{docID: p.docID, firstPos: p.firstPos}
			scores[p.docID] = s
		}
		s.count += p.count
		if token == word {
			s.exact = true
		}
		if p.firstPos < s.firstPos {
			s.firstPos = p.firstPos
		}
	})
	return ix.rank(scores, limit)
}

// searchPhrase intersects per-word prefix matches and boosts
// documents where adjacent query words co-occur within the context
// window.
func (ix *MemoryIndex) searchPhrase(words []string, limit int) []int {
	var scores map[int]*docScore

	for _, word := range words {
		wordDocs := make(map[int]*docScore)
		ix.collectPrefix(word, func(token string, p posting) {
			s := wordDocs[p.docID]
			if s == nil {
				s = &docScore{docID: p.docID, firstPos: p.firstPos}
				wordDocs[p.docID] = s
			}
			s.count += p.count
			if token == word {
				s.exact = true
			}
			if p.firstPos < s.firstPos {
				s.firstPos = p.firstPos
			}
		})

		if scores == nil {
			scores = wordDocs
			continue
		}
		// Intersect: every query word must match.
		for id, s := range scores {
			w, ok := wordDocs[id]
			if !ok {
				delete(scores, id)
				continue
			}
			s.count += w.count
			s.exact = s.exact && w.exact
			if w.firstPos < s.firstPos {
				s.firstPos = w.firstPos
			}
		}
	}
	if len(scores) == 0 {
		return nil
	}

	// Proximity boost from context pairs of adjacent query words.
	for i := 0; i+1 < len(words); i++ {
		if pairDocs, ok := ix.pairs[words[i]+"\x00"+words[i+1]]; ok {
			for id, n := range pairDocs {
				if s, ok := scores[id]; ok {
					s.pairScore += n
				}
			}
		}
	}

	return ix.rank(scores, limit)
}

// collectPrefix invokes fn for every posting of every token with the
// given prefix.
func (ix *MemoryIndex) collectPrefix(word string, fn func(token string, p posting)) {
	start := sort.SearchStrings(ix.sortedTokens, word)
	for i := start; i < len(ix.sortedTokens); i++ {
		token := ix.sortedTokens[i]
		if !strings.HasPrefix(token, word) {
			break
		}
		for _, p := range ix.postings[token] {
			fn(token, p)
		}
	}
}
