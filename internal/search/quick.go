package search

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// QuickResult is one fuzzy title/topic hit, used for typeahead-style
// lookups that should tolerate typos and partial words.
type QuickResult struct {
	ClipID int    `json:"clip_id"`
	Title  string `json:"title"`
	Date   string `json:"date"`
	Score  int    `json:"score"`
}

// Quick fuzzy-matches the query against clip titles and topics rather
// than full-text content. It shares the loaded index but none of the
// full-text machinery; an unloaded index yields no results.
func (e *Engine) Quick(query string, limit int) []QuickResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}

	ix := e.loader.Index()
	if ix == nil {
		return nil
	}
	docs := ix.Docs()

	haystack := make([]string, len(docs))
	for i, doc := range docs {
		if len(doc.Topics) == 0 {
			haystack[i] = doc.Title
			continue
		}
		haystack[i] = doc.Title + " " + strings.Join(doc.Topics, " ")
	}

	matches := fuzzy.Find(query, haystack)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]QuickResult, 0, len(matches))
	for _, m := range matches {
		doc := docs[m.Index]
		results = append(results, QuickResult{
			ClipID: doc.ID,
			Title:  doc.Title,
			Date:   doc.Date,
			Score:  m.Score,
		})
	}
	return results
}
