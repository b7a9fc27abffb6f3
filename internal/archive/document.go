// Package archive reads the processed meeting-clip archive produced by
// the ingestion pipeline. Each clip lives under clips/<id>/ with a
// metadata.json describing the clip and pointing at its transcript and
// minutes text files.
package archive

import "strings"

// ContentSeparator joins transcript and minutes into a single
// searchable content string.
const ContentSeparator = "\n\n---\n\n"

// Document is one meeting clip's searchable record. Immutable once
// built; created at index-build time and read-only thereafter.
type Document struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	MeetingBody string   `json:"meeting_body"`
	Topics      []string `json:"topics"`
	Content     string   `json:"content"`
}

// JoinContent concatenates the text sources that exist for a clip.
// Empty sources are dropped so the separator never dangles.
func JoinContent(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ContentSeparator)
}
