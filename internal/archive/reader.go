package archive

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	cerrors "github.com/opencivic/civicsearch/internal/errors"
)

// clipMetadata mirrors the pipeline's per-clip metadata.json.
type clipMetadata struct {
	ClipID      int               `json:"clip_id"`
	Title       string            `json:"title"`
	Date        string            `json:"date"`
	MeetingBody string            `json:"meeting_body"`
	Topics      []string          `json:"topics"`
	Files       map[string]string `json:"files"`
}

// ReadClips scans dir/clips/ and returns one Document per readable
// clip, ordered by ascending clip id. Clips with unreadable metadata
// or no text content at all are skipped silently (logged at warn),
// matching the pipeline's per-clip error swallowing.
func ReadClips(dir string) ([]*Document, error) {
	clipsDir := filepath.Join(dir, "clips")
	entries, err := os.ReadDir(clipsDir)
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeArchiveNotFound,
			"clips directory not found: "+clipsDir, err)
	}

	var ids []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	docs := make([]*Document, 0, len(ids))
	for _, id := range ids {
		doc, ok := readClip(filepath.Join(clipsDir, strconv.Itoa(id)), id)
		if !ok {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// readClip builds a Document from one clip directory. Returns false if
// the clip has no usable text content.
func readClip(clipDir string, id int) (*Document, bool) {
	data, err := os.ReadFile(filepath.Join(clipDir, "metadata.json"))
	if err != nil {
		slog.Warn("skipping clip: metadata unreadable",
			slog.Int("clip_id", id), slog.String("error", err.Error()))
		return nil, false
	}

	var meta clipMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		slog.Warn("skipping clip: metadata invalid",
			slog.Int("clip_id", id), slog.String("error", err.Error()))
		return nil, false
	}

	transcript := readTextFile(clipDir, meta.Files["transcript"])
	minutes := readTextFile(clipDir, meta.Files["minutes_txt"])

	content := JoinContent(transcript, minutes)
	if content == "" {
		slog.Warn("skipping clip: no text content", slog.Int("clip_id", id))
		return nil, false
	}

	clipID := meta.ClipID
	if clipID == 0 {
		clipID = id
	}

	return &Document{
		ID:          clipID,
		Title:       meta.Title,
		Date:        meta.Date,
		MeetingBody: meta.MeetingBody,
		Topics:      meta.Topics,
		Content:     content,
	}, true
}

// readTextFile reads a file listed in clip metadata. Missing entries
// and read failures both yield empty text.
func readTextFile(clipDir, name string) string {
	if name == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(clipDir, name))
	if err != nil {
		return ""
	}
	return string(data)
}
