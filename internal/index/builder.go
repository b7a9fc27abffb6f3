package index

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/opencivic/civicsearch/internal/archive"
	cerrors "github.com/opencivic/civicsearch/internal/errors"
)

// BuilderConfig configures index generation.
type BuilderConfig struct {
	// TargetChunkBytes is the serialized chunk size target. Chunk
	// count is derived from total serialized size; documents are then
	// sliced by count, not byte-balanced, so individual chunks may
	// land over or under the target.
	TargetChunkBytes int
}

// DefaultBuilderConfig returns the default builder configuration.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		TargetChunkBytes: DefaultTargetChunkBytes,
	}
}

// Builder writes chunk and manifest files for a document set.
type Builder struct {
	cfg BuilderConfig
}

// NewBuilder creates a Builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	if cfg.TargetChunkBytes <= 0 {
		cfg.TargetChunkBytes = DefaultTargetChunkBytes
	}
	return &Builder{cfg: cfg}
}

// Build regenerates the index under outDir from the given documents.
// Any previously generated chunk and manifest files are deleted first;
// generation is full, never incremental. Documents without text
// content are skipped. An exclusive file lock serializes concurrent
// builds against the same directory.
func (b *Builder) Build(docs []*archive.Document, outDir string) (*Manifest, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeIndexWrite, err)
	}

	lock := flock.New(filepath.Join(outDir, ".build.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeIndexWrite, err)
	}
	if !locked {
		return nil, cerrors.New(cerrors.ErrCodeBuildLocked,
			"another index build is in progress: "+outDir, nil)
	}
	defer func() { _ = lock.Unlock() }()

	if err := removeGenerated(outDir); err != nil {
		return nil, err
	}

	// Serialize every document once to size the chunk set.
	type sized struct {
		doc  *archive.Document
		data []byte
	}
	var kept []sized
	var totalSize int
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			slog.Warn("excluding clip with no content", slog.Int("clip_id", doc.ID))
			continue
		}
		data, err := json.Marshal(doc)
		if err != nil {
			// Per-document failures exclude the document, not the build.
			slog.Warn("excluding unserializable clip",
				slog.Int("clip_id", doc.ID), slog.String("error", err.Error()))
			continue
		}
		kept = append(kept, sized{doc: doc, data: data})
		totalSize += len(data)
	}

	numChunks := 1
	if totalSize > b.cfg.TargetChunkBytes {
		numChunks = ceilDiv(totalSize, b.cfg.TargetChunkBytes)
	}
	docsPerChunk := 1
	if len(kept) > 0 {
		docsPerChunk = ceilDiv(len(kept), numChunks)
		// Count-based slicing may need fewer chunks than the size
		// estimate suggested.
		numChunks = ceilDiv(len(kept), docsPerChunk)
	}

	manifest := &Manifest{
		Version:     FormatVersion,
		Created:     time.Now().UTC(),
		TotalClips:  len(kept),
		TotalChunks: numChunks,
	}

	for i := 0; i < numChunks; i++ {
		lo := i * docsPerChunk
		hi := lo + docsPerChunk
		if hi > len(kept) {
			hi = len(kept)
		}

		chunkDocs := make([]*archive.Document, 0, hi-lo)
		clipIDs := make([]int, 0, hi-lo)
		for _, s := range kept[lo:hi] {
			chunkDocs = append(chunkDocs, s.doc)
			clipIDs = append(clipIDs, s.doc.ID)
		}

		chunk := &ChunkFile{
			Version:     FormatVersion,
			ChunkIndex:  i,
			TotalChunks: numChunks,
			Documents:   chunkDocs,
		}
		filename := ChunkFilename(i)
		size, err := writeJSON(filepath.Join(outDir, filename), chunk)
		if err != nil {
			return nil, err
		}

		manifest.Chunks = append(manifest.Chunks, ChunkMeta{
			Filename:  filename,
			Size:      size,
			ClipCount: len(chunkDocs),
			ClipIDs:   clipIDs,
		})
	}

	if _, err := writeJSON(filepath.Join(outDir, ManifestFilename), manifest); err != nil {
		return nil, err
	}

	slog.Info("index generated",
		slog.Int("clips", manifest.TotalClips),
		slog.Int("chunks", manifest.TotalChunks),
		slog.String("dir", outDir))
	return manifest, nil
}

// removeGenerated deletes previously generated chunk and manifest files.
func removeGenerated(outDir string) error {
	matches, err := filepath.Glob(filepath.Join(outDir, "chunk-*.json"))
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeIndexWrite, err)
	}
	matches = append(matches, filepath.Join(outDir, ManifestFilename))
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return cerrors.Wrap(cerrors.ErrCodeIndexWrite, err)
		}
	}
	return nil
}

// writeJSON marshals v to path and returns the byte size written.
func writeJSON(path string, v any) (int64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, cerrors.Wrap(cerrors.ErrCodeInternal, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, cerrors.Wrap(cerrors.ErrCodeIndexWrite, err)
	}
	return int64(len(data)), nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
