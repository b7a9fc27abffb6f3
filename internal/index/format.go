// Package index generates the chunked search index: a manifest plus a
// set of chunk files that together carry every searchable document.
// The chunk set partitions the document set exactly; clients fetch the
// manifest first and then every chunk it lists.
package index

import (
	"fmt"
	"time"

	"github.com/opencivic/civicsearch/internal/archive"
)

// FormatVersion is the wire format version written into manifest and
// chunk files. Bump when the JSON shape changes.
const FormatVersion = 1

// ManifestFilename is the fixed name of the manifest file.
const ManifestFilename = "manifest.json"

// DefaultTargetChunkBytes is the serialized chunk size target (~1.5 MB).
const DefaultTargetChunkBytes = 1_500_000

// Manifest describes the chunk set needed to reconstruct the index.
type Manifest struct {
	Version     int         `json:"version"`
	Created     time.Time   `json:"created"`
	TotalClips  int         `json:"totalClips"`
	TotalChunks int         `json:"totalChunks"`
	Chunks      []ChunkMeta `json:"chunks"`
}

// ChunkMeta is the manifest's per-chunk metadata.
type ChunkMeta struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	ClipCount int    `json:"clipCount"`
	ClipIDs   []int  `json:"clipIds"`
}

// ChunkFile is one persisted partition of the document set. A chunk is
// always loaded as a unit, never partially.
type ChunkFile struct {
	Version     int                 `json:"version"`
	ChunkIndex  int                 `json:"chunkIndex"`
	TotalChunks int                 `json:"totalChunks"`
	Documents   []*archive.Document `json:"documents"`
}

// ChunkFilename returns the canonical filename for a chunk index.
func ChunkFilename(i int) string {
	return fmt.Sprintf("chunk-%03d.json", i)
}
