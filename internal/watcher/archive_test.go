package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string) *ArchiveWatcher {
	t.Helper()
	w, err := NewArchiveWatcher(Options{DebounceWindow: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = w.Start(ctx, root) }()

	// Give the watcher a moment to register the tree.
	time.Sleep(100 * time.Millisecond)
	return w
}

func waitBatch(t *testing.T, w *ArchiveWatcher) []FileEvent {
	t.Helper()
	select {
	case batch := <-w.Events():
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher events")
		return nil
	}
}

func TestArchiveWatcher_SeesFileWrites(t *testing.T) {
	root := t.TempDir()
	clipDir := filepath.Join(root, "clips", "1")
	require.NoError(t, os.MkdirAll(clipDir, 0o755))

	w := startWatcher(t, root)

	require.NoError(t,
		os.WriteFile(filepath.Join(clipDir, "transcript.txt"), []byte("text"), 0o644))

	batch := waitBatch(t, w)
	require.NotEmpty(t, batch)
	found := false
	for _, ev := range batch {
		if ev.Path == filepath.Join("clips", "1", "transcript.txt") {
			found = true
		}
	}
	assert.True(t, found, "expected transcript event in %v", batch)
}

func TestArchiveWatcher_PicksUpNewClipDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "clips"), 0o755))

	w := startWatcher(t, root)

	// Create a new clip directory, then write into it; the write is
	// only visible if the new directory was added to the watch set.
	newDir := filepath.Join(root, "clips", "42")
	require.NoError(t, os.MkdirAll(newDir, 0o755))
	batch := waitBatch(t, w)
	require.NotEmpty(t, batch)

	require.NoError(t,
		os.WriteFile(filepath.Join(newDir, "metadata.json"), []byte("{}"), 0o644))

	batch = waitBatch(t, w)
	found := false
	for _, ev := range batch {
		if ev.Path == filepath.Join("clips", "42", "metadata.json") {
			found = true
		}
	}
	assert.True(t, found, "expected metadata event in %v", batch)
}

func TestArchiveWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewArchiveWatcher(Options{})
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
