package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ArchiveWatcher watches a clip archive directory tree and emits
// debounced batches of file events. New clip subdirectories are picked
// up as they appear.
type ArchiveWatcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	events    chan []FileEvent
	errors    chan error
	stopCh    chan struct{}
	root      string
	opts      Options
	logger    *slog.Logger
	mu        sync.Mutex
	stopped   bool
}

// NewArchiveWatcher creates a watcher with the given options.
func NewArchiveWatcher(opts Options) (*ArchiveWatcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}
	return &ArchiveWatcher{
		fsw:       fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
		logger:    slog.Default().With(slog.String("component", "watcher")),
	}, nil
}

// Start watches path recursively until the context is cancelled or
// Stop is called. It blocks; run it in a goroutine and consume
// Events.
func (w *ArchiveWatcher) Start(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve watch path: %w", err)
	}
	w.root = abs

	if err := w.addRecursive(abs); err != nil {
		return fmt.Errorf("watch directory tree: %w", err)
	}

	go w.forwardBatches()

	w.logger.Info("watching archive", slog.String("path", abs))
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// addRecursive registers path and every directory below it.
func (w *ArchiveWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// A clip directory that vanished mid-walk is not fatal.
			w.logger.Warn("skipping unreadable path",
				slog.String("path", p), slog.String("error", err.Error()))
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(p); err != nil {
				return fmt.Errorf("watch %s: %w", p, err)
			}
		}
		return nil
	})
}

func (w *ArchiveWatcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		rel = event.Name
	}

	var op Operation
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
		// A new clip directory must be watched for the files that
		// will land inside it.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.emitError(err)
			}
			w.debouncer.Add(FileEvent{
				Path:      rel,
				Operation: OpCreate,
				IsDir:     true,
				Timestamp: time.Now(),
			})
			return
		}
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      rel,
		Operation: op,
		Timestamp: time.Now(),
	})
}

func (w *ArchiveWatcher) forwardBatches() {
	for batch := range w.debouncer.Output() {
		select {
		case w.events <- batch:
		case <-w.stopCh:
			return
		}
	}
}

func (w *ArchiveWatcher) emitError(err error) {
	select {
	case w.errors <- err:
	default:
		w.logger.Warn("watcher error channel full",
			slog.String("error", err.Error()))
	}
}

// Events returns the channel of debounced event batches.
func (w *ArchiveWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of non-fatal watcher errors.
func (w *ArchiveWatcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources. Safe to call
// multiple times.
func (w *ArchiveWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	return w.fsw.Close()
}
