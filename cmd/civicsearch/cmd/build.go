package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencivic/civicsearch/internal/archive"
	"github.com/opencivic/civicsearch/internal/config"
	"github.com/opencivic/civicsearch/internal/index"
	"github.com/opencivic/civicsearch/internal/output"
	"github.com/opencivic/civicsearch/internal/watcher"
)

func newBuildCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the chunked search index from the clip archive",
		Long: `Read every clip under the archive directory and regenerate the
chunk and manifest files. Generation is full, never incremental:
previously generated files are deleted first.

With --watch the archive directory is observed and the index is
rebuilt after each burst of changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())

			if err := runBuild(cfg, out); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return runWatch(cmd.Context(), cfg, out)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false,
		"Rebuild when the archive changes")
	return cmd
}

func runBuild(cfg *config.Config, out *output.Writer) error {
	start := time.Now()

	docs, err := archive.ReadClips(cfg.Archive.Dir)
	if err != nil {
		return err
	}
	out.Statusf("📼", "Read %d clips from %s", len(docs), cfg.Archive.Dir)

	builder := index.NewBuilder(index.BuilderConfig{
		TargetChunkBytes: cfg.Index.TargetChunkBytes,
	})
	manifest, err := builder.Build(docs, cfg.Index.OutputDir)
	if err != nil {
		return err
	}

	out.Successf("Indexed %d clips into %d chunks in %s",
		manifest.TotalClips, manifest.TotalChunks,
		time.Since(start).Round(10*time.Millisecond))
	return nil
}

// runWatch rebuilds the index after each debounced batch of archive
// changes until interrupted.
func runWatch(ctx context.Context, cfg *config.Config, out *output.Writer) error {
	debounce, err := cfg.DebounceWindow()
	if err != nil {
		return err
	}

	w, err := watcher.NewArchiveWatcher(watcher.Options{DebounceWindow: debounce})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() { _ = w.Start(ctx, cfg.Archive.Dir) }()
	out.Statusf("👀", "Watching %s for changes (Ctrl+C to stop)", cfg.Archive.Dir)

	for {
		select {
		case <-ctx.Done():
			out.Status("", "Stopped watching.")
			return nil
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			out.Warningf("watch error: %v", err)
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			slog.Info("archive changed, rebuilding",
				slog.Int("events", len(batch)))
			out.Statusf("🔄", "Archive changed (%d events), rebuilding...", len(batch))
			if err := runBuild(cfg, out); err != nil {
				// Keep watching; the next change retries the build.
				out.Errorf("rebuild failed: %v", err)
			}
		}
	}
}
