package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencivic/civicsearch/internal/config"
	"github.com/opencivic/civicsearch/internal/loader"
	"github.com/opencivic/civicsearch/internal/output"
	"github.com/opencivic/civicsearch/internal/search"
	"github.com/opencivic/civicsearch/internal/telemetry"
	"github.com/opencivic/civicsearch/internal/ui"
)

func newSearchCmd() *cobra.Command {
	var (
		limit   int
		format  string
		baseURL string
		quick   bool
		plain   bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Load the index and search the archive",
		Long: `Download the chunked index and run a query against it.

Quote the query to require an exact whole-word match:

  civicsearch search budget
  civicsearch search '"price road"'

With --quick the query matches clip titles and topics fuzzily instead
of running a full-text search.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.Index.BaseURL
			}
			if baseURL == "" {
				return fmt.Errorf("no index URL: set index.base_url in %s or pass --url",
					config.DefaultConfigFilename)
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}

			l := loader.New(loader.Config{BaseURL: baseURL})
			if err := loadIndex(cmd.Context(), cmd.OutOrStdout(), l, plain || format == "json"); err != nil {
				return err
			}

			opts := []search.Option{}
			var collector *telemetry.Collector
			if cfg.Telemetry.Enabled {
				store, err := telemetry.OpenSQLiteStore(cfg.Telemetry.Path)
				if err != nil {
					return err
				}
				collector = telemetry.NewCollector(store, telemetry.DefaultConfig())
				defer func() { _ = collector.Close() }()
				opts = append(opts, search.WithRecorder(collector))
			}

			engine := search.NewEngine(search.Config{
				DefaultLimit:   cfg.Search.DefaultLimit,
				MaxLimit:       cfg.Search.MaxLimit,
				SnippetContext: cfg.Search.SnippetContext,
				CacheSize:      cfg.Search.CacheSize,
			}, l, opts...)

			if quick {
				return writeQuickResults(cmd, engine.Quick(args[0], limit), format)
			}
			return writeResults(cmd, engine.Search(args[0], limit), format)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (0 uses the configured default)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&baseURL, "url", "", "Index base URL (overrides config)")
	cmd.Flags().BoolVar(&quick, "quick", false, "Fuzzy-match titles and topics instead of full text")
	cmd.Flags().BoolVar(&plain, "plain", false, "Plain progress output (no TUI)")
	return cmd
}

// loadIndex runs the loader with a progress display. Progress is
// polled rather than pushed: the loader only exposes counters.
func loadIndex(ctx context.Context, out io.Writer, l *loader.Loader, forcePlain bool) error {
	renderer := ui.NewRenderer(ui.NewConfig(out,
		ui.WithForcePlain(forcePlain),
		ui.WithNoColor(ui.DetectNoColor()),
		ui.WithTitle("Loading search index")))
	if err := renderer.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = renderer.Stop() }()

	renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageManifest, Message: "fetching manifest"})

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				p := l.Progress()
				if p.Total == 0 {
					continue
				}
				renderer.UpdateProgress(ui.ProgressEvent{
					Stage:   ui.StageChunks,
					Current: p.Loaded,
					Total:   p.Total,
				})
			}
		}
	}()

	start := time.Now()
	if err := l.Load(ctx); err != nil {
		renderer.AddError(ui.ErrorEvent{Name: "load", Err: err})
		return err
	}
	cancel()

	renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageIndexing, Message: "building index"})
	renderer.Complete(ui.CompletionStats{
		Clips:    l.Index().Len(),
		Chunks:   l.Progress().Total,
		Duration: time.Since(start),
	})
	return nil
}

func writeResults(cmd *cobra.Command, results []search.Result, format string) error {
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if results == nil {
			results = []search.Result{}
		}
		return enc.Encode(results)
	}
	out := output.New(cmd.OutOrStdout())
	out.Newline()
	out.Results(results)
	return nil
}

func writeQuickResults(cmd *cobra.Command, results []search.QuickResult, format string) error {
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if results == nil {
			results = []search.QuickResult{}
		}
		return enc.Encode(results)
	}
	out := output.New(cmd.OutOrStdout())
	if len(results) == 0 {
		out.Status("", "No results.")
		return nil
	}
	for i, r := range results {
		out.Statusf("", "%d. %s (clip %d, %s)", i+1, r.Title, r.ClipID, r.Date)
	}
	return nil
}
