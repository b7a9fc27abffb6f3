package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencivic/civicsearch/internal/config"
	"github.com/opencivic/civicsearch/internal/index"
	"github.com/opencivic/civicsearch/internal/output"
	"github.com/opencivic/civicsearch/internal/telemetry"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and query metrics status",
		Long: `Show the generated index manifest (clip and chunk counts, per-chunk
sizes) and, when telemetry is enabled, query metrics for the last 30
days.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())

			if err := printManifest(cfg, out); err != nil {
				return err
			}
			if cfg.Telemetry.Enabled {
				out.Newline()
				if err := printMetrics(cfg, out); err != nil {
					return err
				}
			}
			return nil
		},
	}
	return cmd
}

func printManifest(cfg *config.Config, out *output.Writer) error {
	path := filepath.Join(cfg.Index.OutputDir, index.ManifestFilename)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		out.Warningf("No index found at %s (run 'civicsearch build')", path)
		return nil
	}
	if err != nil {
		return err
	}
	var m index.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	out.Statusf("📚", "Index v%d built %s", m.Version, m.Created.Format(time.RFC3339))
	out.Statusf("", "%d clips in %d chunks", m.TotalClips, m.TotalChunks)
	for _, c := range m.Chunks {
		out.Statusf("", "  %s  %7.1f KB  %4d clips",
			c.Filename, float64(c.Size)/1024, c.ClipCount)
	}
	return nil
}

func printMetrics(cfg *config.Config, out *output.Writer) error {
	store, err := telemetry.OpenSQLiteStore(cfg.Telemetry.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	to := time.Now().Format("2006-01-02")
	from := time.Now().AddDate(0, 0, -30).Format("2006-01-02")

	modes, err := store.GetModeCounts(from, to)
	if err != nil {
		return err
	}
	var total int64
	for _, n := range modes {
		total += n
	}
	out.Statusf("📊", "Queries (last 30 days): %d", total)
	for _, mode := range []telemetry.QueryMode{
		telemetry.ModeExact, telemetry.ModeSingleWord, telemetry.ModeMultiWord,
	} {
		if n := modes[mode]; n > 0 {
			out.Statusf("", "  %-7s %d", mode, n)
		}
	}

	latencies, err := store.GetLatencyCounts(from, to)
	if err != nil {
		return err
	}
	if len(latencies) > 0 {
		out.Status("", "Latency:")
		for _, bucket := range []telemetry.LatencyBucket{
			telemetry.BucketUnder1ms, telemetry.BucketUnder10ms,
			telemetry.BucketUnder50ms, telemetry.BucketUnder200ms,
			telemetry.BucketSlow,
		} {
			if n := latencies[bucket]; n > 0 {
				out.Statusf("", "  %-7s %d", bucket, n)
			}
		}
	}

	terms, err := store.GetTopTerms(10)
	if err != nil {
		return err
	}
	if len(terms) > 0 {
		out.Status("", "Top terms:")
		for _, tc := range terms {
			out.Statusf("", "  %-20s %d", tc.Term, tc.Count)
		}
	}

	zero, err := store.GetZeroResultQueries(10)
	if err != nil {
		return err
	}
	if len(zero) > 0 {
		out.Status("", "Recent zero-result queries:")
		for _, q := range zero {
			out.Statusf("", "  %q", q)
		}
	}
	return nil
}
