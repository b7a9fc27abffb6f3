// Package cmd provides the CLI commands for CivicSearch.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/opencivic/civicsearch/internal/config"
	"github.com/opencivic/civicsearch/internal/logging"
	"github.com/opencivic/civicsearch/pkg/version"
)

var (
	configDir      string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the civicsearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "civicsearch",
		Short: "Full-text search tooling for a meeting recording archive",
		Long: `CivicSearch builds and serves the chunked full-text search index
for a government meeting recording archive.

The build command turns processed clips into chunk and manifest files,
serve exposes them over HTTP, and search loads the index and runs
queries against it.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("civicsearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".",
		"Directory containing "+config.DefaultConfigFilename)
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"Enable debug logging to ~/.civicsearch/logs/")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRunE = teardownLogging

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig loads configuration from the --config directory.
func loadConfig() (*config.Config, error) {
	return config.Load(configDir)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
