package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ligouras/locize-backup-docker/internal/config"
	"github.com/ligouras/locize-backup-docker/internal/logger"
)

// Exit codes of the job.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// rootCmd is the base command for locize-backup.
var rootCmd = &cobra.Command{
	Use:   "locize-backup",
	Short: "Back up locize translation bundles to disk or object storage",
	Long: `locize-backup downloads the published translation bundles of a locize
project for every configured (language, namespace) pair, optionally
uploads them to S3-compatible object storage, and records a JSON
summary of the run for monitoring.

All settings are read from the environment; see the README for the
full list.`,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			return ExitInterrupted
		}
		return ExitFailure
	}
	return ExitOK
}

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(versionCmd)
}

// initRun loads the configuration and the logger for a run command.
func initRun() (config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}
