package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ligouras/locize-backup-docker/internal/operations"
)

var forceBackup bool

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Run one backup of all configured (language, namespace) pairs",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Flag errors still print usage; run failures should not.
		cmd.SilenceUsage = true

		cfg, log, err := initRun()
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return err
		}

		op, err := operations.NewOperator(cfg, log)
		if err != nil {
			log.Error("operator init failed", "error", err.Error())
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := op.Run(ctx, forceBackup); err != nil {
			if ctx.Err() != nil {
				return context.Canceled
			}
			log.Error("backup run failed", "error", err.Error())
			return err
		}
		return nil
	},
}

func init() {
	backupCmd.Flags().
		BoolVar(&forceBackup, "force", false, "run even if the last backup is less than 24 hours old")
}
