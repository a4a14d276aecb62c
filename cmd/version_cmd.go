package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ligouras/locize-backup-docker/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tool version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}
