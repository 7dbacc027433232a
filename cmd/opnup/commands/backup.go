package commands

import (
	"github.com/spf13/cobra"

	"github.com/opnup/opnup/cmd/opnup/handlers"
)

// Backup returns the standalone configuration backup command.
func Backup() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the configuration and package list",
		Long: `Copy the configuration XML and the installed package list into
timestamped files under the backup directory, then print restore
instructions. Always executes; there is no dry-run for backups.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Backup(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	return cmd
}
