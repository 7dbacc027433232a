package commands

import (
	"github.com/spf13/cobra"

	"github.com/opnup/opnup/cmd/opnup/handlers"
)

// Check returns the command that queries available versions.
func Check() *cobra.Command {
	var configPath string
	var minor bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Query available OPNsense versions",
		Long: `Query the latest available OPNsense versions without changing anything.

Several sources are consulted: the firmware daemon, the package
mirrors, the updater advisory, and the package catalog. The summary
shows the current version plus any pending minor update or available
major upgrade.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Check(cmd.Context(), configPath, minor)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVarP(&minor, "minor", "m", false, "Only look for minor updates")

	return cmd
}
