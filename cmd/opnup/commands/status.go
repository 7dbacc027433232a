package commands

import (
	"github.com/spf13/cobra"

	"github.com/opnup/opnup/cmd/opnup/handlers"
)

// Status returns the command that reports upgrade and firmware status.
func Status() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show upgrade progress and firmware status",
		Long: `Show the locally persisted upgrade checkpoint, if any.

When the appliance REST API is configured (OPNSENSE_URL,
OPNSENSE_API_KEY, OPNSENSE_API_SECRET), the firmware daemon's status is
also queried: installed and latest versions, pending packages, and
whether a flagged reboot is genuine or a stale leftover from a
previous boot.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	return cmd
}
