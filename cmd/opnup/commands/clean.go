package commands

import (
	"github.com/spf13/cobra"

	"github.com/opnup/opnup/cmd/opnup/handlers"
)

// Clean returns the command that discards in-progress upgrade state.
func Clean() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Discard saved upgrade state and the resume hook",
		Long: `Remove the persisted upgrade checkpoint and the boot-time resume hook.

Use this to abandon an interrupted upgrade before starting fresh.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Clean(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	return cmd
}
