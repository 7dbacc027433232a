package commands

import (
	"github.com/spf13/cobra"

	"github.com/opnup/opnup/cmd/opnup/handlers"
)

// Changelog returns the command that prints a release changelog.
func Changelog() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "changelog VERSION",
		Short: "Print the changelog for a release",
		Long: `Fetch and print the changelog for a release (e.g. 26.1) through the
appliance REST API. Requires OPNSENSE_URL, OPNSENSE_API_KEY and
OPNSENSE_API_SECRET to be set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Changelog(cmd.Context(), configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	return cmd
}
