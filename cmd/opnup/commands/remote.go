package commands

import (
	"github.com/spf13/cobra"

	"github.com/opnup/opnup/cmd/opnup/handlers"
)

// Remote returns the command group that drives upgrades on a remote
// appliance through its REST API.
func Remote() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Trigger firmware operations through the appliance REST API",
		Long: `Trigger and follow firmware operations on a remote appliance.

Requires the REST API to be configured: OPNSENSE_URL, OPNSENSE_API_KEY
and OPNSENSE_API_SECRET. With OPNSENSE_READ_ONLY set, the mutating
subcommands are refused.`,
	}

	cmd.AddCommand(remoteUpdate())
	cmd.AddCommand(remoteUpgrade())
	cmd.AddCommand(remoteReboot())
	cmd.AddCommand(remoteWatch())

	return cmd
}

func remoteUpdate() *cobra.Command {
	var (
		configPath string
		wait       bool
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Start a minor firmware update on the appliance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.RemoteUpdate(cmd.Context(), configPath, wait, force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Follow the operation until it finishes")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}

func remoteUpgrade() *cobra.Command {
	var (
		configPath string
		wait       bool
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "upgrade [VERSION]",
		Short: "Start a major upgrade on the appliance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := ""
			if len(args) == 1 {
				version = args[0]
			}
			return handlers.RemoteUpgrade(cmd.Context(), configPath, version, wait, force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Follow the operation until it finishes")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}

func remoteReboot() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "reboot",
		Short: "Reboot the appliance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.RemoteReboot(cmd.Context(), configPath, force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}

func remoteWatch() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a firmware operation already running on the appliance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.RemoteWatch(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	return cmd
}
