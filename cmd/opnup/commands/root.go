// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing and flag binding. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the opnup CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opnup",
		Short: "Stateful OPNsense upgrades with automatic recovery",
		Long: `opnup upgrades an OPNsense firewall through a resumable stage pipeline.

Every run is a dry run unless --execute is given. Progress is
checkpointed to disk after each stage, and reboots required mid-upgrade
install a boot hook that resumes the upgrade automatically.`,
	}

	cmd.AddCommand(Upgrade())
	cmd.AddCommand(Check())
	cmd.AddCommand(Backup())
	cmd.AddCommand(Clean())
	cmd.AddCommand(Status())
	cmd.AddCommand(Changelog())
	cmd.AddCommand(Remote())
	cmd.AddCommand(Version())

	return cmd
}
