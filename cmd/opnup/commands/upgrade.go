package commands

import (
	"github.com/spf13/cobra"

	"github.com/opnup/opnup/cmd/opnup/handlers"
)

// Upgrade returns the command that performs an OPNsense upgrade.
//
// Optional flags:
//
//	--target, -t: target version; give the flag without a value to
//	              auto-detect the next major release
//	--minor, -m:  restrict to minor updates within the current branch
//	--force, -f:  skip confirmation prompts
//	--execute, -x: perform real changes (default is dry run)
//	--resume, -r: resume an interrupted upgrade
//	--with-backup, -b: write a standalone backup before starting
//	--config, -c: path to a YAML configuration file
func Upgrade() *cobra.Command {
	var opts handlers.UpgradeOptions

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade OPNsense to a newer release",
		Long: `Upgrade OPNsense through a staged, resumable pipeline.

The upgrade process:
1. Pre-checks (disk space, package database, stale locks)
2. Cleanup of old packages and temp files
3. Configuration backup
4. Base system and kernel upgrade (reboots if required)
5. Package tooling repair after the new base boots
6. Package set upgrade to the target branch
7. Post-upgrade verification

Without --execute nothing is changed; the run prints what it would do.
A reboot mid-upgrade installs a boot hook that resumes the remaining
stages automatically after ~10 seconds.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Upgrade(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "Target version (e.g. 26.1); auto-detects when the value is omitted")
	cmd.Flags().Lookup("target").NoOptDefVal = "auto"
	cmd.Flags().BoolVarP(&opts.Minor, "minor", "m", false, "Minor update only (within current branch)")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Skip confirmation prompts")
	cmd.Flags().BoolVarP(&opts.Execute, "execute", "x", false, "Execute for real (default is dry run)")
	cmd.Flags().BoolVarP(&opts.Resume, "resume", "r", false, "Resume from saved state (after reboot or interruption)")
	cmd.Flags().BoolVarP(&opts.WithBackup, "with-backup", "b", false, "Write a standalone backup before starting")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")

	return cmd
}
