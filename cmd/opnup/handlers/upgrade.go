package handlers

import (
	"context"
	"errors"

	"github.com/opnup/opnup/internal/platform/mirror"
	"github.com/opnup/opnup/internal/platform/shell"
	"github.com/opnup/opnup/internal/upgrade"
)

// UpgradeOptions contains options for the upgrade command.
type UpgradeOptions struct {
	ConfigPath string
	Target     string
	Minor      bool
	Force      bool
	Execute    bool
	Resume     bool
	WithBackup bool
}

// Upgrade handles the upgrade command.
//
// It wires the orchestrator from the configuration and runs the staged
// upgrade. A reboot handoff (the process deliberately terminating so the
// boot hook can continue the upgrade) is a success, not an error.
func Upgrade(ctx context.Context, opts UpgradeOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	prefix := "dryrun"
	if opts.Execute {
		prefix = "upgrade"
	}
	console := newConsole(cfg, prefix)
	defer func() {
		if p := console.LogPath(); p != "" {
			console.Infof("Log file: %s", p)
		}
	}()

	// --target without a value means "find me a major upgrade".
	target := opts.Target
	requested := target != ""
	if target == "auto" {
		target = ""
	}

	runner := shell.NewExecRunner(console, !opts.Execute, cfg.Timeouts)
	probe := mirror.NewHTTPProbe(cfg.Timeouts.Probe)
	orch := upgrade.New(cfg, console, runner, probe, upgrade.Options{
		Target:          target,
		TargetRequested: requested,
		Minor:           opts.Minor,
		Force:           opts.Force,
		Execute:         opts.Execute,
		Resume:          opts.Resume,
	})

	if opts.WithBackup && !opts.Resume {
		if err := orch.Backup(ctx); err != nil {
			return err
		}
	}

	if err := orch.Start(ctx); err != nil {
		if errors.Is(err, upgrade.ErrHandoff) {
			return nil
		}
		return err
	}
	return nil
}
