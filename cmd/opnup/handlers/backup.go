package handlers

import (
	"context"

	"github.com/opnup/opnup/internal/platform/mirror"
	"github.com/opnup/opnup/internal/platform/shell"
	"github.com/opnup/opnup/internal/upgrade"
)

// Backup handles the standalone backup command. Backups always execute;
// there is no dry-run variant.
func Backup(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	console := newConsole(cfg, "backup")
	runner := shell.NewExecRunner(console, false, cfg.Timeouts)
	probe := mirror.NewHTTPProbe(cfg.Timeouts.Probe)

	orch := upgrade.New(cfg, console, runner, probe, upgrade.Options{Execute: true, Force: true})
	return orch.Backup(ctx)
}

// Clean handles the clean command: discard checkpoint and resume hook.
func Clean(_ context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	console := newConsole(cfg, "clean")
	runner := shell.NewExecRunner(console, false, cfg.Timeouts)
	probe := mirror.NewHTTPProbe(cfg.Timeouts.Probe)

	orch := upgrade.New(cfg, console, runner, probe, upgrade.Options{Execute: true, Force: true})
	return orch.Clean()
}
