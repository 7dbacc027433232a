package handlers

import (
	"context"

	"github.com/opnup/opnup/internal/platform/mirror"
	"github.com/opnup/opnup/internal/platform/shell"
	"github.com/opnup/opnup/internal/upgrade"
)

// Check handles the check command: query available versions read-only and
// print the summary.
func Check(ctx context.Context, configPath string, minor bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	console := newConsole(cfg, "query")
	runner := shell.NewExecRunner(console, false, cfg.Timeouts)
	probe := mirror.NewHTTPProbe(cfg.Timeouts.Probe)

	resolver := upgrade.NewResolver(cfg, console, runner, probe)
	resolver.QueryLatest(ctx, minor)
	return nil
}
