package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/opnup/opnup/internal/platform/api"
	"github.com/opnup/opnup/internal/platform/mirror"
	"github.com/opnup/opnup/internal/platform/shell"
	"github.com/opnup/opnup/internal/upgrade"
)

// Status handles the status command: report the local upgrade checkpoint
// and, when the REST API is configured, the firmware daemon's view.
func Status(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	console := newConsole(cfg, "status")
	runner := shell.NewExecRunner(console, false, cfg.Timeouts)
	probe := mirror.NewHTTPProbe(cfg.Timeouts.Probe)

	orch := upgrade.New(cfg, console, runner, probe, upgrade.Options{})
	if err := orch.Status(); err != nil {
		return err
	}

	if cfg.API.URL == "" {
		console.Infof("Set OPNSENSE_URL, OPNSENSE_API_KEY and OPNSENSE_API_SECRET for remote firmware status")
		return nil
	}

	client, err := api.NewClient(cfg.API)
	if err != nil {
		return err
	}
	status, err := client.FirmwareStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to query firmware status: %w", err)
	}

	console.Headerf("Firmware Status")
	console.Infof("Installed: %s", status.Product.Version)
	if status.Product.Latest != "" && status.Product.Latest != status.Product.Version {
		console.Warnf("Latest:    %s (update available)", status.Product.Latest)
	} else {
		console.Successf("Latest:    %s (up to date)", status.Product.Version)
	}
	if status.Product.NextMajor != "" {
		console.Infof("Next major: %s", status.Product.NextMajor)
	}
	if status.HasPendingPackages() {
		console.Warnf("Pending package operations: %d upgrade, %d new, %d reinstall, %d remove",
			len(status.UpgradePackages), len(status.NewPackages),
			len(status.ReinstallPackages), len(status.RemovePackages))
	}

	advice, err := client.CheckNeedsReboot(ctx)
	if err != nil {
		return fmt.Errorf("failed to evaluate reboot flag: %w", err)
	}
	switch {
	case advice.Stale:
		console.Infof("%s", advice.Explanation)
	case advice.NeedsReboot:
		console.Warnf("%s", advice.Explanation)
	default:
		console.Successf("%s", advice.Explanation)
	}
	return nil
}

// Changelog handles the changelog command.
func Changelog(ctx context.Context, configPath, version string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	client, err := apiClient(cfg)
	if err != nil {
		return err
	}
	text, err := client.Changelog(ctx, version)
	if err != nil {
		return fmt.Errorf("failed to fetch changelog for %s: %w", version, err)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no changelog available for %s", version)
	}
	fmt.Println(text)
	return nil
}
