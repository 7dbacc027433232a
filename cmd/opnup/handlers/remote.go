package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/opnup/opnup/internal/platform/api"
	"github.com/opnup/opnup/internal/ui"
)

// RemoteUpdate tells the appliance to run a minor firmware update through
// its REST API.
func RemoteUpdate(ctx context.Context, configPath string, wait, force bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	console := newConsole(cfg, "remote")
	client, err := apiClient(cfg)
	if err != nil {
		return err
	}

	ok, err := ui.ConfirmerFor(force, false).Confirm(fmt.Sprintf("Start a minor update on %s?", cfg.API.URL))
	if err != nil {
		return fmt.Errorf("confirming remote update: %w", err)
	}
	if !ok {
		console.Infof("Remote update cancelled")
		return nil
	}

	msg, err := client.TriggerUpdate(ctx)
	if err != nil {
		return fmt.Errorf("failed to trigger update: %w", err)
	}
	console.Successf("Update started: %s", orOK(msg))
	return maybeWatch(ctx, console, client, wait)
}

// RemoteUpgrade tells the appliance to run a major upgrade through its
// REST API. An empty version lets the appliance pick its announced next
// major.
func RemoteUpgrade(ctx context.Context, configPath, version string, wait, force bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	console := newConsole(cfg, "remote")
	client, err := apiClient(cfg)
	if err != nil {
		return err
	}

	what := "the announced next major"
	if version != "" {
		what = version
	}
	ok, err := ui.ConfirmerFor(force, false).Confirm(fmt.Sprintf("Start a major upgrade to %s on %s?", what, cfg.API.URL))
	if err != nil {
		return fmt.Errorf("confirming remote upgrade: %w", err)
	}
	if !ok {
		console.Infof("Remote upgrade cancelled")
		return nil
	}

	msg, err := client.TriggerUpgrade(ctx, version)
	if err != nil {
		return fmt.Errorf("failed to trigger upgrade: %w", err)
	}
	console.Successf("Upgrade started: %s", orOK(msg))
	return maybeWatch(ctx, console, client, wait)
}

// RemoteReboot reboots the appliance through its REST API.
func RemoteReboot(ctx context.Context, configPath string, force bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	console := newConsole(cfg, "remote")
	client, err := apiClient(cfg)
	if err != nil {
		return err
	}

	ok, err := ui.ConfirmerFor(force, false).Confirm(fmt.Sprintf("Reboot %s now?", cfg.API.URL))
	if err != nil {
		return fmt.Errorf("confirming remote reboot: %w", err)
	}
	if !ok {
		console.Infof("Reboot cancelled")
		return nil
	}

	msg, err := client.TriggerReboot(ctx)
	if err != nil {
		return fmt.Errorf("failed to trigger reboot: %w", err)
	}
	console.Successf("Reboot requested: %s", orOK(msg))
	return nil
}

// RemoteWatch follows a firmware operation already running on the
// appliance until it finishes.
func RemoteWatch(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	console := newConsole(cfg, "remote")
	client, err := apiClient(cfg)
	if err != nil {
		return err
	}
	return watchOperation(ctx, console, client)
}

func maybeWatch(ctx context.Context, console *ui.Console, client *api.Client, wait bool) error {
	if !wait {
		console.Infof("Follow progress with: opnup remote watch")
		return nil
	}
	return watchOperation(ctx, console, client)
}

// watchOperation polls the firmware operation, streaming new log output
// as it appears.
func watchOperation(ctx context.Context, console *ui.Console, client *api.Client) error {
	console.Infof("Waiting for the firmware operation to finish...")
	seen := 0
	final, err := client.WaitForCompletion(ctx, func(st *api.UpgradeStatus) {
		if len(st.Log) <= seen {
			return
		}
		for _, line := range strings.Split(strings.TrimRight(st.Log[seen:], "\n"), "\n") {
			console.Log(line)
		}
		seen = len(st.Log)
	})
	if err != nil {
		return err
	}
	if final.Status == "done" {
		console.Successf("Firmware operation completed")
	} else {
		console.Warnf("Firmware operation finished with status %q", final.Status)
	}
	return nil
}

func orOK(msg string) string {
	if msg == "" {
		return "ok"
	}
	return msg
}
