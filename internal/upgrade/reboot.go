package upgrade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opnup/opnup/internal/config"
	"github.com/opnup/opnup/internal/platform/shell"
	"github.com/opnup/opnup/internal/ui"
)

// ErrHandoff signals that the process handed control to a reboot (or to
// the operator for a manual one) and should exit cleanly. It is not a
// failure; the command layer maps it to exit status 0.
var ErrHandoff = errors.New("upgrade handed off to reboot")

// Bridge carries an upgrade across reboots: it installs a boot hook that
// re-invokes the tool with --resume, and performs the reboot itself.
type Bridge struct {
	cfg     *config.Config
	console *ui.Console
	runner  shell.Runner
	confirm ui.Confirmer
	dryRun  bool
}

// NewBridge creates a Bridge.
func NewBridge(cfg *config.Config, console *ui.Console, runner shell.Runner, confirm ui.Confirmer, dryRun bool) *Bridge {
	return &Bridge{cfg: cfg, console: console, runner: runner, confirm: confirm, dryRun: dryRun}
}

// hookScript is the rc.local.d boot hook. It runs on every boot, no-ops
// once the state file is gone, and detaches the resume so boot is not
// blocked.
func (b *Bridge) hookScript() string {
	return fmt.Sprintf(`#!/bin/sh
# Auto-resume for an in-progress OPNsense upgrade. Removed on completion.
STATE_FILE="%s"
SCRIPT_PATH="%s"

if [ ! -f "$STATE_FILE" ]; then
    exit 0
fi
if [ ! -x "$SCRIPT_PATH" ]; then
    logger -t opnsense-upgrade "resume binary missing: $SCRIPT_PATH"
    exit 0
fi

logger -t opnsense-upgrade "resuming upgrade after reboot"
# Let services settle before driving pkg.
sleep 10
"$SCRIPT_PATH" upgrade --execute --resume >> %s 2>&1 &
`, b.cfg.Paths.StateFile, b.selfPath(), b.cfg.Paths.ResumeLog)
}

func (b *Bridge) selfPath() string {
	if exe, err := os.Executable(); err == nil {
		if abs, err := filepath.EvalSymlinks(exe); err == nil {
			return abs
		}
		return exe
	}
	return "/usr/local/sbin/opnup"
}

// InstallHook writes the boot hook. Idempotent.
func (b *Bridge) InstallHook() error {
	if b.dryRun {
		b.console.Infof("[DRY RUN] Would install resume hook: %s", b.cfg.Paths.HookFile)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(b.cfg.Paths.HookFile), 0o755); err != nil {
		return fmt.Errorf("creating hook directory: %w", err)
	}
	if err := os.WriteFile(b.cfg.Paths.HookFile, []byte(b.hookScript()), 0o755); err != nil {
		return fmt.Errorf("writing resume hook: %w", err)
	}
	b.console.Successf("Auto-resume hook installed: %s", b.cfg.Paths.HookFile)
	return nil
}

// RemoveHook removes the boot hook. Missing files are fine.
func (b *Bridge) RemoveHook() error {
	if b.dryRun {
		b.console.Infof("[DRY RUN] Would remove resume hook: %s", b.cfg.Paths.HookFile)
		return nil
	}
	if err := os.Remove(b.cfg.Paths.HookFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing resume hook: %w", err)
	}
	return nil
}

// RebootNow installs the resume hook and reboots without asking. The
// caller has already confirmed with the operator.
func (b *Bridge) RebootNow(ctx context.Context, reason string) error {
	if b.dryRun {
		b.console.Infof("[DRY RUN] Would reboot (%s)", reason)
		return nil
	}
	if err := b.InstallHook(); err != nil {
		return err
	}
	return b.reboot(ctx, reason)
}

func (b *Bridge) reboot(ctx context.Context, reason string) error {
	b.console.Infof("Rebooting...")
	b.runner.Run(ctx, "sync")
	if !b.runner.Run(ctx, fmt.Sprintf("/sbin/shutdown -r now '%s'", reason)) {
		return fmt.Errorf("failed to initiate reboot")
	}
	return ErrHandoff
}

// Schedule installs the resume hook and reboots. The successor stage
// must already be persisted by the caller. In dry-run mode nothing
// happens and nil is returned so the stage loop can continue. When the
// operator declines the reboot the hook stays installed and ErrHandoff
// is returned: the upgrade resumes whenever they reboot themselves.
func (b *Bridge) Schedule(ctx context.Context, reason string) error {
	if b.dryRun {
		b.console.Infof("[DRY RUN] Would install resume hook and reboot (%s)", reason)
		return nil
	}

	if err := b.InstallHook(); err != nil {
		return err
	}

	b.console.Warnf("Reboot required: %s", reason)
	b.console.Infof("Auto-resume will run ~10 seconds after boot")
	b.console.Infof("To check progress:  tail -f %s", b.cfg.Paths.ResumeLog)
	b.console.Infof("To resume manually: opnup upgrade --execute --resume")
	ok, err := b.confirm.Confirm("Reboot now to continue upgrade?")
	if err != nil {
		return fmt.Errorf("confirming reboot: %w", err)
	}
	if !ok {
		b.console.Warnf("Reboot postponed. The upgrade resumes automatically on next boot.")
		b.console.Infof("Reboot manually with: shutdown -r now")
		return ErrHandoff
	}

	return b.reboot(ctx, reason)
}
