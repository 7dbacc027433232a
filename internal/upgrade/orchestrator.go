package upgrade

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/opnup/opnup/internal/config"
	"github.com/opnup/opnup/internal/platform/mirror"
	"github.com/opnup/opnup/internal/platform/shell"
	"github.com/opnup/opnup/internal/ui"
	"github.com/opnup/opnup/internal/version"
)

var repoBranchPattern = regexp.MustCompile(`/\d{2}\.\d+/`)

// Options selects what an upgrade run does. The zero value is a dry run
// that auto-detects its target.
type Options struct {
	// Target is the requested version, e.g. "26.1" or "26.1.2". Empty
	// means auto-detect.
	Target string
	// TargetRequested is set when the target flag was given at all,
	// even without a value: the operator explicitly asked for a major
	// upgrade, so finding only a minor is reported instead of applied.
	TargetRequested bool
	// Minor restricts the run to updates within the current branch.
	Minor bool
	// Force skips confirmation prompts.
	Force bool
	// Execute performs real changes. Off means dry run.
	Execute bool
	// Resume continues an interrupted upgrade from persisted or
	// detected state.
	Resume bool
}

// Orchestrator drives an upgrade through its stages, persisting progress
// so a reboot or crash at any point can be resumed.
type Orchestrator struct {
	cfg      *config.Config
	console  *ui.Console
	runner   shell.Runner
	resolver *Resolver
	store    *Store
	bridge   *Bridge
	confirm  ui.Confirmer

	opts   Options
	target string
	minor  bool
	dryRun bool
}

// New wires an Orchestrator from its capabilities.
func New(cfg *config.Config, console *ui.Console, runner shell.Runner, probe mirror.Probe, opts Options) *Orchestrator {
	dryRun := !opts.Execute
	confirm := ui.ConfirmerFor(opts.Force, dryRun)
	return &Orchestrator{
		cfg:      cfg,
		console:  console,
		runner:   runner,
		resolver: NewResolver(cfg, console, runner, probe),
		store:    NewStore(cfg.Paths.StateFile, console, dryRun),
		bridge:   NewBridge(cfg, console, runner, confirm, dryRun),
		confirm:  confirm,
		opts:     opts,
		target:   opts.Target,
		minor:    opts.Minor,
		dryRun:   dryRun,
	}
}

// Resolver exposes the version resolver for commands that only query.
func (o *Orchestrator) Resolver() *Resolver { return o.resolver }

// Start validates the request against the system and mirror, then runs
// all stages from the beginning (or from saved/detected state when
// resuming). A returned ErrHandoff means the process handed off to a
// reboot and must exit cleanly.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.opts.Resume {
		return o.resume(ctx)
	}

	current := o.resolver.CurrentVersion(ctx)

	if o.target == "" {
		o.console.Infof("No target version specified, querying latest...")
		o.target = o.resolver.QueryLatest(ctx, o.minor)
		if o.target == "" {
			return fmt.Errorf("could not auto-detect target version, specify one with --target")
		}
		if o.target == current {
			o.console.Successf("System is already on latest version (%s)", o.target)
			return nil
		}
		o.console.Infof("Auto-detected target version: %s", o.target)

		// The operator asked for a major upgrade but only a minor
		// exists. Report instead of silently doing the wrong thing.
		if o.opts.TargetRequested && current != "" && version.SameBranch(o.target, current) {
			o.console.Warnf("No major upgrade available")
			o.console.Infof("Only a minor update was found: %s -> %s", current, o.target)
			o.console.Infof("Use --minor to perform the minor update instead")
			return nil
		}
	}

	if o.minor && current != "" && !version.SameBranch(o.target, current) {
		return fmt.Errorf("target %s is a major upgrade, not a minor update: drop --minor, or pick a %s.x target",
			o.target, version.Branch(current))
	}

	// A target inside the current branch is a minor update regardless
	// of flags.
	if !o.minor && current != "" && version.SameBranch(o.target, current) {
		o.console.Infof("Target is within current branch, using minor update mode")
		o.minor = true
	}

	if o.target == current {
		o.console.Successf("System is already on version %s", o.target)
		return nil
	}

	if o.minor {
		if current != "" && !o.resolver.ValidateOnMirror(ctx, current) {
			return fmt.Errorf("current branch %s not published on mirror", version.Branch(current))
		}
	} else if !o.resolver.ValidateOnMirror(ctx, o.target) {
		o.console.Infof("Run the check command to see available versions")
		return fmt.Errorf("target version %s not found on mirror", o.target)
	}

	// Majors require the branch to be fully patched first.
	if !o.minor && current != "" && !version.SameBranch(current, o.target) {
		if pending := o.resolver.PendingMinor(ctx, current); pending != "" {
			o.console.Errorf("Minor update available: %s -> %s", current, pending)
			o.console.Errorf("All minor updates must be applied before a major upgrade")
			return fmt.Errorf("pending minor update %s blocks major upgrade, run with --minor first", pending)
		}
	}

	if o.store.Exists() {
		saved, err := o.store.Load()
		if err != nil {
			return err
		}
		if saved != nil {
			o.console.Warnf("Found existing upgrade in progress!")
			o.console.Warnf("Stage: %s, Version: %s", saved.Stage, saved.Version)
			o.console.Infof("Resume it with --resume, or discard it with the clean command")
			return fmt.Errorf("upgrade already in progress (stage %s)", saved.Stage)
		}
	}

	kind := "major upgrade"
	if o.minor {
		kind = "minor update"
	}
	desc := fmt.Sprintf("%s from %s to %s", kind, orUnknown(current), o.target)
	if o.dryRun {
		o.console.Infof("Starting dry run: %s", desc)
	} else {
		ok, err := o.confirm.Confirm(fmt.Sprintf("About to perform %s. Proceed?", desc))
		if err != nil {
			return fmt.Errorf("confirming upgrade: %w", err)
		}
		if !ok {
			o.console.Infof("Upgrade cancelled by user")
			return nil
		}
	}

	return o.Run(ctx, StageInit)
}

// resume restores saved state, or infers the stage from the system when
// no state survived (state file lost, or the operator cleaned it).
func (o *Orchestrator) resume(ctx context.Context) error {
	o.console.Infof("Resume mode requested")

	saved, err := o.store.Load()
	if err != nil {
		return err
	}
	if saved != nil {
		o.target = saved.Version
		o.minor = saved.MinorOnly
		if saved.ForceMode {
			o.confirm = ui.AutoConfirm{}
			o.bridge.confirm = o.confirm
		}
		o.console.Infof("Resuming from stage: %s", saved.Stage)
		return o.Run(ctx, saved.Stage)
	}

	o.console.Warnf("No saved state found. Detecting system state...")
	detected := o.resolver.DetectStage(ctx, o.target)
	if detected == StageComplete {
		o.console.Successf("System already fully upgraded")
		return nil
	}
	if detected == StageInit {
		if o.target == "" {
			o.target = o.resolver.QueryLatest(ctx, false)
		}
		if o.target != "" {
			current := o.resolver.CurrentVersion(ctx)
			if current != "" && !version.SameBranch(current, o.target) {
				o.console.Warnf("Packages on %s but %s available", version.Branch(current), version.Branch(o.target))
				o.console.Infof("Base/kernel likely already upgraded. Resuming from pkg fix.")
				detected = StageFixPkg
			}
		}
		if detected == StageInit {
			o.console.Infof("No incomplete upgrade detected. System is in normal state.")
			o.console.Infof("Nothing to resume. Use --target to start a new upgrade.")
			return nil
		}
	}
	if o.target == "" {
		o.target = o.resolver.QueryLatest(ctx, false)
		if o.target == "" {
			return fmt.Errorf("cannot determine target version, specify one with --target")
		}
		o.console.Infof("Auto-detected target version: %s", o.target)
	}

	o.console.Infof("Resuming from stage: %s", detected)
	return o.Run(ctx, detected)
}

// Run executes every stage at or after from, in canonical order.
func (o *Orchestrator) Run(ctx context.Context, from Stage) error {
	mode := ""
	if o.dryRun {
		mode = " [DRY RUN]"
	}
	o.console.Headerf("OPNsense Upgrade%s", mode)
	o.console.Infof("Target version: %s", o.target)
	o.console.Infof("Starting from stage: %s", from)

	handlers := map[Stage]func(context.Context) error{
		StageInit:       o.stagePrechecks,
		StagePrechecks:  o.stagePrechecks,
		StageCleanup:    o.stageCleanup,
		StageBackup:     o.stageBackup,
		StageBaseKernel: o.stageBaseKernel,
		StageFixPkg:     o.stageFixPkg,
		StagePackages:   o.stagePackages,
		StagePostVerify: o.stagePostVerify,
	}

	for _, stage := range Order {
		if stage < from {
			continue
		}
		if stage == StageComplete {
			return o.stageComplete(ctx)
		}
		if err := handlers[stage](ctx); err != nil {
			return err
		}
	}
	return nil
}

// checkpoint persists progress so the run continues at stage after a
// crash or reboot.
func (o *Orchestrator) checkpoint(stage Stage) error {
	return o.store.Save(stage, o.target, o.minor, o.opts.Force, o.console.LogPath())
}

func (o *Orchestrator) stagePrechecks(ctx context.Context) error {
	o.console.Headerf("%s", StagePrechecks)

	usage, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return fmt.Errorf("reading disk usage: %w", err)
	}
	availMB := usage.Free / (1024 * 1024)
	o.console.Infof("Available space: %dMB", availMB)
	if availMB < config.MinFreeDiskMB {
		return fmt.Errorf("insufficient disk space: need %dMB, have %dMB", config.MinFreeDiskMB, availMB)
	}
	o.console.Successf("Disk space check passed")

	if o.dryRun {
		o.console.Infof("[DRY RUN] Would check package database (pkg check -Ba)")
		o.console.Infof("[DRY RUN] Would check for obsolete Python 3.7 packages")
	} else {
		o.console.Infof("Checking package database integrity (this may take a minute)...")
		if !o.runner.RunStreaming(ctx, "pkg check -Ba") {
			o.console.Warnf("Package database has issues")
			ok, cerr := o.confirm.Confirm("Attempt to fix package issues?")
			if cerr != nil {
				return fmt.Errorf("confirming package fix: %w", cerr)
			}
			if ok {
				o.runner.RunStreaming(ctx, "pkg check -da")
			}
		}

		obsolete := o.runner.Output(ctx, "pkg query '%n' | grep '^py37-'", o.cfg.Timeouts.Diagnostic)
		if obsolete != "" {
			o.console.Warnf("Found obsolete Python 3.7 packages")
			ok, cerr := o.confirm.Confirm("Remove obsolete packages?")
			if cerr != nil {
				return fmt.Errorf("confirming package removal: %w", cerr)
			}
			if ok {
				for _, name := range strings.Fields(obsolete) {
					o.runner.Run(ctx, fmt.Sprintf("pkg delete -fy %s", name))
				}
			}
		}
	}

	if err := o.clearStaleLock(ctx); err != nil {
		return err
	}

	o.console.Successf("Pre-checks completed")
	return o.checkpoint(StageCleanup)
}

// clearStaleLock removes an orphaned package-manager lock, but refuses to
// proceed while a live pkg process owns it.
func (o *Orchestrator) clearStaleLock(ctx context.Context) error {
	if _, err := os.Stat(o.cfg.Paths.PkgLock); err != nil {
		return nil
	}
	procs, err := process.ProcessesWithContext(ctx)
	if err == nil {
		for _, p := range procs {
			name, nerr := p.NameWithContext(ctx)
			if nerr == nil && name == "pkg" {
				return fmt.Errorf("pkg process is running (pid %d), wait for it or kill it manually", p.Pid)
			}
		}
	}
	o.console.Warnf("Removing stale lock: %s", o.cfg.Paths.PkgLock)
	if o.dryRun {
		o.console.Infof("[DRY RUN] Would remove %s", o.cfg.Paths.PkgLock)
		return nil
	}
	if err := os.Remove(o.cfg.Paths.PkgLock); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale pkg lock: %w", err)
	}
	return nil
}

func (o *Orchestrator) stageCleanup(ctx context.Context) error {
	o.console.Headerf("%s", StageCleanup)
	// Best effort, failures are not fatal.
	o.runner.Run(ctx, "pkg autoremove -y")
	o.runner.Run(ctx, "pkg clean -ay")
	o.runner.Run(ctx, "rm -rf /tmp/* /var/tmp/*")
	o.console.Successf("Cleanup completed")
	return o.checkpoint(StageBackup)
}

func (o *Orchestrator) stageBackup(ctx context.Context) error {
	o.console.Headerf("%s", StageBackup)
	if err := o.backupConfig(ctx, false); err != nil {
		return err
	}
	o.console.Successf("Backup completed")
	return o.checkpoint(StageBaseKernel)
}

// Backup saves the configuration and installed package list without
// starting an upgrade.
func (o *Orchestrator) Backup(ctx context.Context) error {
	o.console.Headerf("Configuration Backup")
	return o.backupConfig(ctx, true)
}

func (o *Orchestrator) backupConfig(ctx context.Context, verbose bool) error {
	ts := time.Now().Format("20060102-150405")

	if o.dryRun {
		o.console.Infof("[DRY RUN] Would backup %s", o.cfg.Paths.ConfigXML)
		o.console.Infof("[DRY RUN] Would save package list")
		return nil
	}

	if _, err := os.Stat(o.cfg.Paths.ConfigXML); err != nil {
		return fmt.Errorf("configuration file %s not found", o.cfg.Paths.ConfigXML)
	}
	if err := os.MkdirAll(o.cfg.Paths.BackupDir, 0o700); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	configPath := filepath.Join(o.cfg.Paths.BackupDir, fmt.Sprintf("config-backup-%s.xml", ts))
	if err := copyFile(o.cfg.Paths.ConfigXML, configPath); err != nil {
		return fmt.Errorf("backing up configuration: %w", err)
	}
	o.console.Successf("Config backed up: %s", configPath)

	pkgPath := filepath.Join(o.cfg.Paths.BackupDir, fmt.Sprintf("packages-%s.txt", ts))
	list := o.runner.Output(ctx, "pkg query '%n-%v'", o.cfg.Timeouts.Diagnostic)
	if err := os.WriteFile(pkgPath, []byte(list+"\n"), 0o600); err != nil {
		return fmt.Errorf("saving package list: %w", err)
	}
	o.console.Successf("Package list saved: %s", pkgPath)

	if verbose {
		o.console.Infof("")
		o.console.Infof("Backup contents:")
		o.console.Infof("  Settings (XML):   %s", configPath)
		o.console.Infof("  Package list:     %s", pkgPath)
		o.console.Infof("  Original config:  %s", o.cfg.Paths.ConfigXML)
		o.console.Infof("")
		o.console.Infof("To restore settings, copy the XML backup back:")
		o.console.Infof("  cp %s %s", configPath, o.cfg.Paths.ConfigXML)
	}
	return nil
}

func (o *Orchestrator) stageBaseKernel(ctx context.Context) error {
	o.console.Headerf("%s", StageBaseKernel)

	if o.minor {
		if o.dryRun {
			o.console.Infof("[DRY RUN] Would run: opnsense-update -bk")
			o.console.Infof("[DRY RUN] Would reboot if base/kernel changed")
			return o.checkpoint(StagePackages)
		}
		o.console.Infof("Updating base and kernel for minor release...")
		ok, out := o.runner.RunStreamingOutput(ctx, "opnsense-update -bk")
		if !ok {
			o.console.Warnf("Base/kernel update reported errors, continuing...")
		}
		o.console.Successf("Base/kernel update completed")
		if err := o.checkpoint(StagePackages); err != nil {
			return err
		}
		if strings.Contains(strings.ToLower(out), "please reboot") {
			return o.bridge.Schedule(ctx, fmt.Sprintf("OPNsense upgrade - Stage: %s", StagePackages))
		}
		return nil
	}

	o.console.Warnf("Upgrading base and kernel to %s", o.target)
	o.console.Warnf("This will require a reboot")
	ok, err := o.confirm.Confirm("Proceed with base/kernel upgrade?")
	if err != nil {
		return fmt.Errorf("confirming base/kernel upgrade: %w", err)
	}
	if !ok {
		o.console.Infof("Upgrade cancelled")
		if cerr := o.store.Clear(); cerr != nil {
			return cerr
		}
		return fmt.Errorf("base/kernel upgrade declined")
	}

	if o.dryRun {
		o.console.Infof("[DRY RUN] Would run: opnsense-update -ubkf")
		o.console.Infof("[DRY RUN] Would save state and trigger reboot")
		return o.checkpoint(StageFixPkg)
	}

	if !o.runner.RunStreaming(ctx, "opnsense-update -ubkf") {
		return fmt.Errorf("base/kernel update failed")
	}
	o.console.Successf("Base/kernel update completed")
	// Persist the successor before the reboot so a resume never
	// repeats the base/kernel flash.
	if err := o.checkpoint(StageFixPkg); err != nil {
		return err
	}
	return o.bridge.Schedule(ctx, fmt.Sprintf("OPNsense upgrade - Stage: %s", StageFixPkg))
}

func (o *Orchestrator) stageFixPkg(ctx context.Context) error {
	o.console.Headerf("%s", StageFixPkg)
	o.console.Infof("Checking pkg compatibility with new base...")

	if o.dryRun {
		o.console.Infof("[DRY RUN] Would check pkg compatibility")
		o.console.Infof("[DRY RUN] Would reinstall pkg if incompatible")
		return o.checkpoint(StagePackages)
	}

	// pkg -v alone is not enough — it can pass while pkg update still
	// crashes against the new base.
	if o.runner.Check(ctx, "pkg -v") &&
		o.runner.Check(ctx, "pkg query '%n' opnsense") {
		o.console.Successf("pkg is working correctly")
	} else {
		o.console.Warnf("pkg is incompatible with new base - reinstalling")
		reinstalled := o.runner.RunStreaming(ctx, "pkg-static install -fy pkg") &&
			o.runner.Check(ctx, "pkg -v")
		if !reinstalled {
			o.console.Warnf("Attempting bootstrap...")
			if !o.runner.RunStreaming(ctx, "opnsense-bootstrap -y") {
				return fmt.Errorf("pkg bootstrap failed")
			}
			o.console.Successf("Bootstrap successful")
		}
	}

	// Force-reinstall regardless so nothing stale survives the base
	// upgrade.
	o.console.Infof("Reinstalling pkg to ensure full compatibility...")
	o.runner.Run(ctx, "pkg-static install -fy pkg")

	return o.checkpoint(StagePackages)
}

func (o *Orchestrator) stagePackages(ctx context.Context) error {
	o.console.Headerf("%s", StagePackages)
	o.console.Infof("Upgrading packages to %s...", o.target)

	targetBranch := version.Branch(o.target)
	switch {
	case o.dryRun && o.minor:
		o.console.Infof("[DRY RUN] Would run: opnsense-update -p")
	case o.dryRun:
		o.console.Infof("[DRY RUN] Would switch pkg repo to %s", targetBranch)
		o.console.Infof("[DRY RUN] Would run: pkg update -f")
		o.console.Infof("[DRY RUN] Would run: pkg upgrade -fy")
		o.console.Infof("[DRY RUN] Would run: opnsense-update")
	case o.minor:
		if !o.runner.RunStreaming(ctx, "opnsense-update -p") {
			o.console.Warnf("Package update reported errors, continuing...")
		}
	default:
		if err := o.switchPkgRepo(targetBranch); err != nil {
			return err
		}
		if !o.runner.Run(ctx, "pkg update -f") {
			o.console.Warnf("pkg update failed, attempting anyway...")
		}
		o.console.Infof("Upgrading all packages to new branch...")
		if !o.runner.RunStreaming(ctx, "pkg upgrade -fy") {
			o.console.Warnf("pkg upgrade reported errors, continuing...")
		}
		o.console.Infof("Finalizing with opnsense-update...")
		if !o.runner.RunStreaming(ctx, "opnsense-update") {
			o.console.Warnf("opnsense-update reported errors, checking...")
		}

		ver := o.resolver.CurrentVersion(ctx)
		if ver == "" || !version.SameBranch(ver, o.target) {
			return fmt.Errorf("package upgrade failed, still on %s", orUnknown(ver))
		}
		o.console.Successf("Upgraded to %s", ver)
	}

	o.console.Successf("Package upgrade completed")
	return o.checkpoint(StagePostVerify)
}

// switchPkgRepo rewrites the repo configuration's branch segment, e.g.
// /25.7/ to /26.1/. Idempotent when the repo already points at target.
func (o *Orchestrator) switchPkgRepo(targetBranch string) error {
	conf := o.cfg.Paths.RepoConf
	raw, err := os.ReadFile(conf)
	if err != nil {
		return fmt.Errorf("reading pkg repo config %s: %w", conf, err)
	}

	updated := repoBranchPattern.ReplaceAllString(string(raw), "/"+targetBranch+"/")
	if updated == string(raw) {
		o.console.Infof("Repo already pointing to %s", targetBranch)
		return nil
	}

	o.console.Infof("Switching pkg repo to %s...", targetBranch)
	if err := os.WriteFile(conf, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("updating pkg repo config %s: %w", conf, err)
	}
	o.console.Successf("Pkg repo switched to %s", targetBranch)
	return nil
}

func (o *Orchestrator) stagePostVerify(ctx context.Context) error {
	o.console.Headerf("%s", StagePostVerify)
	o.console.Infof("Current version: %s", orUnknown(o.resolver.CurrentVersion(ctx)))
	o.console.Infof("FreeBSD version: %s", o.resolver.FreeBSDVersion(ctx))

	if o.dryRun {
		o.console.Infof("[DRY RUN] Would verify package database")
		o.console.Infof("[DRY RUN] Would check critical services")
	} else {
		o.console.Infof("Verifying package database integrity (this may take a minute)...")
		if o.runner.RunStreaming(ctx, "pkg check -Ba") {
			o.console.Successf("Package database is healthy")
		} else {
			o.console.Warnf("Package database has issues")
		}

		for _, svc := range []string{"configd", "syslog-ng"} {
			if o.runner.Check(ctx, fmt.Sprintf("service %s status", svc)) {
				o.console.Successf("%s is running", svc)
			} else {
				o.console.Warnf("%s is not running", svc)
			}
		}
	}

	o.console.Successf("Post-verification completed")
	if err := o.checkpoint(StageComplete); err != nil {
		return err
	}

	if o.dryRun {
		o.console.Infof("[DRY RUN] Would check if reboot is required")
		return nil
	}
	if _, err := os.Stat(o.cfg.Paths.RebootFlag); err == nil {
		o.console.Warnf("Final reboot recommended")
		ok, cerr := o.confirm.Confirm("Reboot now to complete upgrade?")
		if cerr != nil {
			return fmt.Errorf("confirming final reboot: %w", cerr)
		}
		if ok {
			return o.bridge.RebootNow(ctx, "OPNsense upgrade complete")
		}
	}
	return nil
}

func (o *Orchestrator) stageComplete(ctx context.Context) error {
	if o.dryRun {
		o.console.Headerf("Dry Run Complete")
		o.console.Successf("Dry run finished - no changes were made")
		o.console.Infof("Current version: %s", orUnknown(o.resolver.CurrentVersion(ctx)))
		o.console.Infof("Review the output above, then run with --execute to perform the upgrade")
		return nil
	}

	o.console.Headerf("Upgrade Complete!")
	o.console.Successf("OPNsense upgrade completed successfully")
	o.console.Infof("Current version: %s", orUnknown(o.resolver.CurrentVersion(ctx)))
	o.console.Infof("FreeBSD version: %s", o.resolver.FreeBSDVersion(ctx))
	if err := o.store.Clear(); err != nil {
		return err
	}
	if err := o.bridge.RemoveHook(); err != nil {
		return err
	}
	o.console.Successf("All upgrade stages completed")
	return nil
}

// Clean discards persisted upgrade state and the auto-resume hook.
func (o *Orchestrator) Clean() error {
	if err := o.store.Clear(); err != nil {
		return err
	}
	if err := o.bridge.RemoveHook(); err != nil {
		return err
	}
	o.console.Successf("State cleaned.")
	return nil
}

// Status reports persisted state, if any.
func (o *Orchestrator) Status() error {
	saved, err := o.store.Load()
	if err != nil {
		return err
	}
	if saved == nil {
		o.console.Infof("No upgrade in progress")
		return nil
	}
	o.console.Headerf("Upgrade In Progress")
	o.console.Infof("Stage:       %s", saved.Stage)
	o.console.Infof("Target:      %s", saved.Version)
	o.console.Infof("Minor only:  %t", saved.MinorOnly)
	o.console.Infof("Force mode:  %t", saved.ForceMode)
	if saved.Timestamp != 0 {
		o.console.Infof("Saved at:    %s", time.Unix(saved.Timestamp, 0).Format(time.RFC1123))
	}
	if saved.LogFile != "" {
		o.console.Infof("Log file:    %s", saved.LogFile)
	}
	o.console.Infof("Resume with: opnup upgrade --execute --resume")
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
