package upgrade

import (
	"context"
	"regexp"
	"strings"

	"github.com/opnup/opnup/internal/version"
)

var abiReleasePattern = regexp.MustCompile(`FreeBSD:(\d+)`)

// DetectStage infers where an interrupted upgrade left the system when no
// persisted state exists, by comparing the pkg ABI, the installed
// version and the updater advisory against the target. Ordered from most
// to least broken.
func (r *Resolver) DetectStage(ctx context.Context, target string) Stage {
	r.console.Infof("Detecting system state...")

	current := r.CurrentVersion(ctx)
	osRelease := r.FreeBSDVersion(ctx)

	// ABI mismatch: the base system moved but pkg still speaks the old
	// ABI. The package tooling must be repaired before anything else.
	pkgOut := r.runner.CombinedOutput(ctx, "pkg -vv", r.cfg.Timeouts.Diagnostic)
	if m := abiReleasePattern.FindStringSubmatch(pkgOut); m != nil && osRelease != "" {
		osMajor := strings.SplitN(osRelease, ".", 2)[0]
		if m[1] != osMajor {
			r.console.Warnf("pkg ABI (FreeBSD:%s) does not match OS release %s", m[1], osRelease)
			return StageFixPkg
		}
	}

	if target != "" && current != "" && version.SameBranch(current, target) {
		r.console.Successf("Already on target branch %s", version.Branch(target))
		return StageComplete
	}

	out := r.runner.CombinedOutput(ctx, "opnsense-update -c", r.cfg.Timeouts.Diagnostic)
	if strings.Contains(strings.ToLower(out), "can be upgraded") {
		return StageBaseKernel
	}

	if target != "" && current != "" && !version.SameBranch(current, target) {
		// Base moved past the installed packages; repair pkg, then
		// reinstall the package set.
		return StageFixPkg
	}

	return StageInit
}
