package upgrade

import (
	"context"
	"encoding/json"
	"os"
	"regexp"
	"strings"

	"github.com/opnup/opnup/internal/config"
	"github.com/opnup/opnup/internal/platform/mirror"
	"github.com/opnup/opnup/internal/platform/shell"
	"github.com/opnup/opnup/internal/ui"
	"github.com/opnup/opnup/internal/version"
)

var (
	versionTokenPattern  = regexp.MustCompile(`(\d{2}\.\d\S*)`)
	patchVersionPattern  = regexp.MustCompile(`(\d{2}\.\d+\.\d+)`)
	firmwarePairPattern  = regexp.MustCompile(`(?m)^\s*opnsense:\s+[\d.]+(?:_\d+)?\s+->\s+([\d.]+)(?:_\d+)?`)
	changelogDirPattern  = regexp.MustCompile(`^(\d+\.\d+)`)
	jsonFieldPatternTmpl = `"%s"\s*:\s*"([^"]+)"`
)

// firmwareReport is the structured form of a firmware status response as
// emitted by older daemons.
type firmwareReport struct {
	UpgradeMajorVersion string `json:"upgrade_major_version"`
	ProductLatest       string `json:"product_latest"`
}

// candidates accumulates what the detection methods found. Merge rules:
// the first major found wins and is never overwritten; the minor slot is
// replaced only while unset or still equal to the current version.
type candidates struct {
	major string
	minor string
}

func (c *candidates) adoptMajor(v string) {
	if c.major == "" && v != "" {
		c.major = v
	}
}

func (c *candidates) adoptMinor(v, current string) {
	if v == "" || v == current {
		return
	}
	if c.minor == "" || c.minor == current {
		c.minor = v
	}
}

// Resolver determines the current firmware version and the best available
// upgrade candidates. No single source is authoritative on an appliance
// mid-upgrade, so several independent detection methods run in a fixed
// priority order, each skippable on failure.
type Resolver struct {
	cfg     *config.Config
	console *ui.Console
	runner  shell.Runner
	probe   mirror.Probe
	locator *mirror.Locator
}

// NewResolver creates a Resolver.
func NewResolver(cfg *config.Config, console *ui.Console, runner shell.Runner, probe mirror.Probe) *Resolver {
	return &Resolver{
		cfg:     cfg,
		console: console,
		runner:  runner,
		probe:   probe,
		locator: mirror.NewLocator(cfg, runner),
	}
}

// CurrentVersion returns the installed firmware version with the package
// revision stripped, or "" when undeterminable.
func (r *Resolver) CurrentVersion(ctx context.Context) string {
	out := r.runner.Output(ctx, "opnsense-version", r.cfg.Timeouts.Diagnostic)
	fields := strings.Fields(out)
	switch {
	case len(fields) >= 2:
		return version.Normalize(fields[1])
	case len(fields) == 1:
		return version.Normalize(fields[0])
	}
	return ""
}

// FreeBSDVersion returns the running base system release string.
func (r *Resolver) FreeBSDVersion(ctx context.Context) string {
	return r.runner.Output(ctx, "uname -r", r.cfg.Timeouts.Diagnostic)
}

// QueryLatest runs all detection methods and returns the best available
// candidate: a major when one exists, else a minor differing from
// current, else the current version itself (meaning up to date).
// Read-only: repeated calls mutate nothing.
func (r *Resolver) QueryLatest(ctx context.Context, minorOnly bool) string {
	current := r.CurrentVersion(ctx)
	found := &candidates{}

	r.console.Infof("Current version: %s", orUnknown(current))
	r.console.Infof("Querying available versions...")

	// Method 1: firmware daemon status. Highest priority; a major it
	// reports is never displaced by later methods.
	r.detectFirmwareStatus(ctx, current, found)
	if minorOnly {
		found.major = ""
	}

	// Method 2: probe mirrors for the next release branch.
	if !minorOnly && found.major == "" && current != "" {
		r.console.Infof("Checking pkg mirrors for major upgrades...")
		found.adoptMajor(r.probeMajorBranches(ctx, current))
	}

	// Method 3: updater advisory.
	r.detectUpdateAdvisory(ctx, current, found)

	// Method 4: same-branch patch probe, only when nothing non-trivial
	// was found yet.
	if (found.minor == "" || found.minor == current) && current != "" {
		found.adoptMinor(r.probeMinorPatch(ctx, current), current)
	}

	// Method 5: changelog directory heuristic.
	if !minorOnly && current != "" {
		r.scanChangelog(current, found)
	}

	r.printSummary(current, found)

	if found.major != "" {
		return found.major
	}
	if found.minor != "" && found.minor != current {
		return found.minor
	}
	return current
}

// PendingMinor reports a minor update pending for the current branch, or
// "". Used by the policy gate that refuses a major upgrade while a minor
// is outstanding.
func (r *Resolver) PendingMinor(ctx context.Context, current string) string {
	found := &candidates{}
	r.detectFirmwareStatus(ctx, current, found)
	if found.minor != "" && found.minor != current {
		return found.minor
	}
	out := r.runner.CombinedOutput(ctx, "opnsense-update -c", r.cfg.Timeouts.Diagnostic)
	if strings.Contains(strings.ToLower(out), "can be upgraded") {
		if m := versionTokenPattern.FindStringSubmatch(out); m != nil {
			v := version.Normalize(m[1])
			if v != current && version.SameBranch(v, current) {
				return v
			}
		}
	}
	return ""
}

// ValidateOnMirror checks that the chosen version's branch is actually
// published, by fetching the branch manifest.
func (r *Resolver) ValidateOnMirror(ctx context.Context, v string) bool {
	url := mirror.MetaURL(r.locator.BaseURL(ctx), version.Branch(v))
	r.console.Infof("Validating version %s on mirror...", v)
	if r.probe.Exists(ctx, url) {
		r.console.Successf("Version %s validated on mirror", v)
		return true
	}
	r.console.Errorf("Version %s not found on pkg mirror", v)
	r.console.Errorf("Checked: %s", url)
	return false
}

// detectFirmwareStatus parses the firmware daemon's status output, which
// is JSON on older releases and line-oriented "old -> new" pairs on
// newer ones.
func (r *Resolver) detectFirmwareStatus(ctx context.Context, current string, found *candidates) {
	r.console.Infof("Checking via configctl firmware...")
	status := r.runner.CombinedOutput(ctx, "configctl firmware status", r.cfg.Timeouts.FirmwareStatus)
	if status == "" {
		return
	}

	var report firmwareReport
	if json.Unmarshal([]byte(status), &report) != nil {
		report.UpgradeMajorVersion = regexField(status, "upgrade_major_version")
		report.ProductLatest = regexField(status, "product_latest")
	}
	maj, min := report.UpgradeMajorVersion, report.ProductLatest

	// Plain-text package pair: "opnsense: 26.1.1 -> 26.1.2_5 [OPNsense]".
	if m := firmwarePairPattern.FindStringSubmatch(status); m != nil {
		next := m[1]
		if next != "" && next != current {
			if current != "" && !version.SameBranch(next, current) {
				maj = next
			} else {
				min = next
			}
		}
	}

	if min != "" && min != current {
		r.console.Successf("Minor update available (firmware): %s", min)
		found.adoptMinor(min, current)
	}
	if maj != "" {
		r.console.Successf("Major upgrade available (firmware): %s", maj)
		found.adoptMajor(maj)
	}
}

// probeMajorBranches checks the mirror for the plausible next release
// branches and resolves the exact patch version of the first that exists.
func (r *Resolver) probeMajorBranches(ctx context.Context, current string) string {
	base := r.locator.BaseURL(ctx)
	for _, branch := range version.NextBranches(current) {
		r.console.Infof("Checking mirror for %s...", branch)
		if !r.probe.Exists(ctx, mirror.MetaURL(base, branch)) {
			continue
		}
		r.console.Successf("Major upgrade available on pkg mirror: %s", branch)
		if exact := mirror.ExactVersion(ctx, r.probe, base, branch); exact != "" {
			r.console.Successf("Latest patch version: %s", exact)
			return exact
		}
		return branch
	}
	return ""
}

// detectUpdateAdvisory parses the updater's "can be upgraded" advisory.
func (r *Resolver) detectUpdateAdvisory(ctx context.Context, current string, found *candidates) {
	r.console.Infof("Checking via opnsense-update...")
	out := r.runner.CombinedOutput(ctx, "opnsense-update -c", r.cfg.Timeouts.Diagnostic)
	if !strings.Contains(strings.ToLower(out), "can be upgraded") {
		return
	}
	if m := versionTokenPattern.FindStringSubmatch(out); m != nil {
		r.console.Successf("Update available: %s", m[1])
		found.adoptMinor(version.Normalize(m[1]), current)
	}
}

// probeMinorPatch resolves the latest patch of the current branch: local
// package catalog first, then a repository search, then the mirror
// catalog directly.
func (r *Resolver) probeMinorPatch(ctx context.Context, current string) string {
	// Local pkg catalog; fast, no network.
	out := version.Normalize(r.runner.Output(ctx, "pkg rquery '%v' opnsense 2>/dev/null", r.cfg.Timeouts.Diagnostic))
	if out != "" && out != current && version.SameBranch(out, current) {
		r.console.Successf("Minor update available (pkg): %s", out)
		return out
	}

	// Repository search.
	out = r.runner.Output(ctx, "pkg search -q -e -S name opnsense 2>/dev/null | head -1", r.cfg.Timeouts.Diagnostic)
	if m := patchVersionPattern.FindStringSubmatch(out); m != nil {
		if m[1] != current && version.SameBranch(m[1], current) {
			r.console.Successf("Minor update available (pkg search): %s", m[1])
			return m[1]
		}
	}

	// Mirror catalog.
	branch := version.Branch(current)
	r.console.Infof("Checking pkg mirror for latest %s patch...", branch)
	if exact := mirror.ExactVersion(ctx, r.probe, r.locator.BaseURL(ctx), branch); exact != "" && exact != current {
		r.console.Successf("Minor update available on mirror: %s", exact)
		return exact
	}
	return ""
}

// scanChangelog inspects the changelog directory for the greatest branch
// present; a branch beyond current suggests a major upgrade was published.
func (r *Resolver) scanChangelog(current string, found *candidates) {
	entries, err := os.ReadDir(r.cfg.Paths.ChangelogDir)
	if err != nil {
		return
	}
	latest := ""
	for _, entry := range entries {
		m := changelogDirPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if latest == "" || version.BranchLess(latest, m[1]) {
			latest = m[1]
		}
	}
	if latest == "" {
		return
	}
	if latest != version.Branch(current) {
		r.console.Infof("Changelog indicates major upgrade: %s", latest)
		found.adoptMajor(latest)
	} else {
		found.adoptMinor(latest, current)
	}
}

// printSummary prints the Available Versions block the check command and
// pre-upgrade queries show the operator.
func (r *Resolver) printSummary(current string, found *candidates) {
	r.console.Headerf("Available Versions")
	r.console.Infof("Current version:  %s", orUnknown(current))

	hasMinor := found.minor != "" && found.minor != current
	hasMajor := found.major != ""

	if hasMinor {
		r.console.Successf("Minor update:     %s  (use --minor to update)", found.minor)
	} else {
		r.console.Infof("Minor update:     up to date")
	}

	switch {
	case hasMajor && hasMinor:
		r.console.Warnf("Major upgrade:    %s  (apply minor updates first!)", found.major)
	case hasMajor:
		r.console.Successf("Major upgrade:    %s  (use --target %s to upgrade)", found.major, found.major)
	default:
		r.console.Infof("Major upgrade:    none available")
	}

	if !hasMinor && !hasMajor {
		r.console.Successf("System is up to date")
	}
}

func regexField(text, field string) string {
	re := regexp.MustCompile(strings.Replace(jsonFieldPatternTmpl, "%s", regexp.QuoteMeta(field), 1))
	if m := re.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
