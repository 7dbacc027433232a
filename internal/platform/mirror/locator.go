package mirror

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/opnup/opnup/internal/config"
	"github.com/opnup/opnup/internal/platform/shell"
)

var (
	repoURLPattern = regexp.MustCompile(`pkg\+https://[^"]+`)
	branchTailCut  = regexp.MustCompile(`/[0-9]{2}\.[0-9][^/]*/.*`)
)

// Locator resolves the package mirror base URL for this appliance: the
// URL up to but excluding the branch path segment. Resolution order is
// the configured repository file, then a URL synthesized from the
// platform's architecture and OS major. The result is cached for the
// process lifetime.
type Locator struct {
	repoConf     string
	fallbackBase string
	runner       shell.Runner
	timeouts     config.Timeouts

	cached string
}

// NewLocator creates a Locator.
func NewLocator(cfg *config.Config, runner shell.Runner) *Locator {
	return &Locator{
		repoConf:     cfg.Paths.RepoConf,
		fallbackBase: cfg.Mirror.FallbackBase,
		runner:       runner,
		timeouts:     cfg.Timeouts,
	}
}

// BaseURL returns the mirror base URL, e.g.
// "https://pkg.opnsense.org/FreeBSD:14:amd64".
func (l *Locator) BaseURL(ctx context.Context) string {
	if l.cached != "" {
		return l.cached
	}
	if url := l.fromRepoConf(); url != "" {
		l.cached = url
		return url
	}
	l.cached = l.synthesize(ctx)
	return l.cached
}

// fromRepoConf extracts the mirror base from the pkg repository file by
// taking the configured pkg+https URL and cutting everything from the
// branch segment on.
func (l *Locator) fromRepoConf() string {
	data, err := os.ReadFile(l.repoConf)
	if err != nil {
		return ""
	}
	match := repoURLPattern.FindString(string(data))
	if match == "" {
		return ""
	}
	url := strings.TrimPrefix(match, "pkg+")
	return branchTailCut.ReplaceAllString(url, "")
}

// synthesize builds the default mirror URL from uname facts.
func (l *Locator) synthesize(ctx context.Context) string {
	arch := l.runner.Output(ctx, "uname -m", l.timeouts.Diagnostic)
	if arch == "" {
		arch = "amd64"
	}
	osMajor := FreeBSDMajor(l.runner.Output(ctx, "uname -r", l.timeouts.Diagnostic))
	return fmt.Sprintf("%s/FreeBSD:%s:%s", l.fallbackBase, osMajor, arch)
}

// FreeBSDMajor extracts the major component of a FreeBSD release string
// ("14" from "14.2-RELEASE-p1").
func FreeBSDMajor(release string) string {
	release = strings.TrimSpace(release)
	if release == "" {
		return ""
	}
	if i := strings.Index(release, "."); i >= 0 {
		return release[:i]
	}
	return release
}

// MetaURL returns the per-branch manifest used to validate that a branch
// exists on the mirror.
func MetaURL(base, branch string) string {
	return fmt.Sprintf("%s/%s/latest/meta.conf", base, branch)
}
