package upgrade

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opnup/opnup/internal/config"
	"github.com/opnup/opnup/internal/platform/shell"
	"github.com/opnup/opnup/internal/ui"
)

const testMirrorBase = "https://mirror.example/FreeBSD:14:amd64"

func testConsole() *ui.Console {
	return ui.NewWithWriters(io.Discard, io.Discard)
}

// fakeProbe is a canned mirror.Probe.
type fakeProbe struct {
	exists map[string]bool
	data   map[string][]byte
}

func (p *fakeProbe) Exists(_ context.Context, url string) bool {
	return p.exists[url]
}

func (p *fakeProbe) Fetch(_ context.Context, url string) ([]byte, error) {
	if d, ok := p.data[url]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("not found: %s", url)
}

// newTestConfig returns a Config with every path redirected into a
// temporary directory and the repo conf pointing at testMirrorBase.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateFile = filepath.Join(dir, "upgrade.state")
	cfg.Paths.HookFile = filepath.Join(dir, "99-opnsense-upgrade-resume")
	cfg.Paths.ResumeLog = filepath.Join(dir, "resume.log")
	cfg.Paths.RepoConf = filepath.Join(dir, "OPNsense.conf")
	cfg.Paths.ChangelogDir = filepath.Join(dir, "changelog")
	cfg.Paths.BackupDir = filepath.Join(dir, "backups")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.ConfigXML = filepath.Join(dir, "config.xml")
	cfg.Paths.PkgLock = filepath.Join(dir, "pkg.lock")
	cfg.Paths.RebootFlag = filepath.Join(dir, "reboot_required")

	conf := `OPNsense: {
  url: "pkg+https://mirror.example/FreeBSD:14:amd64/25.7/latest",
  priority: 11,
  enabled: yes
}
`
	require.NoError(t, os.WriteFile(cfg.Paths.RepoConf, []byte(conf), 0o644))
	return cfg
}

func newTestResolver(t *testing.T, outputs map[string]string, probe *fakeProbe) (*Resolver, *shell.ScriptRunner) {
	t.Helper()
	runner := shell.NewScriptRunner()
	for cmd, out := range outputs {
		runner.Outputs[cmd] = out
	}
	if probe == nil {
		probe = &fakeProbe{}
	}
	return NewResolver(newTestConfig(t), testConsole(), runner, probe), runner
}

func TestCurrentVersion(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version": "OPNsense 25.7.1_2 (amd64)",
	}, nil)
	assert.Equal(t, "25.7.1", r.CurrentVersion(context.Background()))
}

func TestCurrentVersionUnknown(t *testing.T) {
	r, _ := newTestResolver(t, nil, nil)
	assert.Equal(t, "", r.CurrentVersion(context.Background()))
}

func TestQueryLatestFirmwareMajorWins(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version":          "OPNsense 25.7.5 (amd64)",
		"configctl firmware status": `{"product_latest":"25.7.5","upgrade_major_version":"26.1"}`,
	}, nil)
	assert.Equal(t, "26.1", r.QueryLatest(context.Background(), false))
}

func TestQueryLatestMinorFromFirmwarePair(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version":          "OPNsense 26.1.1 (amd64)",
		"configctl firmware status": "The following packages will be affected:\nopnsense: 26.1.1 -> 26.1.2_5 [OPNsense]",
	}, nil)
	assert.Equal(t, "26.1.2", r.QueryLatest(context.Background(), false))
}

func TestQueryLatestMinorFromAdvisory(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version":   "OPNsense 25.7.1 (amd64)",
		"opnsense-update -c": "Packages can be upgraded to version 25.7.2",
	}, nil)
	assert.Equal(t, "25.7.2", r.QueryLatest(context.Background(), false))
}

func TestQueryLatestProbesMirrorForMajor(t *testing.T) {
	probe := &fakeProbe{
		exists: map[string]bool{
			testMirrorBase + "/26.1/latest/meta.conf": true,
		},
		data: map[string][]byte{
			testMirrorBase + "/26.1/latest/meta.conf": []byte("version = 1\npacking_format = tzst\nmanifests = packagesite.yaml\n# opnsense 26.1.1\n"),
		},
	}
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version": "OPNsense 25.7.2 (amd64)",
	}, probe)
	assert.Equal(t, "26.1.1", r.QueryLatest(context.Background(), false))
}

func TestQueryLatestUpToDate(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version": "OPNsense 25.7.2 (amd64)",
	}, nil)
	assert.Equal(t, "25.7.2", r.QueryLatest(context.Background(), false))
}

func TestQueryLatestMinorOnlySkipsMajor(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version":          "OPNsense 25.7.2 (amd64)",
		"configctl firmware status": `{"product_latest":"25.7.3","upgrade_major_version":"26.1"}`,
	}, nil)
	assert.Equal(t, "25.7.3", r.QueryLatest(context.Background(), true))
}

func TestPendingMinorFromFirmware(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"configctl firmware status": `{"product_latest":"25.7.3","upgrade_major_version":""}`,
	}, nil)
	assert.Equal(t, "25.7.3", r.PendingMinor(context.Background(), "25.7.2"))
}

func TestPendingMinorFromAdvisory(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-update -c": "Packages can be upgraded to version 25.7.3",
	}, nil)
	assert.Equal(t, "25.7.3", r.PendingMinor(context.Background(), "25.7.2"))
}

func TestPendingMinorIgnoresCrossBranchAdvisory(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-update -c": "Packages can be upgraded to version 26.1.1",
	}, nil)
	assert.Equal(t, "", r.PendingMinor(context.Background(), "25.7.2"))
}

func TestPendingMinorNone(t *testing.T) {
	r, _ := newTestResolver(t, nil, nil)
	assert.Equal(t, "", r.PendingMinor(context.Background(), "25.7.2"))
}

func TestValidateOnMirror(t *testing.T) {
	probe := &fakeProbe{exists: map[string]bool{
		testMirrorBase + "/26.1/latest/meta.conf": true,
	}}
	r, _ := newTestResolver(t, nil, probe)

	assert.True(t, r.ValidateOnMirror(context.Background(), "26.1.1"))
	assert.False(t, r.ValidateOnMirror(context.Background(), "27.1"))
}

func TestDetectStageABIMismatch(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version": "OPNsense 25.7.2 (amd64)",
		"uname -r":         "15.0-RELEASE",
		"pkg -vv":          `ABI = "FreeBSD:14:amd64";`,
	}, nil)
	assert.Equal(t, StageFixPkg, r.DetectStage(context.Background(), "26.1"))
}

func TestDetectStageAlreadyOnTarget(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version": "OPNsense 26.1.1 (amd64)",
		"uname -r":         "14.2-RELEASE",
		"pkg -vv":          `ABI = "FreeBSD:14:amd64";`,
	}, nil)
	assert.Equal(t, StageComplete, r.DetectStage(context.Background(), "26.1"))
}

func TestDetectStageAdvisoryMeansBaseKernel(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version":   "OPNsense 25.7.2 (amd64)",
		"uname -r":           "14.2-RELEASE",
		"pkg -vv":            `ABI = "FreeBSD:14:amd64";`,
		"opnsense-update -c": "The base system can be upgraded",
	}, nil)
	assert.Equal(t, StageBaseKernel, r.DetectStage(context.Background(), "26.1"))
}

func TestDetectStageCrossBranchMeansFixPkg(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version": "OPNsense 25.7.2 (amd64)",
		"uname -r":         "14.2-RELEASE",
		"pkg -vv":          `ABI = "FreeBSD:14:amd64";`,
	}, nil)
	assert.Equal(t, StageFixPkg, r.DetectStage(context.Background(), "26.1"))
}

func TestDetectStageNormalSystem(t *testing.T) {
	r, _ := newTestResolver(t, nil, nil)
	assert.Equal(t, StageInit, r.DetectStage(context.Background(), "26.1"))
}

func TestDetectStageEmptyTargetHealthySystem(t *testing.T) {
	// A resume with no target must not mistake a healthy system for a
	// half-finished major upgrade.
	r, _ := newTestResolver(t, map[string]string{
		"opnsense-version": "OPNsense 25.7.2 (amd64)",
		"uname -r":         "14.2-RELEASE",
		"pkg -vv":          `ABI = "FreeBSD:14:amd64";`,
	}, nil)
	assert.Equal(t, StageInit, r.DetectStage(context.Background(), ""))
}

func writeChangelogEntries(t *testing.T, r *Resolver, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(r.cfg.Paths.ChangelogDir, 0o755))
	for _, name := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(r.cfg.Paths.ChangelogDir, name), 0o755))
	}
}

func TestScanChangelogCrossBranchIsMajor(t *testing.T) {
	r, _ := newTestResolver(t, nil, nil)
	writeChangelogEntries(t, r, "25.7.1", "25.7.2", "26.1")

	found := &candidates{}
	r.scanChangelog("25.7.2", found)
	assert.Equal(t, "26.1", found.major)
	assert.Equal(t, "", found.minor)
}

func TestScanChangelogSameBranchIsMinor(t *testing.T) {
	r, _ := newTestResolver(t, nil, nil)
	writeChangelogEntries(t, r, "25.7", "25.7.1")

	found := &candidates{}
	r.scanChangelog("25.7.1", found)
	assert.Equal(t, "", found.major)
	assert.Equal(t, "25.7", found.minor)
}

func TestScanChangelogKeepsEarlierMajor(t *testing.T) {
	r, _ := newTestResolver(t, nil, nil)
	writeChangelogEntries(t, r, "26.7")

	found := &candidates{major: "26.1"}
	r.scanChangelog("25.7.2", found)
	assert.Equal(t, "26.1", found.major)
}

func TestScanChangelogMissingDir(t *testing.T) {
	r, _ := newTestResolver(t, nil, nil)

	found := &candidates{}
	r.scanChangelog("25.7.2", found)
	assert.Equal(t, "", found.major)
	assert.Equal(t, "", found.minor)
}
