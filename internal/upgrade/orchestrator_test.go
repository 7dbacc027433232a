package upgrade

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opnup/opnup/internal/config"
	"github.com/opnup/opnup/internal/platform/shell"
)

func newTestOrchestrator(t *testing.T, opts Options, outputs map[string]string, probe *fakeProbe) (*Orchestrator, *shell.ScriptRunner, *config.Config) {
	t.Helper()
	cfg := newTestConfig(t)
	runner := shell.NewScriptRunner()
	for cmd, out := range outputs {
		runner.Outputs[cmd] = out
	}
	if probe == nil {
		probe = &fakeProbe{}
	}
	return New(cfg, testConsole(), runner, probe, opts), runner, cfg
}

func targetOnMirror(branches ...string) *fakeProbe {
	probe := &fakeProbe{exists: map[string]bool{}}
	for _, b := range branches {
		probe.exists[testMirrorBase+"/"+b+"/latest/meta.conf"] = true
	}
	return probe
}

func TestStartRejectsMinorCrossBranch(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, Options{Target: "26.1", Minor: true, Execute: true, Force: true},
		map[string]string{"opnsense-version": "OPNsense 25.7.2 (amd64)"}, nil)

	err := o.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "major upgrade, not a minor update")
}

func TestStartAlreadyOnTarget(t *testing.T) {
	o, runner, _ := newTestOrchestrator(t, Options{Target: "25.7.2", Execute: true, Force: true},
		map[string]string{"opnsense-version": "OPNsense 25.7.2 (amd64)"}, nil)

	require.NoError(t, o.Start(context.Background()))
	assert.False(t, runner.Ran("pkg autoremove -y"))
}

func TestStartPendingMinorBlocksMajor(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, Options{Target: "26.1", Execute: true, Force: true},
		map[string]string{
			"opnsense-version":          "OPNsense 25.7.1 (amd64)",
			"configctl firmware status": `{"product_latest":"25.7.2","upgrade_major_version":""}`,
		}, targetOnMirror("26.1"))

	err := o.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending minor update")
}

func TestStartRefusesWhenStateExists(t *testing.T) {
	o, _, cfg := newTestOrchestrator(t, Options{Target: "26.1", Execute: true, Force: true},
		map[string]string{"opnsense-version": "OPNsense 25.7.1 (amd64)"}, targetOnMirror("26.1"))

	prior := NewStore(cfg.Paths.StateFile, testConsole(), false)
	require.NoError(t, prior.Save(StageBackup, "26.1", false, false, ""))

	err := o.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in progress")
}

func TestStartAutoTargetReportsMinorWhenMajorRequested(t *testing.T) {
	// --target without a value asks for a major, but only a minor exists.
	o, runner, _ := newTestOrchestrator(t, Options{TargetRequested: true, Execute: true, Force: true},
		map[string]string{
			"opnsense-version":          "OPNsense 25.7.1 (amd64)",
			"configctl firmware status": `{"product_latest":"25.7.2","upgrade_major_version":""}`,
		}, nil)

	require.NoError(t, o.Start(context.Background()))
	assert.False(t, runner.Ran("pkg autoremove -y"))
}

func TestStartExplicitSameBranchTargetTurnsMinor(t *testing.T) {
	o, runner, cfg := newTestOrchestrator(t, Options{Target: "25.7.3", Execute: true, Force: true},
		map[string]string{"opnsense-version": "OPNsense 25.7.2 (amd64)"}, targetOnMirror("25.7"))
	require.NoError(t, os.WriteFile(cfg.Paths.ConfigXML, []byte("<opnsense/>"), 0o600))

	err := o.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, o.minor)
	// Minor mode took the in-branch update path, not the repo switch.
	assert.True(t, runner.Ran("opnsense-update -p"))
	assert.False(t, runner.Ran("pkg update -f"))
}

func TestMajorBaseKernelCheckpointsSuccessorBeforeReboot(t *testing.T) {
	o, runner, cfg := newTestOrchestrator(t, Options{Target: "26.1", Execute: true, Force: true}, nil, nil)

	err := o.Run(context.Background(), StageBaseKernel)
	require.ErrorIs(t, err, ErrHandoff)
	assert.True(t, runner.Ran("opnsense-update -ubkf"))

	// The successor stage must be on disk before the reboot fires, so a
	// resume never repeats the base/kernel flash.
	saved, lerr := NewStore(cfg.Paths.StateFile, testConsole(), false).Load()
	require.NoError(t, lerr)
	require.NotNil(t, saved)
	assert.Equal(t, StageFixPkg, saved.Stage)
	assert.Equal(t, "26.1", saved.Version)

	hook, herr := os.ReadFile(cfg.Paths.HookFile)
	require.NoError(t, herr)
	assert.Contains(t, string(hook), cfg.Paths.StateFile)
	assert.Contains(t, string(hook), "upgrade --execute --resume")
}

func TestMinorBaseKernelRebootsOnRequest(t *testing.T) {
	o, _, cfg := newTestOrchestrator(t, Options{Target: "25.7.2", Minor: true, Execute: true, Force: true},
		map[string]string{"opnsense-update -bk": "Kernel updated. Please reboot."}, nil)

	err := o.Run(context.Background(), StageBaseKernel)
	require.ErrorIs(t, err, ErrHandoff)

	saved, lerr := NewStore(cfg.Paths.StateFile, testConsole(), false).Load()
	require.NoError(t, lerr)
	require.NotNil(t, saved)
	assert.Equal(t, StagePackages, saved.Stage)
	assert.True(t, saved.MinorOnly)
}

func TestMinorRunCompletesWithoutReboot(t *testing.T) {
	o, runner, cfg := newTestOrchestrator(t, Options{Target: "25.7.2", Minor: true, Execute: true, Force: true},
		map[string]string{
			"opnsense-version":    "OPNsense 25.7.2 (amd64)",
			"uname -r":            "14.2-RELEASE",
			"opnsense-update -bk": "Nothing to do.",
		}, nil)

	err := o.Run(context.Background(), StageBaseKernel)
	require.NoError(t, err)
	assert.True(t, runner.Ran("opnsense-update -p"))
	assert.True(t, runner.Ran("pkg check -Ba"))

	// Completion clears the checkpoint and the boot hook.
	assert.False(t, NewStore(cfg.Paths.StateFile, testConsole(), false).Exists())
	_, herr := os.Stat(cfg.Paths.HookFile)
	assert.True(t, os.IsNotExist(herr))
}

func TestRunResumeSkipsEarlierStages(t *testing.T) {
	o, runner, _ := newTestOrchestrator(t, Options{Target: "25.7.2", Minor: true, Execute: true, Force: true},
		map[string]string{"opnsense-version": "OPNsense 25.7.2 (amd64)"}, nil)

	require.NoError(t, o.Run(context.Background(), StagePackages))
	assert.True(t, runner.Ran("opnsense-update -p"))
	assert.False(t, runner.Ran("opnsense-update -bk"))
	assert.False(t, runner.Ran("pkg autoremove -y"))
}

func TestResumeRestoresSavedState(t *testing.T) {
	o, runner, cfg := newTestOrchestrator(t, Options{Resume: true, Execute: true, Force: true},
		map[string]string{
			"opnsense-version": "OPNsense 25.7.2 (amd64)",
			"uname -r":         "14.2-RELEASE",
		}, nil)

	prior := NewStore(cfg.Paths.StateFile, testConsole(), false)
	require.NoError(t, prior.Save(StagePackages, "25.7.2", true, false, ""))

	require.NoError(t, o.Start(context.Background()))
	assert.True(t, runner.Ran("opnsense-update -p"))
	assert.False(t, runner.Ran("opnsense-update -bk"))
	assert.False(t, prior.Exists())
}

func TestResumeWithoutStateDetectsCompletedSystem(t *testing.T) {
	o, runner, _ := newTestOrchestrator(t, Options{Resume: true, Target: "26.1", Execute: true, Force: true},
		map[string]string{
			"opnsense-version": "OPNsense 26.1.1 (amd64)",
			"uname -r":         "14.2-RELEASE",
		}, nil)

	require.NoError(t, o.Start(context.Background()))
	assert.False(t, runner.Ran("pkg autoremove -y"))
}

func TestResumeWithoutStateNormalSystem(t *testing.T) {
	o, runner, _ := newTestOrchestrator(t, Options{Resume: true, Execute: true, Force: true}, nil, nil)

	require.NoError(t, o.Start(context.Background()))
	assert.False(t, runner.Ran("pkg autoremove -y"))
}

func TestResumeWithoutStateOrTargetLeavesHealthySystemAlone(t *testing.T) {
	// The boot hook resumes without a target. On a healthy system that
	// must end in "nothing to resume", not in the pkg repair stages.
	o, runner, _ := newTestOrchestrator(t, Options{Resume: true, Execute: true, Force: true},
		map[string]string{
			"opnsense-version": "OPNsense 25.7.2 (amd64)",
			"uname -r":         "14.2-RELEASE",
			"pkg -vv":          `ABI = "FreeBSD:14:amd64";`,
		}, nil)

	require.NoError(t, o.Start(context.Background()))
	assert.False(t, runner.Ran("pkg-static install -fy pkg"))
	assert.False(t, runner.Ran("pkg upgrade -fy"))
}

func TestDryRunTouchesNothing(t *testing.T) {
	o, _, cfg := newTestOrchestrator(t, Options{Target: "26.1"},
		map[string]string{"opnsense-version": "OPNsense 25.7.1 (amd64)"}, targetOnMirror("26.1"))

	require.NoError(t, o.Start(context.Background()))

	_, serr := os.Stat(cfg.Paths.StateFile)
	assert.True(t, os.IsNotExist(serr))
	_, herr := os.Stat(cfg.Paths.HookFile)
	assert.True(t, os.IsNotExist(herr))
	_, berr := os.Stat(cfg.Paths.BackupDir)
	assert.True(t, os.IsNotExist(berr))
}

func TestBackupWritesConfigAndPackageList(t *testing.T) {
	o, _, cfg := newTestOrchestrator(t, Options{Execute: true, Force: true},
		map[string]string{"pkg query '%n-%v'": "opnsense-25.7.2\npkg-1.21.3"}, nil)
	require.NoError(t, os.WriteFile(cfg.Paths.ConfigXML, []byte("<opnsense/>"), 0o600))

	require.NoError(t, o.Backup(context.Background()))

	entries, err := os.ReadDir(cfg.Paths.BackupDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestBackupFailsWithoutConfig(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, Options{Execute: true, Force: true}, nil, nil)

	err := o.Backup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSwitchPkgRepoRewritesBranch(t *testing.T) {
	o, _, cfg := newTestOrchestrator(t, Options{Target: "26.1", Execute: true, Force: true}, nil, nil)

	require.NoError(t, o.switchPkgRepo("26.1"))

	raw, err := os.ReadFile(cfg.Paths.RepoConf)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "/26.1/latest")
	assert.NotContains(t, string(raw), "/25.7/")

	// Idempotent on a second run.
	require.NoError(t, o.switchPkgRepo("26.1"))
}

func TestCleanRemovesStateAndHook(t *testing.T) {
	o, _, cfg := newTestOrchestrator(t, Options{Execute: true, Force: true}, nil, nil)

	store := NewStore(cfg.Paths.StateFile, testConsole(), false)
	require.NoError(t, store.Save(StageBackup, "26.1", false, false, ""))
	require.NoError(t, os.WriteFile(cfg.Paths.HookFile, []byte("#!/bin/sh\n"), 0o755))

	require.NoError(t, o.Clean())
	assert.False(t, store.Exists())
	_, herr := os.Stat(cfg.Paths.HookFile)
	assert.True(t, os.IsNotExist(herr))
}

func TestStatusWithoutState(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, Options{}, nil, nil)
	require.NoError(t, o.Status())
}
