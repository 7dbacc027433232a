// Package upgrade implements the stateful upgrade orchestrator: the stage
// state machine, the persisted checkpoint store, multi-method version
// resolution, and the reboot/auto-resume bridge.
package upgrade

// Stage identifies one step of the upgrade state machine. The numeric
// values are persisted in the state file and must stay stable across
// releases so an interrupted upgrade resumes correctly after the tool
// itself was updated; the gaps in the sequence are historical.
type Stage int

const (
	// StageInit is the entry sentinel; it is never persisted as current.
	StageInit Stage = 0
	// StagePrechecks validates disk space and package-manager health.
	StagePrechecks Stage = 1
	// StageCleanup removes stale packages and temp files.
	StageCleanup Stage = 2
	// StageBackup snapshots the configuration and package list.
	StageBackup Stage = 3
	// StageBaseKernel replaces the base system and kernel.
	StageBaseKernel Stage = 4
	// StageFixPkg restores package-tool compatibility with the new base.
	StageFixPkg Stage = 6
	// StagePackages reconciles all packages onto the target branch.
	StagePackages Stage = 7
	// StagePostVerify runs best-effort health checks.
	StagePostVerify Stage = 8
	// StageComplete is terminal.
	StageComplete Stage = 10
)

// Order is the canonical execution order. It is fixed: run parameters
// select where execution starts, never which stages follow.
var Order = []Stage{
	StagePrechecks,
	StageCleanup,
	StageBackup,
	StageBaseKernel,
	StageFixPkg,
	StagePackages,
	StagePostVerify,
	StageComplete,
}

var stageNames = map[Stage]string{
	StageInit:       "Initialization",
	StagePrechecks:  "Pre-checks",
	StageCleanup:    "Cleanup",
	StageBackup:     "Backup",
	StageBaseKernel: "Base/Kernel Upgrade",
	StageFixPkg:     "Fix pkg Compatibility",
	StagePackages:   "Package Upgrade",
	StagePostVerify: "Post-Verification",
	StageComplete:   "Complete",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether s is a defined stage.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// Terminal reports whether s ends the state machine.
func (s Stage) Terminal() bool {
	return s == StageComplete
}
