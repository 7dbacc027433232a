// Package shell executes external appliance commands.
//
// The Runner interface is the only path to the system's package and
// firmware tooling. The production implementation shells out through
// /bin/sh; tests use ScriptRunner with canned outputs, so the whole
// upgrade state machine is testable without an appliance.
package shell

import (
	"context"
	"strings"
	"time"

	gocmd "github.com/go-cmd/cmd"

	"github.com/opnup/opnup/internal/config"
	"github.com/opnup/opnup/internal/ui"
)

// Runner runs external commands. All methods are synchronous. Run and the
// streaming variants honor dry-run mode: they log the intended command and
// report success without executing anything. Output and Check are
// read-only diagnostics and always execute.
type Runner interface {
	// Run executes a mutating command, capturing output into the run log.
	Run(ctx context.Context, command string) bool
	// RunStreaming executes a command, teeing output to console and log.
	RunStreaming(ctx context.Context, command string) bool
	// RunStreamingOutput is RunStreaming but also returns the combined
	// output for inspection.
	RunStreamingOutput(ctx context.Context, command string) (bool, string)
	// Output runs a diagnostic command and returns its trimmed stdout;
	// failures and timeouts yield "".
	Output(ctx context.Context, command string, timeout time.Duration) string
	// CombinedOutput is Output but includes stderr.
	CombinedOutput(ctx context.Context, command string, timeout time.Duration) string
	// Check runs a command and reports whether it exited zero.
	Check(ctx context.Context, command string) bool
}

// ExecRunner is the production Runner.
type ExecRunner struct {
	console  *ui.Console
	dryRun   bool
	timeouts config.Timeouts
}

// NewExecRunner creates a Runner executing through /bin/sh.
func NewExecRunner(console *ui.Console, dryRun bool, timeouts config.Timeouts) *ExecRunner {
	return &ExecRunner{console: console, dryRun: dryRun, timeouts: timeouts}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, command string) bool {
	if r.dryRun {
		r.console.Infof("[DRY RUN] Would run: %s", command)
		return true
	}
	r.console.Infof("Running: %s", command)

	status, timedOut := r.wait(ctx, gocmd.NewCmd("/bin/sh", "-c", command), r.timeouts.Mutating)
	if timedOut {
		r.console.Errorf("Command timed out: %s", command)
		return false
	}
	out := strings.Join(append(status.Stdout, status.Stderr...), "\n")
	if out != "" {
		r.console.Log(out + "\n")
	}
	if status.Error != nil || status.Exit != 0 {
		r.console.Errorf("Command failed (exit %d): %s", status.Exit, command)
		return false
	}
	return true
}

// RunStreaming implements Runner.
func (r *ExecRunner) RunStreaming(ctx context.Context, command string) bool {
	ok, _ := r.RunStreamingOutput(ctx, command)
	return ok
}

// RunStreamingOutput implements Runner.
func (r *ExecRunner) RunStreamingOutput(ctx context.Context, command string) (bool, string) {
	if r.dryRun {
		r.console.Infof("[DRY RUN] Would run: %s", command)
		return true, ""
	}
	r.console.Infof("Running: %s", command)

	c := gocmd.NewCmdOptions(gocmd.Options{Streaming: true}, "/bin/sh", "-c", command)
	var collected strings.Builder
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		w := r.console.Writer()
		for c.Stdout != nil || c.Stderr != nil {
			select {
			case line, open := <-c.Stdout:
				if !open {
					c.Stdout = nil
					continue
				}
				_, _ = w.Write([]byte(line + "\n"))
				collected.WriteString(line + "\n")
			case line, open := <-c.Stderr:
				if !open {
					c.Stderr = nil
					continue
				}
				_, _ = w.Write([]byte(line + "\n"))
				collected.WriteString(line + "\n")
			}
		}
	}()

	status, timedOut := r.wait(ctx, c, r.timeouts.Mutating)
	<-drained
	if timedOut {
		r.console.Errorf("Command timed out: %s", command)
		return false, collected.String()
	}
	return status.Error == nil && status.Exit == 0, collected.String()
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, command string, timeout time.Duration) string {
	status, timedOut := r.wait(ctx, gocmd.NewCmd("/bin/sh", "-c", command), timeout)
	if timedOut || status.Error != nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(status.Stdout, "\n"))
}

// CombinedOutput implements Runner.
func (r *ExecRunner) CombinedOutput(ctx context.Context, command string, timeout time.Duration) string {
	status, timedOut := r.wait(ctx, gocmd.NewCmd("/bin/sh", "-c", command), timeout)
	if timedOut || status.Error != nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(append(status.Stdout, status.Stderr...), "\n"))
}

// Check implements Runner.
func (r *ExecRunner) Check(ctx context.Context, command string) bool {
	status, timedOut := r.wait(ctx, gocmd.NewCmd("/bin/sh", "-c", command), r.timeouts.Diagnostic)
	return !timedOut && status.Error == nil && status.Exit == 0
}

// wait starts the command and blocks until completion, timeout, or context
// cancellation. Timed-out and cancelled commands are stopped.
func (r *ExecRunner) wait(ctx context.Context, c *gocmd.Cmd, timeout time.Duration) (gocmd.Status, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case status := <-c.Start():
		return status, false
	case <-timer.C:
		_ = c.Stop()
		return gocmd.Status{}, true
	case <-ctx.Done():
		_ = c.Stop()
		return gocmd.Status{}, true
	}
}
