package shell

import (
	"context"
	"sync"
	"time"
)

// ScriptRunner is a Runner returning canned results, keyed by the exact
// command line. Commands without an entry succeed with empty output.
// It records every invocation so tests can assert on what ran.
type ScriptRunner struct {
	mu sync.Mutex

	// Outputs maps a command line to the stdout it should produce.
	Outputs map[string]string
	// Failures marks command lines that exit non-zero.
	Failures map[string]bool

	// Calls is the ordered list of executed command lines.
	Calls []string
}

// NewScriptRunner creates an empty ScriptRunner.
func NewScriptRunner() *ScriptRunner {
	return &ScriptRunner{
		Outputs:  make(map[string]string),
		Failures: make(map[string]bool),
	}
}

func (s *ScriptRunner) record(command string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, command)
}

// Ran reports whether the given command line was executed.
func (s *ScriptRunner) Ran(command string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Calls {
		if c == command {
			return true
		}
	}
	return false
}

// Run implements Runner.
func (s *ScriptRunner) Run(_ context.Context, command string) bool {
	s.record(command)
	return !s.Failures[command]
}

// RunStreaming implements Runner.
func (s *ScriptRunner) RunStreaming(_ context.Context, command string) bool {
	s.record(command)
	return !s.Failures[command]
}

// RunStreamingOutput implements Runner.
func (s *ScriptRunner) RunStreamingOutput(_ context.Context, command string) (bool, string) {
	s.record(command)
	return !s.Failures[command], s.Outputs[command]
}

// Output implements Runner.
func (s *ScriptRunner) Output(_ context.Context, command string, _ time.Duration) string {
	s.record(command)
	return s.Outputs[command]
}

// CombinedOutput implements Runner.
func (s *ScriptRunner) CombinedOutput(_ context.Context, command string, _ time.Duration) string {
	s.record(command)
	return s.Outputs[command]
}

// Check implements Runner.
func (s *ScriptRunner) Check(_ context.Context, command string) bool {
	s.record(command)
	return !s.Failures[command]
}
