package upgrade

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opnup/opnup/internal/ui"
)

// State is the persisted checkpoint of the single in-flight upgrade. Its
// presence on disk means an upgrade is in progress; it is rewritten after
// every successful stage and removed on completion or explicit clean.
type State struct {
	Stage     Stage  `json:"stage"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
	MinorOnly bool   `json:"minor_only"`
	ForceMode bool   `json:"force_mode"`
	LogFile   string `json:"log_file"`
}

// Store persists the upgrade checkpoint as a single JSON file.
type Store struct {
	path    string
	console *ui.Console
	dryRun  bool
}

// NewStore creates a Store. In dry-run mode Save only describes the
// checkpoint; the file is never touched.
func NewStore(path string, console *ui.Console, dryRun bool) *Store {
	return &Store{path: path, console: console, dryRun: dryRun}
}

// Save writes the checkpoint, replacing any previous content atomically.
func (s *Store) Save(stage Stage, version string, minorOnly, force bool, logFile string) error {
	if s.dryRun {
		s.console.Infof("[DRY RUN] State checkpoint: %s, Version %s", stage, version)
		return nil
	}
	state := State{
		Stage:     stage,
		Version:   version,
		Timestamp: time.Now().Unix(),
		MinorOnly: minorOnly,
		ForceMode: force,
		LogFile:   logFile,
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	// Write-and-rename keeps the checkpoint atomic: a crash mid-save
	// leaves the previous state intact, never a half-written file.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create state temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close state temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	s.console.Infof("State saved: %s, Version %s", stage, version)
	return nil
}

// Load reads the checkpoint. A missing file returns (nil, nil). A corrupt
// or empty file is logged, removed, and also returns (nil, nil): a broken
// checkpoint must degrade to environmental re-detection, never block the
// operator with an error.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if len(data) == 0 || json.Unmarshal(data, &state) != nil || !state.Stage.Valid() {
		s.console.Warnf("Corrupt state file removed: %s", s.path)
		if err := s.Clear(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &state, nil
}

// Clear removes the checkpoint. Removing an absent file is a no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	s.console.Infof("Upgrade state cleared")
	return nil
}

// Exists reports whether a checkpoint is on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
