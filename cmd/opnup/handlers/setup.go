// Package handlers implements the CLI commands: each handler loads the
// configuration, wires the platform capabilities, and delegates to the
// upgrade engine.
package handlers

import (
	"fmt"
	"io"
	"os"

	"github.com/opnup/opnup/internal/config"
	"github.com/opnup/opnup/internal/platform/api"
	"github.com/opnup/opnup/internal/ui"
)

// loadConfig returns the defaults, overlaid with the given YAML file when
// one is specified.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// apiClient builds the appliance REST client, or explains what is missing.
func apiClient(cfg *config.Config) (*api.Client, error) {
	if cfg.API.URL == "" {
		return nil, fmt.Errorf("this command requires the REST API: set OPNSENSE_URL, OPNSENSE_API_KEY and OPNSENSE_API_SECRET")
	}
	return api.NewClient(cfg.API)
}

// newConsole opens the run's console with a log file under the configured
// log directory. When the log directory is not writable (e.g. running a
// read-only command without root) the console degrades to terminal-only.
func newConsole(cfg *config.Config, prefix string) *ui.Console {
	console, err := ui.New(cfg.Paths.LogDir, prefix)
	if err != nil {
		fallback := ui.NewWithWriters(os.Stdout, io.Discard)
		fallback.Warnf("Logging to file disabled: %v", err)
		return fallback
	}
	return console
}
