package config

import (
	"os"
	"time"
)

// Timeouts bounds every external interaction. Diagnostics stay short so a
// wedged tool cannot stall version detection; mutating package operations
// get a generous ceiling because a full branch upgrade legitimately takes
// minutes.
type Timeouts struct {
	Probe          time.Duration // single mirror HTTP request
	Diagnostic     time.Duration // read-only commands (version queries, checks)
	FirmwareStatus time.Duration // firmware status query, refreshes its cache on first call
	Mutating       time.Duration // state-changing commands (pkg upgrade, base update)
}

// LoadTimeouts loads timeout configuration from environment variables,
// falling back to defaults when unset or unparseable.
//
// Environment variables:
//   - OPNUP_TIMEOUT_PROBE (default: 5s)
//   - OPNUP_TIMEOUT_DIAGNOSTIC (default: 30s)
//   - OPNUP_TIMEOUT_FIRMWARE_STATUS (default: 2m)
//   - OPNUP_TIMEOUT_MUTATING (default: 10m)
func LoadTimeouts() Timeouts {
	return Timeouts{
		Probe:          parseDuration("OPNUP_TIMEOUT_PROBE", 5*time.Second),
		Diagnostic:     parseDuration("OPNUP_TIMEOUT_DIAGNOSTIC", 30*time.Second),
		FirmwareStatus: parseDuration("OPNUP_TIMEOUT_FIRMWARE_STATUS", 2*time.Minute),
		Mutating:       parseDuration("OPNUP_TIMEOUT_MUTATING", 10*time.Minute),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
