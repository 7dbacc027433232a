// Package main is the entry point for the opnup CLI.
//
// opnup is a stateful OPNsense upgrade tool. It drives minor updates and
// major upgrades through a resumable stage pipeline, checkpointing
// progress to disk so reboots mid-upgrade continue automatically.
//
// Commands: upgrade, check, backup, clean, status, changelog.
//
// For detailed usage information, run:
//
//	opnup --help
package main

import (
	"fmt"
	"os"

	"github.com/opnup/opnup/cmd/opnup/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
