package ui

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// Confirmer asks the operator a yes/no question. Force mode and dry-run
// substitute AutoConfirm so unattended runs never block on a prompt.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// TerminalConfirmer prompts interactively on the terminal.
type TerminalConfirmer struct{}

// Confirm shows a yes/no form defaulting to No. An interrupted prompt
// (Ctrl-C, closed stdin) counts as a decline.
func (TerminalConfirmer) Confirm(prompt string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(prompt).
			Affirmative("Yes").
			Negative("No").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return false, nil
		}
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

// AutoConfirm answers yes to every prompt.
type AutoConfirm struct{}

// Confirm always returns true.
func (AutoConfirm) Confirm(string) (bool, error) {
	return true, nil
}

// ConfirmerFor picks the right confirmer for the run mode.
func ConfirmerFor(force, dryRun bool) Confirmer {
	if force || dryRun {
		return AutoConfirm{}
	}
	return TerminalConfirmer{}
}
