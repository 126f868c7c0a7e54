package api

import (
	"os"

	"golang.org/x/term"
)

// IsStdinTTY reports whether stdin is an interactive terminal. Commands that
// prompt refuse to block when their input is piped.
func IsStdinTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
