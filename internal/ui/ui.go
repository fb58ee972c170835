// Package ui renders status messages and diagnostics for the quarry CLI.
//
// All human-readable output goes to stderr; stdout is reserved for
// machine-readable command output and is never affected by verbosity.
package ui

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	mu        sync.Mutex
	verbosity int

	profileOnce sync.Once
)

// Styles for the right-aligned status verbs and diagnostics.
var (
	verbStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	modifyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func setupProfile() {
	profileOnce.Do(func() {
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stderr).ColorProfile())
	})
}

// SetVerbosity sets the diagnostic level: negative values silence status
// messages, positive values enable verbose ones.
func SetVerbosity(n int) {
	mu.Lock()
	defer mu.Unlock()
	verbosity = n
}

func level() int {
	mu.Lock()
	defer mu.Unlock()
	return verbosity
}

// Status prints a cargo-style status line: a bold right-aligned verb followed
// by the message.
func Status(verb, message string) {
	if level() < 0 {
		return
	}
	setupProfile()
	style := verbStyle
	switch verb {
	case "Modifying", "Modified", "Adding", "Added":
		style = modifyStyle
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", style.Render(fmt.Sprintf("%12s", verb)), message)
}

// Verbose prints a status line only at raised verbosity.
func Verbose(message string) {
	if level() < 1 {
		return
	}
	fmt.Fprintln(os.Stderr, message)
}

// Warning prints a warning diagnostic.
func Warning(message string) {
	if level() < 0 {
		return
	}
	setupProfile()
	fmt.Fprintf(os.Stderr, "%s %s\n", warningStyle.Render(fmt.Sprintf("%12s", "Warning")), message)
}

// Error prints an error diagnostic. Errors are never silenced.
func Error(err error) {
	setupProfile()
	fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render(fmt.Sprintf("%12s", "Error")), err)
}
