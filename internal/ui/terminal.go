package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

func init() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// ShouldUseColor reports whether terminal output should be styled.
// NO_COLOR and TD_NO_COLOR disable color; CLICOLOR_FORCE enables it even
// when stdout is not a terminal.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TD_NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	if !IsTerminal() {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalWidth returns the stdout width, or fallback when unknown.
func TerminalWidth(fallback int) int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}

// HasDarkBackground reports whether the terminal background is dark.
func HasDarkBackground() bool {
	return termenv.HasDarkBackground()
}
