// Package debug holds the process-wide verbosity switches and the slog
// logger construction shared by every td command.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	enabled     = os.Getenv("TD_DEBUG") != ""
	verboseMode = false
	quietMode   = false

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

func Logf(format string, args ...any) {
	if enabled || verboseMode {
		fmt.Fprintf(stderr, format, args...)
	}
}

// PrintNormal prints output unless quiet mode is enabled
// Use this for normal informational output that should be suppressed in quiet mode
func PrintNormal(format string, args ...any) {
	if !quietMode {
		fmt.Fprintf(stdout, format, args...)
	}
}

// PrintlnNormal prints a line unless quiet mode is enabled
func PrintlnNormal(args ...any) {
	if !quietMode {
		fmt.Fprintln(stdout, args...)
	}
}

// ParseLevel maps a config log level to slog. Verbose mode forces debug.
func ParseLevel(level string) slog.Level {
	if Enabled() {
		return slog.LevelDebug
	}
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the structured logger: JSON unless format is "text".
// Quiet mode raises the floor to warnings.
func NewLogger(w io.Writer, format, level string) *slog.Logger {
	lvl := ParseLevel(level)
	if quietMode && lvl < slog.LevelWarn {
		lvl = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
