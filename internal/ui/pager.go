package ui

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"golang.org/x/term"
)

// PagerOptions controls pager behavior
type PagerOptions struct {
	// NoPager disables pager for this command (--no-pager flag)
	NoPager bool
}

// shouldUsePager determines if output should be piped to a pager.
// Returns false if:
// - NoPager option is set
// - TD_NO_PAGER environment variable is set
// - stdout is not a TTY (e.g., piped to another command)
func shouldUsePager(opts PagerOptions) bool {
	if opts.NoPager {
		return false
	}

	if os.Getenv("TD_NO_PAGER") != "" {
		return false
	}

	return IsTerminal()
}

// getPagerCommand returns the pager command to use.
// Checks TD_PAGER, then PAGER, defaults to "less".
func getPagerCommand() string {
	if pager := os.Getenv("TD_PAGER"); pager != "" {
		return pager
	}
	if pager := os.Getenv("PAGER"); pager != "" {
		return pager
	}
	return "less"
}

// getTerminalHeight returns the height of the terminal in lines, or 0.
func getTerminalHeight() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	_, height, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return height
}

// contentHeight counts the number of lines in the content.
func contentHeight(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

// ToPager writes content to w, through a pager when stdout is a terminal
// and content is taller than the screen.
func ToPager(w io.Writer, content string, opts PagerOptions) error {
	if !shouldUsePager(opts) {
		_, err := io.WriteString(w, content)
		return err
	}

	termHeight := getTerminalHeight()
	if termHeight > 0 && contentHeight(content) <= termHeight-1 {
		_, err := io.WriteString(w, content)
		return err
	}

	// The pager command may carry quoted arguments, e.g. `less -R`.
	parts, err := shlex.Split(getPagerCommand())
	if err != nil || len(parts) == 0 {
		_, err := io.WriteString(w, content)
		return err
	}

	cmd := exec.Command(parts[0], parts[1:]...) // #nosec G204 - pager command is user-configurable
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = w
	cmd.Stderr = os.Stderr

	// -R keeps colors, -F quits when content fits, -X leaves the screen alone.
	cmd.Env = os.Environ()
	if os.Getenv("LESS") == "" {
		cmd.Env = append(cmd.Env, "LESS=-RFX")
	}
	return cmd.Run()
}
