package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/gzhole/kubeshield/internal/executor"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// ExitError asks main to exit with Code without printing anything more.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// isTerminal reports whether w is an interactive terminal. Anything else
// gets machine-readable JSON.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderResult writes res as JSON, or styled for a terminal.
func renderResult(w io.Writer, res executor.Result, styled bool) error {
	if !styled {
		return writeJSON(w, res)
	}

	status := successStyle.Render("✔ " + res.Status)
	if res.Status != executor.StatusSuccess {
		status = errorStyle.Render("✘ " + res.Status)
	}
	meta := subtleStyle.Render(fmt.Sprintf("exit %d · %.2fs", res.ExitCode, res.ExecutionTime))

	out := res.Output
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := fmt.Fprintf(w, "%s%s %s\n", out, status, meta)
	return err
}

// resultExit maps a Result onto the process exit status.
func resultExit(res executor.Result) error {
	switch {
	case res.ExitCode == 0:
		return nil
	case res.ExitCode > 0:
		return &ExitError{Code: res.ExitCode}
	default:
		return &ExitError{Code: 1}
	}
}
