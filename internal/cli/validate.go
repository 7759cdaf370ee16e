package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gzhole/kubeshield/internal/policy"
)

var validateCmd = &cobra.Command{
	Use:   "validate <command>",
	Short: "Check a command against the security policy without running it",
	Long: `Validate a command (or pipeline) against the active security rules.
Quote the command so pipes reach kubeshield instead of your shell.

  kubeshield validate "kubectl get pods -A | grep -v Running"
  kubeshield validate "kubectl delete pods --all"`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

type validateOutput struct {
	Command  string               `json:"command"`
	Accepted bool                 `json:"accepted"`
	Kind     policy.RejectionKind `json:"kind,omitempty"`
	Reason   string               `json:"reason,omitempty"`
}

func validateCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	command := strings.Join(args, " ")
	out := a.gateway.Validate(command)

	w := cmd.OutOrStdout()
	if isTerminal(w) {
		if out.Accepted() {
			fmt.Fprintln(w, successStyle.Render("✔ allowed"), subtleStyle.Render(string(a.cfg.Mode)))
		} else {
			fmt.Fprintln(w, errorStyle.Render("✘ rejected"), subtleStyle.Render(string(out.Rejection.Kind)))
			fmt.Fprintln(w, out.Rejection.Reason)
		}
	} else {
		res := validateOutput{Command: command, Accepted: out.Accepted()}
		if !out.Accepted() {
			res.Kind = out.Rejection.Kind
			res.Reason = out.Rejection.Reason
		}
		if err := writeJSON(w, res); err != nil {
			return err
		}
	}

	if !out.Accepted() {
		return &ExitError{Code: 1}
	}
	return nil
}
