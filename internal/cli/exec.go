package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gzhole/kubeshield/internal/policy"
)

var execTimeout time.Duration

var execCmd = &cobra.Command{
	Use:   "exec <command>",
	Short: "Validate, authorize and run a command",
	Long: `Run a kubectl, helm, istioctl or argocd command through kubeshield.
The command is checked against the security policy and cluster RBAC first.
Output is JSON unless stdout is a terminal.

  kubeshield exec "kubectl get pods -n kube-system"
  kubeshield exec --timeout 30s "helm list -A | grep failed"`,
	Args: cobra.MinimumNArgs(1),
	RunE: execCommand,
}

func init() {
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 0, "Command timeout (default: $K8S_MCP_TIMEOUT seconds)")
	rootCmd.AddCommand(execCmd)
}

func execCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	command := strings.Join(args, " ")
	res, err := a.gateway.Execute(cmd.Context(), command, execTimeout)
	if err != nil {
		var rej *policy.Rejection
		if errors.As(err, &rej) {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("✘ BLOCKED by kubeshield"))
			fmt.Fprintln(cmd.ErrOrStderr(), rej.Reason)
			return &ExitError{Code: 1}
		}
		return err
	}

	w := cmd.OutOrStdout()
	if err := renderResult(w, res, isTerminal(w)); err != nil {
		return err
	}
	return resultExit(res)
}
