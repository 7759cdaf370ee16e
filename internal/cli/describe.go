package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gzhole/kubeshield/internal/registry"
)

var describeCmd = &cobra.Command{
	Use:   "describe <tool> [subcommand...]",
	Short: "Show help text for a supported tool",
	Long: `Print the help text of a supported tool, optionally for a subcommand.

  kubeshield describe kubectl get
  kubeshield describe argocd app sync`,
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: registry.Names(),
	RunE:      describeCommand,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func describeCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.gateway.Describe(cmd.Context(), args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if err := renderResult(w, res, isTerminal(w)); err != nil {
		return err
	}
	return resultExit(res)
}
