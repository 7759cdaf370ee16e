package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gzhole/kubeshield/internal/registry"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which supported tools are installed",
	Long: `Run each supported tool's version command and report whether it is
available on this machine.

  kubeshield check`,
	RunE: checkCommand,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	tools := registry.Tools()
	status := a.runner.StartupChecks(cmd.Context(), tools)

	w := cmd.OutOrStdout()
	if !isTerminal(w) {
		return writeJSON(w, status)
	}

	for _, t := range tools {
		mark := successStyle.Render("✔")
		if !status[t.Name] {
			mark = errorStyle.Render("✘")
		}
		fmt.Fprintf(w, "  %s %-10s %s\n", mark, t.Name, subtleStyle.Render(t.CheckCommand))
	}
	return nil
}
