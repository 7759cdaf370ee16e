package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gzhole/kubeshield/internal/config"
	"github.com/gzhole/kubeshield/internal/mcp"
	"github.com/gzhole/kubeshield/internal/registry"
)

// shutdownTimeout bounds how long serve waits for cancelled tool calls to
// report after SIGINT or SIGTERM.
const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the gateway as an MCP server over stdio",
	Long: `Start an MCP server on stdin/stdout exposing describe_<tool>,
execute_<tool> and reload_security_config. Send SIGHUP to reload the
security configuration.

  kubeshield serve`,
	RunE: serveCommand,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Transport != config.DefaultTransport {
		return fmt.Errorf("unsupported transport %q: only %q is available", a.cfg.Transport, config.DefaultTransport)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status := a.runner.StartupChecks(ctx, registry.Tools())
	a.log.Info("CLI tools installed status", "status", status)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadOnSignal(ctx, hup, a)

	srv := mcp.NewServer(a.gateway,
		mcp.WithServerLogger(a.log),
		mcp.WithServerInfo("kubeshield", Version),
	)

	a.log.Info("serving MCP over stdio", "mode", a.cfg.Mode)

	// Serve blocks on stdin, so a signal has to end the command from here.
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout()) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		a.log.Info("shutting down")
		// Cancelled calls still write their results and audit entries.
		waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Wait(waitCtx); err != nil {
			a.log.Warn("tool calls still running at shutdown", "error", err)
		}
		return nil
	}
}

func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, a *app) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			a.gateway.Reload()
		}
	}
}
