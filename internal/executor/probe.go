package executor

import (
	"context"
	"time"

	"github.com/gzhole/kubeshield/internal/registry"
)

const probeTimeout = 10 * time.Second

// CheckInstalled runs the tool's check command and reports whether it
// exited cleanly.
func (r *Runner) CheckInstalled(ctx context.Context, tool registry.Tool) bool {
	res := r.Run(ctx, tool.CheckCommand, probeTimeout)
	if res.ExitCode != 0 {
		r.log.Warn("tool not available", "tool", tool.Name, "output", res.Output)
		return false
	}
	r.log.Info("tool available", "tool", tool.Name)
	return true
}

// StartupChecks probes each tool in turn and returns availability by name.
func (r *Runner) StartupChecks(ctx context.Context, tools []registry.Tool) map[string]bool {
	status := make(map[string]bool, len(tools))
	for _, t := range tools {
		status[t.Name] = r.CheckInstalled(ctx, t)
	}
	return status
}
