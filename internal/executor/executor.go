// Package executor runs validated commands as child processes with a
// bounded timeout, capturing their output.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/gzhole/kubeshield/internal/cmdline"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const (
	DefaultShell     = "/bin/bash"
	DefaultMaxOutput = 100000

	truncationMarker = "\n[output truncated]"
)

// Result is the outcome of one invocation. Status is "success" exactly when
// ExitCode is 0. ExitCode -1 means the process timed out, failed to launch,
// or ended without reporting a code.
type Result struct {
	Status        string  `json:"status"`
	Output        string  `json:"output"`
	ExitCode      int     `json:"exit_code"`
	ExecutionTime float64 `json:"execution_time"`
}

// ErrorResult builds an error Result carrying msg.
func ErrorResult(msg string, exitCode int, elapsed time.Duration) Result {
	return Result{
		Status:        StatusError,
		Output:        msg,
		ExitCode:      exitCode,
		ExecutionTime: elapsed.Seconds(),
	}
}

// Runner starts processes. Pipelines go through a shell; everything else
// is tokenized and executed directly.
type Runner struct {
	shell     string
	maxOutput int
	log       *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell sets the shell used for pipelines.
func WithShell(path string) Option {
	return func(r *Runner) {
		if path != "" {
			r.shell = path
		}
	}
}

// WithMaxOutput bounds the bytes captured per stream. Zero disables the bound.
func WithMaxOutput(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.maxOutput = n
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		shell:     DefaultShell,
		maxOutput: DefaultMaxOutput,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes command and waits for it. A positive timeout bounds the run;
// when it fires the whole process group is killed before Run returns.
// Run never returns a Go error: every failure is reported in the Result.
func (r *Runner) Run(ctx context.Context, command string, timeout time.Duration) Result {
	start := time.Now()

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	cmd, err := r.command(runCtx, command)
	if err != nil {
		return ErrorResult(fmt.Sprintf("Failed to launch command: %v", err), -1, time.Since(start))
	}

	stdout := &limitedWriter{limit: r.maxOutput}
	stderr := &limitedWriter{limit: r.maxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setupProcessGroup(cmd)

	r.log.Debug("starting command", "command", command, "pipeline", cmdline.IsPipeline(command))

	err = cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			r.log.Warn("command cancelled", "command", command, "error", ctx.Err())
			return ErrorResult(fmt.Sprintf("Command cancelled: %v", ctx.Err()), -1, elapsed)
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			r.log.Warn("command timed out", "command", command, "timeout", timeout)
			return ErrorResult(fmt.Sprintf("Command timed out after %gs", timeout.Seconds()), -1, elapsed)
		}
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return ErrorResult(fmt.Sprintf("Failed to launch command: %v", err), -1, elapsed)
		}
		// ExitCode is -1 when the process was ended by a signal.
		exitCode = exitErr.ExitCode()
	}

	status := StatusSuccess
	if exitCode != 0 {
		status = StatusError
	}
	return Result{
		Status:        status,
		Output:        pickOutput(stdout, stderr),
		ExitCode:      exitCode,
		ExecutionTime: elapsed.Seconds(),
	}
}

func (r *Runner) command(ctx context.Context, command string) (*exec.Cmd, error) {
	if cmdline.IsPipeline(command) {
		return exec.CommandContext(ctx, r.shell, "-c", command), nil
	}
	words, err := cmdline.Words(command)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, errors.New("empty command")
	}
	return exec.CommandContext(ctx, words[0], words[1:]...), nil
}

// pickOutput returns stdout when it has content and stderr otherwise. The
// streams are never concatenated.
func pickOutput(stdout, stderr *limitedWriter) string {
	w := stdout
	if w.buf.Len() == 0 {
		w = stderr
	}
	out := w.buf.String()
	if w.truncated {
		out += truncationMarker
	}
	return out
}

// limitedWriter keeps at most limit bytes and silently discards the rest.
// A zero limit keeps everything.
type limitedWriter struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.limit <= 0 {
		return w.buf.Write(p)
	}
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			w.truncated = true
		}
		return len(p), nil
	}
	if len(p) <= remaining {
		return w.buf.Write(p)
	}
	// Report the full length so the copy goroutine doesn't see ErrShortWrite.
	if _, err := w.buf.Write(p[:remaining]); err != nil {
		return 0, err
	}
	w.truncated = true
	return len(p), nil
}
