// Package gateway ties validation, permission checks and execution into the
// single entry point used by the CLI and the MCP server.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gzhole/kubeshield/internal/cmdline"
	"github.com/gzhole/kubeshield/internal/executor"
	"github.com/gzhole/kubeshield/internal/logger"
	"github.com/gzhole/kubeshield/internal/policy"
	"github.com/gzhole/kubeshield/internal/rbac"
	"github.com/gzhole/kubeshield/internal/registry"
)

const DefaultTimeout = 300 * time.Second

var (
	// ErrPermissionDenied is recorded when the permission oracle refuses a
	// command.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidSubcommand is returned by Describe for subcommands that are
	// not plain words.
	ErrInvalidSubcommand = errors.New("invalid subcommand")
)

var subcommandWord = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Oracle answers permission questions.
type Oracle interface {
	Check(ctx context.Context, tool, verb, resource string) (rbac.Decision, error)
}

// Executor runs a command that has already been validated.
type Executor interface {
	Run(ctx context.Context, command string, timeout time.Duration) executor.Result
}

// Auditor records invocations.
type Auditor interface {
	Log(event logger.AuditEvent) error
}

type Gateway struct {
	engine         *policy.Engine
	oracle         Oracle
	runner         Executor
	audit          Auditor
	log            *slog.Logger
	defaultTimeout time.Duration
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithDefaultTimeout sets the timeout used when Execute is given none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.defaultTimeout = d
		}
	}
}

// WithAuditLogger records every invocation to a.
func WithAuditLogger(a Auditor) Option {
	return func(g *Gateway) { g.audit = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

func New(engine *policy.Engine, oracle Oracle, runner Executor, opts ...Option) *Gateway {
	g := &Gateway{
		engine:         engine,
		oracle:         oracle,
		runner:         runner,
		log:            slog.Default(),
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Validate checks command against the active rules without running it.
func (g *Gateway) Validate(command string) policy.Outcome {
	return g.engine.Validate(command)
}

// Reload re-reads the security configuration. Invocations already running
// keep the rules they started with.
func (g *Gateway) Reload() *policy.RuleSet {
	return g.engine.Store().Reload()
}

// Execute validates command, checks permission for its verb and resource,
// then runs it. A policy rejection is returned as a *policy.Rejection error
// and nothing is spawned. A permission denial is reported as an error
// Result with exit code 1. A non-positive timeout means the default.
func (g *Gateway) Execute(ctx context.Context, command string, timeout time.Duration) (executor.Result, error) {
	start := time.Now()
	event := g.newEvent(command)
	log := g.log.With("id", event.ID)

	if out := g.engine.Validate(command); !out.Accepted() {
		event.Decision = logger.DecisionReject
		event.Reason = out.Rejection.Reason
		g.record(log, event)
		log.Warn("command rejected", "command", command, "kind", out.Rejection.Kind, "reason", out.Rejection.Reason)
		return executor.Result{}, out.Err()
	}

	words := headWords(command)
	if len(words) > 0 {
		event.Tool = words[0]
		event.Args = words
	}
	if len(words) >= 2 {
		event.Verb = words[1]
		if len(words) >= 3 {
			event.Resource = words[2]
		}

		decision, err := g.oracle.Check(ctx, event.Tool, event.Verb, event.Resource)
		if err != nil || !decision.Allowed {
			msg := strings.TrimSpace(fmt.Sprintf("RBAC: permission denied for %s %s", event.Verb, event.Resource))
			res := executor.ErrorResult(msg, 1, time.Since(start))

			event.Decision = logger.DecisionDenyRBAC
			event.Reason = msg
			event.Error = ErrPermissionDenied.Error()
			if err != nil {
				event.Error = fmt.Errorf("%w: %w", ErrPermissionDenied, err).Error()
			}
			g.finish(&event, res)
			g.record(log, event)
			log.Warn("permission denied", "tool", event.Tool, "verb", event.Verb, "resource", event.Resource, "error", err)
			return res, nil
		}
	}

	if timeout <= 0 {
		timeout = g.defaultTimeout
	}

	log.Info("executing command", "command", command, "timeout", timeout)
	res := g.runner.Run(ctx, command, timeout)

	event.Decision = logger.DecisionAllow
	g.finish(&event, res)
	g.record(log, event)
	log.Info("command finished", "status", res.Status, "exit_code", res.ExitCode, "execution_time", res.ExecutionTime)
	return res, nil
}

// Describe runs `<tool> [subcommand] --help`. Help output is read-only, so
// no policy or permission check applies; the subcommand must be plain
// words. An unregistered tool yields an error Result.
func (g *Gateway) Describe(ctx context.Context, tool, subcommand string) (executor.Result, error) {
	t, ok := registry.Lookup(tool)
	if !ok {
		return executor.ErrorResult(fmt.Sprintf("%s not supported", tool), -1, 0), nil
	}

	parts := []string{t.Name}
	if subcommand = strings.TrimSpace(subcommand); subcommand != "" {
		words, err := cmdline.Words(subcommand)
		if err != nil {
			return executor.Result{}, fmt.Errorf("%w: %w", ErrInvalidSubcommand, err)
		}
		for _, w := range words {
			if !subcommandWord.MatchString(w) {
				return executor.Result{}, fmt.Errorf("%w: %q", ErrInvalidSubcommand, w)
			}
		}
		parts = append(parts, words...)
	}
	parts = append(parts, t.HelpFlag)
	command := strings.Join(parts, " ")

	event := g.newEvent(command)
	event.Tool = t.Name
	event.Args = parts
	event.Decision = logger.DecisionAllow
	event.Reason = "help lookup"

	res := g.runner.Run(ctx, command, g.defaultTimeout)
	g.finish(&event, res)
	g.record(g.log.With("id", event.ID), event)
	return res, nil
}

func (g *Gateway) newEvent(command string) logger.AuditEvent {
	return logger.AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
		Mode:      string(g.engine.Mode()),
	}
}

func (g *Gateway) finish(event *logger.AuditEvent, res executor.Result) {
	code := res.ExitCode
	event.Status = res.Status
	event.ExitCode = &code
	event.DurationSeconds = res.ExecutionTime
}

func (g *Gateway) record(log *slog.Logger, event logger.AuditEvent) {
	if g.audit == nil {
		return
	}
	if err := g.audit.Log(event); err != nil {
		log.Warn("failed to write audit log", "error", err)
	}
}

// headWords returns the words of the first pipeline stage, or nil when
// they cannot be determined (possible only in permissive mode).
func headWords(command string) []string {
	head := command
	if cmdline.IsPipeline(command) {
		stages := cmdline.SplitPipeline(command)
		if len(stages) == 0 {
			return nil
		}
		head = stages[0]
	}
	words, err := cmdline.Words(head)
	if err != nil {
		return nil
	}
	return words
}
