// Package rbac asks the cluster whether the current identity may perform a
// verb on a resource before a command is run.
package rbac

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single permission check.
const DefaultTimeout = 10 * time.Second

// ErrUnknownTool is returned for tools the checker has no policy for.
var ErrUnknownTool = errors.New("rbac: unknown tool")

// CommandFunc runs name with args and returns its standard output.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Decision is the answer to one permission check. Decisions are never
// cached; every Check consults the cluster again.
type Decision struct {
	Allowed  bool
	Tool     string
	Verb     string
	Resource string
}

// Checker answers permission questions for the registered tools.
type Checker struct {
	Context   string
	Namespace string

	timeout time.Duration
	run     CommandFunc
}

// Option configures a Checker.
type Option func(*Checker)

// WithCommandFunc replaces the function used to invoke kubectl.
func WithCommandFunc(fn CommandFunc) Option {
	return func(c *Checker) { c.run = fn }
}

// WithTimeout sets the per-check timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewChecker returns a Checker scoped to the given kube context and
// namespace. Empty values are omitted from the can-i invocation.
func NewChecker(kubeContext, namespace string, opts ...Option) *Checker {
	c := &Checker{
		Context:   kubeContext,
		Namespace: namespace,
		timeout:   DefaultTimeout,
		run:       runOutput,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check reports whether verb on resource is permitted for tool. For kubectl
// it runs `kubectl auth can-i`; the other registered tools have no
// permission model of their own and are always allowed. A failure to run
// the check is a deny plus the error.
func (c *Checker) Check(ctx context.Context, tool, verb, resource string) (Decision, error) {
	d := Decision{Tool: tool, Verb: verb, Resource: resource}

	switch tool {
	case "kubectl":
		allowed, err := c.canI(ctx, verb, resource)
		d.Allowed = allowed
		return d, err
	case "helm", "istioctl", "argocd":
		d.Allowed = true
		return d, nil
	default:
		return d, fmt.Errorf("%w: %s", ErrUnknownTool, tool)
	}
}

func (c *Checker) canI(ctx context.Context, verb, resource string) (bool, error) {
	args := CanIArgs(verb, resource, c.Context, c.Namespace)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.run(ctx, "kubectl", args...)
	if err != nil {
		// can-i exits 1 when the answer is "no"; that is an answer, not a
		// failure.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return false, fmt.Errorf("kubectl auth can-i failed: %w", err)
		}
	}
	return strings.ToLower(strings.TrimSpace(string(out))) == "yes", nil
}

// CanIArgs builds the kubectl argument list for a permission check.
func CanIArgs(verb, resource, kubeContext, namespace string) []string {
	args := []string{"auth", "can-i", verb}
	if resource != "" {
		args = append(args, resource)
	}
	if kubeContext != "" {
		args = append(args, "--context", kubeContext)
	}
	if namespace != "" {
		args = append(args, "--namespace", namespace)
	}
	return args
}

func runOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
