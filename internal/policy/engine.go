package policy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gzhole/kubeshield/internal/cmdline"
	"github.com/gzhole/kubeshield/internal/registry"
)

// Engine validates commands against the rules held by a Store.
type Engine struct {
	store *Store
	mode  Mode
}

func NewEngine(store *Store, mode Mode) *Engine {
	return &Engine{store: store, mode: mode}
}

// Mode returns the engine's validation mode.
func (e *Engine) Mode() Mode { return e.mode }

// Store returns the rule store backing the engine.
func (e *Engine) Store() *Store { return e.store }

// Validate checks a single command or a pipeline. Permissive mode accepts
// everything without consulting the rules.
func (e *Engine) Validate(command string) Outcome {
	if e.mode == ModePermissive {
		return accept()
	}
	rules := e.store.Snapshot()
	if cmdline.IsPipeline(command) {
		return validatePipeline(rules, command)
	}
	return validateSingle(rules, command)
}

// ValidateSingle checks one command rooted in a registered tool.
func (e *Engine) ValidateSingle(command string) Outcome {
	return validateSingle(e.store.Snapshot(), command)
}

// ValidatePipeline checks a piped command: the first stage as a tool
// command, every later stage against the utility allow-list.
func (e *Engine) ValidatePipeline(command string) Outcome {
	return validatePipeline(e.store.Snapshot(), command)
}

func validateSingle(rules *RuleSet, command string) Outcome {
	words, err := cmdline.Words(command)
	if err != nil {
		return reject(KindMalformed, fmt.Sprintf("Malformed command: %v", err))
	}
	if len(words) == 0 {
		return reject(KindUnsupportedTool, fmt.Sprintf("Unsupported CLI tool: %s", command))
	}

	tool := words[0]
	if !registry.IsTool(tool) {
		return reject(KindUnsupportedTool, fmt.Sprintf("Unsupported CLI tool: %s", tool))
	}

	// Prefix and exec checks see whitespace runs collapsed so that
	// "kubectl  delete" cannot slip past "kubectl delete".
	normalized := strings.Join(strings.Fields(command), " ")

	if tool == "kubectl" && slices.Contains(words, "exec") && !IsSafeExec(normalized) {
		return reject(KindUnsafeExec, "Unsafe kubectl exec usage: use explicit flags (-it or -c) or avoid raw shells.")
	}

	tr := rules.For(tool)
	for _, rule := range tr.Regex {
		if rule.re.MatchString(command) {
			return reject(KindRegexRule, rule.ErrorMessage)
		}
	}

	if prefix, restricted := restrictedPrefix(normalized, tr); restricted {
		return reject(KindDangerousPrefix, fmt.Sprintf("Command '%s' is restricted. Specify more precise resources.", prefix))
	}
	return accept()
}

// restrictedPrefix walks every dangerous prefix in configured order. A
// matching prefix is cleared only by a matching safe prefix at least as
// long as itself, so "kubectl delete pod" clears "kubectl delete" but not
// "kubectl delete pods --all". The first uncleared prefix is returned.
func restrictedPrefix(command string, tr ToolRules) (string, bool) {
	for _, bad := range tr.Dangerous {
		if !strings.HasPrefix(command, bad) {
			continue
		}
		cleared := false
		for _, good := range tr.Safe {
			if len(good) >= len(bad) && strings.HasPrefix(command, good) {
				cleared = true
				break
			}
		}
		if !cleared {
			return bad, true
		}
	}
	return "", false
}

func validatePipeline(rules *RuleSet, command string) Outcome {
	stages := cmdline.SplitPipeline(command)
	if len(stages) == 0 {
		return reject(KindEmptyPipeline, "Empty piped command")
	}

	if out := validateSingle(rules, stages[0]); !out.Accepted() {
		return out
	}

	for i, stage := range stages[1:] {
		words, err := cmdline.Words(stage)
		if err != nil || len(words) == 0 || !registry.IsUtility(words[0]) {
			name := stage
			if len(words) > 0 {
				name = words[0]
			}
			return reject(KindInvalidPipeStage, fmt.Sprintf("Invalid pipe stage #%d: '%s'", i+1, name))
		}
	}

	// The pipeline runs under a real shell, so the shell's view of the
	// stages must agree with the quote-aware split above.
	parsed, err := cmdline.Stages(command)
	if err != nil {
		return reject(KindMalformed, fmt.Sprintf("Malformed piped command: %v", err))
	}
	if len(parsed) != len(stages) {
		return reject(KindMalformed, fmt.Sprintf("Malformed piped command: expected %d stages, shell sees %d", len(stages), len(parsed)))
	}
	return accept()
}
