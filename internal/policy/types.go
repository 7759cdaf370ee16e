package policy

import (
	"errors"
	"regexp"
	"strings"
)

// Mode selects how strictly commands are validated.
type Mode string

const (
	ModeStrict     Mode = "strict"
	ModePermissive Mode = "permissive"
)

// ParseMode maps a configuration value onto a Mode. Anything other than
// "permissive" (case-insensitive) is strict.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModePermissive)) {
		return ModePermissive
	}
	return ModeStrict
}

// Document is the on-disk policy format.
type Document struct {
	DangerousCommands map[string][]string        `yaml:"dangerous_commands,omitempty"`
	// SafePatterns clear a matching dangerous prefix only when the safe
	// prefix is at least as long as the dangerous one. A safe "helm upgrade"
	// does not clear a dangerous "helm upgrade --install".
	SafePatterns      map[string][]string        `yaml:"safe_patterns,omitempty"`
	RegexRules        map[string][]RegexRuleSpec `yaml:"regex_rules,omitempty"`
}

// RegexRuleSpec is a regex rule as written in a policy document.
type RegexRuleSpec struct {
	Pattern      string `yaml:"pattern"`
	Description  string `yaml:"description"`
	ErrorMessage string `yaml:"error_message,omitempty"`
}

// RegexRule is a compiled regex rule. A match rejects the command
// unconditionally; safe prefixes never override it.
type RegexRule struct {
	Pattern      string
	Description  string
	ErrorMessage string
	re           *regexp.Regexp
}

// ToolRules are the rules that apply to one tool.
type ToolRules struct {
	Dangerous []string
	Safe      []string
	Regex     []RegexRule
}

// RuleSet is an immutable snapshot of every tool's rules. It is built once
// and replaced wholesale on reload, never mutated after construction.
type RuleSet struct {
	tools map[string]ToolRules
}

// For returns the rules registered for tool.
func (rs *RuleSet) For(tool string) ToolRules {
	if rs == nil {
		return ToolRules{}
	}
	return rs.tools[tool]
}

// Document renders the rule set in policy document form.
func (rs *RuleSet) Document() Document {
	doc := Document{
		DangerousCommands: map[string][]string{},
		SafePatterns:      map[string][]string{},
		RegexRules:        map[string][]RegexRuleSpec{},
	}
	if rs == nil {
		return doc
	}
	for tool, rules := range rs.tools {
		doc.DangerousCommands[tool] = append([]string{}, rules.Dangerous...)
		doc.SafePatterns[tool] = append([]string{}, rules.Safe...)
		for _, r := range rules.Regex {
			doc.RegexRules[tool] = append(doc.RegexRules[tool], RegexRuleSpec{
				Pattern:      r.Pattern,
				Description:  r.Description,
				ErrorMessage: r.ErrorMessage,
			})
		}
	}
	return doc
}

// ErrRejected is wrapped by every Rejection.
var ErrRejected = errors.New("command rejected by policy")

// RejectionKind classifies why a command was rejected.
type RejectionKind string

const (
	KindUnsupportedTool  RejectionKind = "unsupported-tool"
	KindMalformed        RejectionKind = "malformed"
	KindUnsafeExec       RejectionKind = "unsafe-exec"
	KindRegexRule        RejectionKind = "regex-rule"
	KindDangerousPrefix  RejectionKind = "dangerous-prefix"
	KindEmptyPipeline    RejectionKind = "empty-pipeline"
	KindInvalidPipeStage RejectionKind = "invalid-pipe-stage"
)

// Rejection explains why a command failed validation.
type Rejection struct {
	Kind   RejectionKind
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

func (r *Rejection) Unwrap() error { return ErrRejected }

// Outcome is the result of validating a command: accepted, or rejected with
// a reason. The zero value is an accepted outcome.
type Outcome struct {
	Rejection *Rejection
}

// Accepted reports whether the command passed validation.
func (o Outcome) Accepted() bool { return o.Rejection == nil }

// Err returns the rejection as an error, or nil when accepted.
func (o Outcome) Err() error {
	if o.Rejection == nil {
		return nil
	}
	return o.Rejection
}

func accept() Outcome { return Outcome{} }

func reject(kind RejectionKind, reason string) Outcome {
	return Outcome{Rejection: &Rejection{Kind: kind, Reason: reason}}
}
