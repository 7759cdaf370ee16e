package policy

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Load builds a rule set from the built-in defaults and, when path is set
// and the file exists, applies the policy document found there. For every
// tool named in the document the dangerous and safe lists are replaced
// wholesale and regex rules are appended. Read and parse failures are
// logged and leave the defaults in place.
func Load(path string, log *slog.Logger) *RuleSet {
	if log == nil {
		log = slog.Default()
	}

	rs := DefaultRuleSet()
	if path == "" {
		return rs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug("security config not found, using defaults", "path", path)
			return rs
		}
		log.Error("failed to read security config", "path", path, "error", err)
		log.Warn("falling back to default security rules")
		return rs
	}

	doc, err := ParseDocument(data)
	if err != nil {
		log.Error("failed to load security config", "path", path, "error", err)
		log.Warn("falling back to default security rules")
		return rs
	}

	applyDocument(rs, doc, log)
	log.Info("loaded security config", "path", path)
	return rs
}

// ParseDocument decodes a YAML policy document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse security config: %w", err)
	}
	return &doc, nil
}

func applyDocument(rs *RuleSet, doc *Document, log *slog.Logger) {
	for tool, prefixes := range doc.DangerousCommands {
		r := rs.tools[tool]
		r.Dangerous = append([]string{}, prefixes...)
		rs.tools[tool] = r
	}

	for tool, prefixes := range doc.SafePatterns {
		r := rs.tools[tool]
		r.Safe = append([]string{}, prefixes...)
		rs.tools[tool] = r
	}

	for tool, specs := range doc.RegexRules {
		r := rs.tools[tool]
		for _, def := range specs {
			rule, err := compileRule(def)
			if err != nil {
				log.Warn("skipping invalid regex rule", "tool", tool, "pattern", def.Pattern, "error", err)
				continue
			}
			r.Regex = append(r.Regex, rule)
		}
		rs.tools[tool] = r
	}
}

func compileRule(def RegexRuleSpec) (RegexRule, error) {
	if def.Pattern == "" {
		return RegexRule{}, errors.New("missing pattern")
	}
	re, err := regexp.Compile(def.Pattern)
	if err != nil {
		return RegexRule{}, err
	}
	msg := def.ErrorMessage
	if msg == "" {
		msg = fmt.Sprintf("Command matches restricted pattern: %s", def.Pattern)
	}
	return RegexRule{
		Pattern:      def.Pattern,
		Description:  def.Description,
		ErrorMessage: msg,
		re:           re,
	}, nil
}
