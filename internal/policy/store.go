package policy

import (
	"log/slog"
	"sync/atomic"
)

// Store owns the active rule set. Readers take a lock-free snapshot; Reload
// builds a complete new set and installs it with a single pointer swap, so a
// reader sees either the old rules or the new ones, never a mix.
type Store struct {
	path    string
	log     *slog.Logger
	current atomic.Pointer[RuleSet]
}

// NewStore loads the rules from path (see Load) and returns a store holding
// them. An empty path means built-in defaults only.
func NewStore(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{path: path, log: log}
	s.current.Store(Load(path, log))
	return s
}

// Path returns the policy document path the store loads from.
func (s *Store) Path() string { return s.path }

// Snapshot returns the rule set currently in effect.
func (s *Store) Snapshot() *RuleSet {
	return s.current.Load()
}

// Reload re-reads the policy document and swaps it in.
func (s *Store) Reload() *RuleSet {
	rs := Load(s.path, s.log)
	s.current.Store(rs)
	s.log.Info("security configuration reloaded", "path", s.path)
	return rs
}

// Replace installs rs as the active rule set.
func (s *Store) Replace(rs *RuleSet) {
	if rs == nil {
		rs = DefaultRuleSet()
	}
	s.current.Store(rs)
}
