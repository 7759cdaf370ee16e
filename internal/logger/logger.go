package logger

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/gzhole/kubeshield/internal/redact"
)

// defaultMaxLogBytes is the size at which New rotates the existing log to
// <path>.1 before appending.
const defaultMaxLogBytes = 10 << 20

// Decision values recorded in AuditEvent.Decision.
const (
	DecisionAllow    = "ALLOW"
	DecisionReject   = "REJECT"
	DecisionDenyRBAC = "DENY_RBAC"
)

// AuditEvent is one line of the audit log, written for every invocation.
type AuditEvent struct {
	ID              string   `json:"id"`
	Timestamp       string   `json:"timestamp"`
	Command         string   `json:"command"`
	Args            []string `json:"args,omitempty"`
	Tool            string   `json:"tool,omitempty"`
	Verb            string   `json:"verb,omitempty"`
	Resource        string   `json:"resource,omitempty"`
	Decision        string   `json:"decision"`
	Reason          string   `json:"reason,omitempty"`
	Mode            string   `json:"mode"`
	Status          string   `json:"status,omitempty"`
	ExitCode        *int     `json:"exit_code,omitempty"`
	DurationSeconds float64  `json:"duration_seconds,omitempty"`
	Error           string   `json:"error,omitempty"`
}

type AuditLogger struct {
	file *os.File
	mu   sync.Mutex
}

func New(path string) (*AuditLogger, error) {
	if err := rotate(path, defaultMaxLogBytes); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	return &AuditLogger{file: file}, nil
}

// rotate moves path to path.1 once it has reached limit bytes, replacing
// any previous backup.
func rotate(path string, limit int64) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.Size() < limit {
		return nil
	}
	return os.Rename(path, path+".1")
}

func (l *AuditLogger) Log(event AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Redact sensitive data before logging
	event.Command = redact.Redact(event.Command)
	event.Args = redact.RedactArgs(event.Args)
	if event.Reason != "" {
		event.Reason = redact.Redact(event.Reason)
	}
	if event.Error != "" {
		event.Error = redact.Redact(event.Error)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = l.file.Write(data)
	return err
}

func (l *AuditLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
