package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestAuditLogger_Log(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test_audit.jsonl")

	logger, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Close()
	}()

	code := 0
	event := AuditEvent{
		ID:        "3b0c6c7e-0000-4000-8000-000000000001",
		Timestamp: "2026-02-02T12:00:00Z",
		Command:   "kubectl get pods",
		Args:      []string{"kubectl", "get", "pods"},
		Tool:      "kubectl",
		Verb:      "get",
		Resource:  "pods",
		Decision:  DecisionAllow,
		Mode:      "strict",
		Status:    "success",
		ExitCode:  &code,
	}

	if err := logger.Log(event); err != nil {
		t.Fatalf("failed to log event: %v", err)
	}

	_ = logger.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var parsed AuditEvent
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to parse log line as JSON: %v", err)
	}

	if parsed.Command != "kubectl get pods" {
		t.Errorf("expected command 'kubectl get pods', got '%s'", parsed.Command)
	}

	if parsed.Decision != DecisionAllow {
		t.Errorf("expected decision 'ALLOW', got '%s'", parsed.Decision)
	}

	if parsed.ExitCode == nil || *parsed.ExitCode != 0 {
		t.Errorf("expected exit code 0 to be recorded, got %v", parsed.ExitCode)
	}
}

func TestAuditLogger_RedactsSecrets(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	lg, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	event := AuditEvent{
		Timestamp: "2026-02-02T12:00:00Z",
		Command:   "kubectl get pods --token=abcdefghijklmnopqrstuvwxyz",
		Args:      []string{"kubectl", "get", "pods", "--token=abcdefghijklmnopqrstuvwxyz"},
		Decision:  DecisionReject,
		Reason:    "rejected: --token=abcdefghijklmnopqrstuvwxyz",
		Mode:      "strict",
	}
	if err := lg.Log(event); err != nil {
		t.Fatalf("Log: %v", err)
	}
	_ = lg.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "abcdefghijklmnopqrstuvwxyz") {
		t.Errorf("token leaked into audit log: %s", data)
	}
}

func TestAuditLogger_Rotation(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "audit.jsonl")

	// Pre-create the log file already at the rotation limit.
	big := make([]byte, defaultMaxLogBytes)
	if err := os.WriteFile(logPath, big, 0600); err != nil {
		t.Fatalf("failed to seed large log file: %v", err)
	}

	lg, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = lg.Close() }()

	event := AuditEvent{
		Timestamp: "2026-03-01T00:00:00Z",
		Command:   "helm list",
		Decision:  DecisionAllow,
		Mode:      "strict",
	}
	if err := lg.Log(event); err != nil {
		t.Fatalf("Log after rotation failed: %v", err)
	}

	// .1 backup must exist
	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Errorf("expected rotated file %s.1 to exist: %v", logPath, err)
	}

	// Fresh log must be small (just the one new line)
	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("fresh log file missing: %v", err)
	}
	if info.Size() >= defaultMaxLogBytes {
		t.Errorf("fresh log file is still %d bytes; expected < %d", info.Size(), defaultMaxLogBytes)
	}
}

func TestAuditLogger_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	lg, err := New(logPath)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = lg.Log(AuditEvent{Command: "kubectl get pods", Decision: DecisionAllow, Mode: "strict"})
		}()
	}
	wg.Wait()
	_ = lg.Close()

	f, err := os.Open(logPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev AuditEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		lines++
	}
	if lines != 20 {
		t.Errorf("expected 20 lines, got %d", lines)
	}
}

func TestAuditLogger_FilePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "secure_audit.jsonl")

	logger, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	_ = logger.Close()

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("failed to stat log file: %v", err)
	}

	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("expected file permissions 0600, got %04o", perm)
	}
}
