package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/gzhole/kubeshield/internal/executor"
	"github.com/gzhole/kubeshield/internal/logger"
	"github.com/gzhole/kubeshield/internal/policy"
)

// runCLI executes the root command with args and an isolated home.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("K8S_MCP_SECURITY_MODE", "")
	t.Setenv("K8S_MCP_SECURITY_CONFIG", "")

	securityConfigPath, auditLogPath, mode, logLevel = "", "", "", ""

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--audit-log", filepath.Join(home, "audit.jsonl"), "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, err := runCLI(t, "validate", "kubectl get pods | grep Running")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	var res validateOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("bad output %q: %v", out, err)
	}
	if !res.Accepted {
		t.Errorf("expected acceptance, got %+v", res)
	}

	out, err = runCLI(t, "validate", "kubectl delete pods --all")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("expected exit 1, got %v", err)
	}
	res = validateOutput{}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("bad output %q: %v", out, err)
	}
	if res.Accepted || res.Kind != policy.KindDangerousPrefix {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestValidateCommand_PermissiveFlag(t *testing.T) {
	out, err := runCLI(t, "--mode", "permissive", "validate", "kubectl delete pods --all")
	if err != nil {
		t.Fatalf("validate: %v (%s)", err, out)
	}
	if !strings.Contains(out, `"accepted": true`) {
		t.Errorf("expected acceptance in permissive mode, got %s", out)
	}
}

func TestRulesCommand(t *testing.T) {
	out, err := runCLI(t, "rules")
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	var doc policy.Document
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("rules output is not YAML: %v", err)
	}
	if len(doc.DangerousCommands["kubectl"]) == 0 || len(doc.SafePatterns["helm"]) == 0 {
		t.Errorf("expected default rules, got %+v", doc)
	}
}

func TestExecCommand_Rejected(t *testing.T) {
	_, err := runCLI(t, "exec", "kubectl exec mypod -- bash")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("expected exit 1, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "kubeshield "+Version) {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestRenderResult(t *testing.T) {
	res := executor.Result{Status: executor.StatusError, Output: "boom", ExitCode: 2, ExecutionTime: 0.25}

	var buf bytes.Buffer
	if err := renderResult(&buf, res, false); err != nil {
		t.Fatal(err)
	}
	var parsed executor.Result
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("expected JSON: %v", err)
	}
	if parsed != res {
		t.Errorf("round trip = %+v, want %+v", parsed, res)
	}

	buf.Reset()
	if err := renderResult(&buf, res, true); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "boom\n") || !strings.Contains(buf.String(), "exit 2") {
		t.Errorf("unexpected styled output %q", buf.String())
	}
}

func TestResultExit(t *testing.T) {
	tests := []struct {
		code int
		want int
	}{
		{0, 0},
		{3, 3},
		{-1, 1},
	}
	for _, tt := range tests {
		err := resultExit(executor.Result{ExitCode: tt.code})
		if tt.want == 0 {
			if err != nil {
				t.Errorf("code %d: unexpected error %v", tt.code, err)
			}
			continue
		}
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != tt.want {
			t.Errorf("code %d: got %v, want exit %d", tt.code, err, tt.want)
		}
	}
}

func TestLogCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	logPath := filepath.Join(home, "audit.jsonl")

	lg, err := logger.New(logPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, ev := range []logger.AuditEvent{
		{ID: "1", Timestamp: "2026-03-01T00:00:00Z", Command: "kubectl get pods", Tool: "kubectl", Decision: logger.DecisionAllow, Mode: "strict"},
		{ID: "2", Timestamp: "2026-03-01T00:00:01Z", Command: "kubectl delete pods --all", Decision: logger.DecisionReject, Reason: "restricted", Mode: "strict"},
		{ID: "3", Timestamp: "2026-03-01T00:00:02Z", Command: "helm list", Tool: "helm", Decision: logger.DecisionAllow, Mode: "strict"},
	} {
		if err := lg.Log(ev); err != nil {
			t.Fatal(err)
		}
	}
	_ = lg.Close()

	events, err := readAuditLog(logPath)
	if err != nil || len(events) != 3 {
		t.Fatalf("readAuditLog = %d events, %v", len(events), err)
	}

	rejected := filterEvents(events, "reject", "")
	if len(rejected) != 1 || rejected[0].ID != "2" {
		t.Errorf("decision filter = %+v", rejected)
	}
	helm := filterEvents(events, "", "helm")
	if len(helm) != 1 || helm[0].ID != "3" {
		t.Errorf("tool filter = %+v", helm)
	}

	var buf bytes.Buffer
	printSummary(&buf, events)
	if !strings.Contains(buf.String(), "Total events:    3") || !strings.Contains(buf.String(), "kubectl delete pods --all") {
		t.Errorf("unexpected summary:\n%s", buf.String())
	}
}
