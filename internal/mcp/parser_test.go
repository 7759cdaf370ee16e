package mcp

import (
	"encoding/json"
	"testing"
)

func TestParseMessage_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  MessageKind
	}{
		{"initialize", `{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`, KindInitialize},
		{"ping", `{"jsonrpc":"2.0","id":"p1","method":"ping"}`, KindPing},
		{"tool call", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"execute_kubectl","arguments":{"command":"get pods"}}}`, KindToolCall},
		{"tool list", `{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`, KindToolList},
		{"response", `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"hello"}],"isError":false}}`, KindResponse},
		{"notification", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, KindNotification},
		{"other request", `{"jsonrpc":"2.0","id":6,"method":"prompts/get","params":{"name":"test"}}`, KindOtherRequest},
		{"empty object", `{}`, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, kind, err := ParseMessage([]byte(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if kind != tt.want {
				t.Errorf("expected %v, got %v", tt.want, kind)
			}
		})
	}
}

func TestParseMessage_InvalidJSON(t *testing.T) {
	_, _, err := ParseMessage([]byte(`{invalid`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestExtractToolCall_Valid(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"execute_kubectl","arguments":{"command":"kubectl get pods","timeout":30}}}`

	msg, _, err := ParseMessage([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params, err := ExtractToolCall(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Name != "execute_kubectl" {
		t.Errorf("expected tool name %q, got %q", "execute_kubectl", params.Name)
	}
	if params.Arguments["command"] != "kubectl get pods" {
		t.Errorf("expected command argument, got %v", params.Arguments["command"])
	}
	if params.Arguments["timeout"] != float64(30) {
		t.Errorf("expected numeric timeout, got %v", params.Arguments["timeout"])
	}
}

func TestExtractToolCall_NoArguments(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"reload_security_config"}}`

	msg, _, err := ParseMessage([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params, err := ExtractToolCall(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(params.Arguments) != 0 {
		t.Errorf("expected no arguments, got %v", params.Arguments)
	}
}

func TestExtractToolCall_Errors(t *testing.T) {
	for _, input := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}`,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call"}`,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":"execute_kubectl"}`,
	} {
		msg, _, err := ParseMessage([]byte(input))
		if err != nil {
			t.Fatalf("unexpected parse error for %s: %v", input, err)
		}
		if _, err := ExtractToolCall(msg); err == nil {
			t.Errorf("expected error for %s", input)
		}
	}
}

func TestNewErrorResponse_PreservesStringID(t *testing.T) {
	id := json.RawMessage(`"abc-123"`)
	data, err := NewErrorResponse(&id, RPCMethodNotFound, "method not found")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if msg.JSONRPC != "2.0" {
		t.Errorf("expected jsonrpc 2.0, got %q", msg.JSONRPC)
	}
	if msg.Error == nil || msg.Error.Code != RPCMethodNotFound {
		t.Fatalf("expected method-not-found error, got %+v", msg.Error)
	}

	var parsedID string
	if err := json.Unmarshal(*msg.ID, &parsedID); err != nil {
		t.Fatalf("failed to parse ID: %v", err)
	}
	if parsedID != "abc-123" {
		t.Errorf("expected ID %q, got %q", "abc-123", parsedID)
	}
}

func TestNewResultResponse(t *testing.T) {
	id := json.RawMessage(`7`)
	data, err := NewResultResponse(&id, map[string]string{"ok": "yes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg, kind, err := ParseMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindResponse {
		t.Errorf("expected KindResponse, got %v", kind)
	}
	if string(msg.Result) != `{"ok":"yes"}` {
		t.Errorf("result = %s", msg.Result)
	}
}

func TestMessageKind_String(t *testing.T) {
	tests := []struct {
		kind MessageKind
		want string
	}{
		{KindInitialize, "initialize"},
		{KindPing, "ping"},
		{KindToolCall, "tools/call"},
		{KindToolList, "tools/list"},
		{KindNotification, "notification"},
		{KindResponse, "response"},
		{KindOtherRequest, "other-request"},
		{KindUnknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("MessageKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
