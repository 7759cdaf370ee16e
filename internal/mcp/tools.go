package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gzhole/kubeshield/internal/executor"
	"github.com/gzhole/kubeshield/internal/policy"
	"github.com/gzhole/kubeshield/internal/registry"
)

const (
	describePrefix = "describe_"
	executePrefix  = "execute_"

	ToolReloadSecurityConfig = "reload_security_config"
)

const defaultInstructions = `Kubernetes CLI gateway.
Use describe_<tool> to read help for kubectl, helm, istioctl or argocd and
execute_<tool> to run a command. Commands are checked against the security
policy and cluster RBAC before they run; piping into general utilities such
as grep or jq is allowed.`

var describeSchema = json.RawMessage(`{"type":"object","properties":{"command":{"type":"string","description":"Subcommand to describe, e.g. \"get\" or \"app sync\"."}}}`)

var executeSchema = json.RawMessage(`{"type":"object","properties":{"command":{"type":"string","description":"Command to run. The tool name may be omitted."},"timeout":{"type":"integer","description":"Timeout in seconds."}},"required":["command"]}`)

var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

// Error codes reported in ErrorDetails.
const (
	CodePolicyRejected  = "POLICY_REJECTED"
	CodeInvalidArgument = "INVALID_ARGUMENT"
)

// ErrorDetails explains a failed tool call.
type ErrorDetails struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// CommandResult is the JSON text returned by execute_<tool>.
type CommandResult struct {
	executor.Result
	Error *ErrorDetails `json:"error,omitempty"`
}

// HelpResult is the JSON text returned by describe_<tool>.
type HelpResult struct {
	HelpText string        `json:"help_text"`
	Status   string        `json:"status"`
	Error    *ErrorDetails `json:"error,omitempty"`
}

func toolDefinitions(tools []registry.Tool) []ToolDefinition {
	defs := make([]ToolDefinition, 0, 2*len(tools)+1)
	for _, t := range tools {
		defs = append(defs,
			ToolDefinition{
				Name:        describePrefix + t.Name,
				Description: fmt.Sprintf("Get %s help text", t.Name),
				InputSchema: describeSchema,
			},
			ToolDefinition{
				Name:        executePrefix + t.Name,
				Description: fmt.Sprintf("Execute %s commands", t.Name),
				InputSchema: executeSchema,
			},
		)
	}
	defs = append(defs, ToolDefinition{
		Name:        ToolReloadSecurityConfig,
		Description: "Reload the security configuration from disk",
		InputSchema: emptySchema,
	})
	return defs
}

func (s *Server) callTool(ctx context.Context, params *CallToolParams) CallToolResult {
	if params.Name == ToolReloadSecurityConfig {
		s.svc.Reload()
		return textResult("Security configuration reloaded", false)
	}

	if name, ok := strings.CutPrefix(params.Name, executePrefix); ok && s.exposes(name) {
		return s.execute(ctx, name, params.Arguments)
	}
	if name, ok := strings.CutPrefix(params.Name, describePrefix); ok && s.exposes(name) {
		return s.describe(ctx, name, params.Arguments)
	}

	return textResult(fmt.Sprintf("Unknown tool: %s", params.Name), true)
}

func (s *Server) exposes(name string) bool {
	for _, t := range s.tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

func (s *Server) execute(ctx context.Context, tool string, args map[string]interface{}) CallToolResult {
	command, _ := args["command"].(string)
	command = strings.TrimSpace(command)
	if command == "" {
		return jsonResult(CommandResult{
			Result: executor.ErrorResult("missing required argument 'command'", 1, 0),
			Error:  &ErrorDetails{Message: "missing required argument 'command'", Code: CodeInvalidArgument},
		})
	}
	command = withToolName(tool, command)

	var timeout time.Duration
	if secs, ok := args["timeout"].(float64); ok && secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}

	res, err := s.svc.Execute(ctx, command, timeout)
	if err != nil {
		code := CodeInvalidArgument
		if errors.Is(err, policy.ErrRejected) {
			code = CodePolicyRejected
		}
		return jsonResult(CommandResult{
			Result: executor.ErrorResult(err.Error(), 1, 0),
			Error:  &ErrorDetails{Message: err.Error(), Code: code},
		})
	}
	return jsonResult(CommandResult{Result: res})
}

func (s *Server) describe(ctx context.Context, tool string, args map[string]interface{}) CallToolResult {
	sub, _ := args["command"].(string)

	res, err := s.svc.Describe(ctx, tool, sub)
	if err != nil {
		return jsonResult(HelpResult{
			Status: executor.StatusError,
			Error:  &ErrorDetails{Message: err.Error(), Code: CodeInvalidArgument},
		})
	}
	return jsonResult(HelpResult{HelpText: res.Output, Status: res.Status})
}

// withToolName prepends tool unless command already starts with it.
func withToolName(tool, command string) string {
	if command == tool || strings.HasPrefix(command, tool+" ") {
		return command
	}
	return tool + " " + command
}

func jsonResult(v interface{}) CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return textResult(fmt.Sprintf("failed to encode result: %v", err), true)
	}

	isError := false
	switch r := v.(type) {
	case CommandResult:
		isError = r.Status != executor.StatusSuccess
	case HelpResult:
		isError = r.Status != executor.StatusSuccess
	}
	return textResult(string(data), isError)
}

func textResult(text string, isError bool) CallToolResult {
	return CallToolResult{
		Content: []ContentItem{{Type: "text", Text: text}},
		IsError: isError,
	}
}
