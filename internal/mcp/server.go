package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gzhole/kubeshield/internal/executor"
	"github.com/gzhole/kubeshield/internal/policy"
	"github.com/gzhole/kubeshield/internal/registry"
)

// Service is the gateway surface exposed as MCP tools.
type Service interface {
	Execute(ctx context.Context, command string, timeout time.Duration) (executor.Result, error)
	Describe(ctx context.Context, tool, subcommand string) (executor.Result, error)
	Reload() *policy.RuleSet
}

// Server answers MCP requests for a Service.
type Server struct {
	svc          Service
	tools        []registry.Tool
	definitions  []ToolDefinition
	log          *slog.Logger
	info         Implementation
	instructions string

	calls sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the operational logger. Nothing but protocol
// messages may be written to the output stream, so logs go elsewhere.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithServerInfo sets the name and version reported on initialize.
func WithServerInfo(name, version string) ServerOption {
	return func(s *Server) { s.info = Implementation{Name: name, Version: version} }
}

// WithTools limits the exposed tools, e.g. to those found installed.
func WithTools(tools []registry.Tool) ServerOption {
	return func(s *Server) { s.tools = tools }
}

func NewServer(svc Service, opts ...ServerOption) *Server {
	s := &Server{
		svc:          svc,
		tools:        registry.Tools(),
		log:          slog.Default(),
		info:         Implementation{Name: "kubeshield", Version: "dev"},
		instructions: defaultInstructions,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.definitions = toolDefinitions(s.tools)
	return s
}

// Serve reads newline-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted. Tool calls run concurrently; Serve
// waits for all of them before returning. Cancelling ctx cancels running
// commands.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	out := &lockedWriter{w: w}
	defer s.calls.Wait()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // up to 10MB per message

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		msg, kind, err := ParseMessage(line)
		if err != nil {
			s.log.Warn("failed to parse message", "error", err)
			s.writeError(out, nil, RPCParseError, "Parse error")
			continue
		}

		switch kind {
		case KindInitialize:
			s.writeResult(out, msg.ID, s.initialize(msg))
		case KindPing:
			s.writeResult(out, msg.ID, struct{}{})
		case KindToolList:
			s.writeResult(out, msg.ID, ListToolsResult{Tools: s.definitions})
		case KindToolCall:
			params, err := ExtractToolCall(msg)
			if err != nil {
				s.writeError(out, msg.ID, RPCInvalidParams, err.Error())
				continue
			}
			s.calls.Add(1)
			go func(id *json.RawMessage, params *CallToolParams) {
				defer s.calls.Done()
				s.writeResult(out, id, s.callTool(ctx, params))
			}(msg.ID, params)
		case KindNotification, KindResponse:
			s.log.Debug("ignoring message", "kind", kind, "method", msg.Method)
		case KindOtherRequest:
			s.writeError(out, msg.ID, RPCMethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method))
		default:
			s.writeError(out, msg.ID, RPCInvalidRequest, "Invalid request")
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read request: %w", err)
	}
	return nil
}

// Wait blocks until every tool call started by Serve has written its
// response, or ctx is done. Serve itself only returns once its input ends.
func (s *Server) Wait(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		s.calls.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) initialize(msg *Message) InitializeResult {
	version := ProtocolVersion
	var params InitializeParams
	if msg.Params != nil && json.Unmarshal(msg.Params, &params) == nil && params.ProtocolVersion != "" {
		version = params.ProtocolVersion
	}
	return InitializeResult{
		ProtocolVersion: version,
		Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}
}

func (s *Server) writeResult(w io.Writer, id *json.RawMessage, result interface{}) {
	data, err := NewResultResponse(id, result)
	if err != nil {
		s.log.Error("failed to encode response", "error", err)
		s.writeError(w, id, RPCInternalError, "Internal error")
		return
	}
	writeLineToWriter(w, data)
}

func (s *Server) writeError(w io.Writer, id *json.RawMessage, code int, message string) {
	data, err := NewErrorResponse(id, code, message)
	if err != nil {
		s.log.Error("failed to encode error response", "error", err)
		return
	}
	writeLineToWriter(w, data)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// writeLineToWriter writes a line followed by a newline to the writer.
func writeLineToWriter(w io.Writer, data []byte) {
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, data...)
	buf = append(buf, '\n')
	_, _ = w.Write(buf)
}
