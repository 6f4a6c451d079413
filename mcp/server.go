package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/vibemk/vibemk-go/tools"
)

// maxLineBytes bounds a single JSON-RPC message; bulk host payloads can get
// large.
const maxLineBytes = 10 * 1024 * 1024

// Server is a stdio MCP server: it reads line-delimited JSON-RPC requests,
// routes tools/call requests through a Toolbox and writes one JSON response
// per line. All logging goes to the provided logger, never to the output
// stream.
type Server struct {
	toolbox *tools.Toolbox
	info    ServerInfo
	logger  *zap.Logger

	// initialize is run once before the first tool call; a failure is
	// reported to the client as tool content, not as a protocol error, so
	// tools/list keeps working without a reachable CheckMK site.
	initialize  func(ctx context.Context) error
	initOnce    sync.Once
	initErr     error
	initHelp    string
	writerMutex sync.Mutex
	encoder     *json.Encoder
	writer      *bufio.Writer
	reader      *bufio.Scanner
}

// Option customises server behavior during construction.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInitializer registers a function run once before the first tool call.
// help is appended to the error content when initialization fails, typically
// naming the environment variables the operator must set.
func WithInitializer(fn func(ctx context.Context) error, help string) Option {
	return func(s *Server) {
		s.initialize = fn
		s.initHelp = help
	}
}

// NewServer constructs a server reading requests from r and writing
// responses to w.
func NewServer(info ServerInfo, toolbox *tools.Toolbox, r io.Reader, w io.Writer, opts ...Option) *Server {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	bufWriter := bufio.NewWriter(w)
	encoder := json.NewEncoder(bufWriter)
	encoder.SetEscapeHTML(false)
	s := &Server{
		toolbox: toolbox,
		info:    info,
		logger:  zap.NewNop(),
		reader:  scanner,
		writer:  bufWriter,
		encoder: encoder,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes requests until the input stream closes or the context is
// cancelled. A malformed JSON line is logged and skipped, matching how MCP
// clients expect resilient servers to behave.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("server ready", zap.String("name", s.info.Name), zap.String("version", s.info.Version))
	for s.reader.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := s.reader.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Error("invalid JSON received", zap.Error(err))
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp == nil {
			continue
		}
		if err := s.writeResponse(resp); err != nil {
			s.logger.Error("failed to send response", zap.Error(err))
		}
	}
	if err := s.reader.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	s.logger.Info("stdin closed, shutting down")
	return nil
}

// handleRequest validates and dispatches a single request. It returns nil
// for notifications, which expect no response.
func (s *Server) handleRequest(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != "2.0" {
		return s.errorResponse(req.ID, CodeInvalidRequest, "Invalid Request: missing or invalid 'jsonrpc' field")
	}
	if req.Method == "" {
		return s.errorResponse(req.ID, CodeInvalidRequest, "Invalid Request: missing required field 'method'")
	}

	s.logger.Debug("handling request", zap.String("method", req.Method))

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "ping":
		return s.resultResponse(req.ID, struct{}{})
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return s.errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return s.errorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("invalid initialize params: %s", err))
		}
	}

	// Echo the client's protocol version for compatibility.
	protocolVersion := params.ProtocolVersion
	if protocolVersion == "" {
		protocolVersion = DefaultProtocolVersion
	}
	if params.ClientInfo != nil {
		s.logger.Info("client connected",
			zap.String("client", params.ClientInfo.Name),
			zap.String("clientVersion", params.ClientInfo.Version),
			zap.String("protocolVersion", protocolVersion))
	}

	return s.resultResponse(req.ID, InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ServerInfo:      s.info,
	})
}

func (s *Server) handleToolsList(req *Request) *Response {
	all := s.toolbox.All()
	infos := make([]ToolInfo, 0, len(all))
	for _, tool := range all {
		schema := tool.Schema()
		infos = append(infos, ToolInfo{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: schema.Parameters,
		})
	}
	s.logger.Debug("tools listed", zap.Int("count", len(infos)))
	return s.resultResponse(req.ID, ListToolsResult{Tools: infos})
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("invalid tools/call params: %s", err))
	}
	if params.Name == "" {
		return s.errorResponse(req.ID, CodeInvalidParams, "missing tool name")
	}

	if s.initialize != nil {
		s.initOnce.Do(func() {
			s.initErr = s.initialize(ctx)
		})
		if s.initErr != nil {
			s.logger.Error("initialization failed", zap.Error(s.initErr))
			text := fmt.Sprintf("❌ **Configuration Error**\n\n%s", s.initErr)
			if s.initHelp != "" {
				text += "\n\n" + s.initHelp
			}
			return s.resultResponse(req.ID, CallToolResult{
				Content: []ContentItem{{Type: "text", Text: text}},
				IsError: true,
			})
		}
	}

	tool := s.toolbox.Get(params.Name)
	if tool == nil {
		return s.errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Unknown tool: %s", params.Name))
	}

	s.logger.Info("tool call", zap.String("tool", params.Name), zap.Int("argBytes", len(params.Arguments)))

	result := s.runTool(ctx, tool, params.Arguments)
	return s.resultResponse(req.ID, CallToolResult{
		Content: contentItems(result.Content),
		IsError: result.IsError,
	})
}

// runTool isolates handler panics so one bad tool call cannot take the
// server down.
func (s *Server) runTool(ctx context.Context, tool tools.Tool, args json.RawMessage) (result tools.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool panicked", zap.String("tool", tool.Name()), zap.Any("panic", r))
			result = tools.Errorf("Internal error", "tool %s panicked: %v", tool.Name(), r)
		}
	}()
	return tool.Run(ctx, args)
}

func (s *Server) resultResponse(id *RequestID, result any) *Response {
	if id == nil {
		// Notifications get no response.
		return nil
	}
	return &Response{JSONRPC: "2.0", ID: id, Result: result}
}

func (s *Server) errorResponse(id *RequestID, code int, message string) *Response {
	if id == nil {
		s.logger.Warn("dropping error for notification", zap.Int("code", code), zap.String("message", message))
		return nil
	}
	return &Response{JSONRPC: "2.0", ID: id, Error: &JSONRPCError{Code: code, Message: message}}
}

func (s *Server) writeResponse(resp *Response) error {
	s.writerMutex.Lock()
	defer s.writerMutex.Unlock()
	if err := s.encoder.Encode(resp); err != nil {
		return err
	}
	return s.writer.Flush()
}
