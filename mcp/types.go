// Package mcp implements the server side of the Model Context Protocol:
// JSON-RPC 2.0 over stdin/stdout, with tool listing and dispatch.
package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/vibemk/vibemk-go/content"
	"github.com/vibemk/vibemk-go/tools"
)

// DefaultProtocolVersion is advertised when the client does not send one.
const DefaultProtocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// RequestID is a JSON-RPC ID that can be either a string or a number. A nil
// pointer to it distinguishes notifications from requests.
type RequestID struct {
	isString bool
	strVal   string
	numVal   float64
}

// StringID creates a RequestID from a string.
func StringID(s string) RequestID {
	return RequestID{isString: true, strVal: s}
}

// NumberID creates a RequestID from a number.
func NumberID(n float64) RequestID {
	return RequestID{isString: false, numVal: n}
}

// String returns a representation suitable for logging.
func (id RequestID) String() string {
	if id.isString {
		return id.strVal
	}
	return fmt.Sprintf("%.0f", id.numVal)
}

// MarshalJSON implements json.Marshaler.
func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.isString {
		return json.Marshal(id.strVal)
	}
	return json.Marshal(id.numVal)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		*id = StringID(strVal)
		return nil
	}
	var numVal float64
	if err := json.Unmarshal(data, &numVal); err == nil {
		*id = NumberID(numVal)
		return nil
	}
	return fmt.Errorf("ID must be string or number")
}

// Request is an incoming JSON-RPC 2.0 message. ID is nil for notifications.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *RequestID      `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an outgoing JSON-RPC 2.0 message.
type Response struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      *RequestID    `json:"id,omitempty"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

// MCP protocol payloads.

type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      *ClientInfo    `json:"clientInfo"`
}

type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ListToolsResult struct {
	Tools []ToolInfo `json:"tools"`
}

// ToolInfo is the tools/list wire form of a tool.
type ToolInfo struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	InputSchema tools.ValueSchema `json:"inputSchema"`
}

type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type CallToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ContentItem is the wire form of a content block. JSON items are rendered
// as text so any MCP client can display them.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func contentItems(c content.Content) []ContentItem {
	items := make([]ContentItem, 0, len(c))
	for _, item := range c {
		switch item := item.(type) {
		case *content.Text:
			items = append(items, ContentItem{Type: "text", Text: item.Text})
		case *content.JSON:
			items = append(items, ContentItem{Type: "text", Text: fmt.Sprintf("```json\n%s\n```", item.Data)})
		}
	}
	return items
}
