package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibemk/vibemk-go/tools"
)

func testToolbox() *tools.Toolbox {
	type greetParams struct {
		Name string `json:"name" description:"Who to greet"`
	}
	return tools.Box(
		tools.Func("greet", "Greet someone", func(ctx context.Context, p greetParams) tools.Result {
			return tools.Textf("Hello, %s!", p.Name)
		}),
		tools.Func("boom", "Always panics", func(ctx context.Context, _ struct{}) tools.Result {
			panic("kaboom")
		}),
	)
}

// runServer feeds the given request lines through a server and returns the
// decoded response for each line that produced one.
func runServer(t *testing.T, toolbox *tools.Toolbox, opts []Option, lines ...string) []map[string]any {
	t.Helper()
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer
	s := NewServer(ServerInfo{Name: "vibemk", Version: "test"}, toolbox, in, &out, opts...)
	require.NoError(t, s.Run(context.Background()))

	var responses []map[string]any
	dec := json.NewDecoder(&out)
	for dec.More() {
		var resp map[string]any
		require.NoError(t, dec.Decode(&resp))
		responses = append(responses, resp)
	}
	return responses
}

func TestInitialize(t *testing.T) {
	resps := runServer(t, testToolbox(), nil,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"test","version":"0.1"}}}`)
	require.Len(t, resps, 1)

	result := resps[0]["result"].(map[string]any)
	// The client's protocol version is echoed back.
	assert.Equal(t, "2025-03-26", result["protocolVersion"])
	serverInfo := result["serverInfo"].(map[string]any)
	assert.Equal(t, "vibemk", serverInfo["name"])
}

func TestInitializeDefaultsProtocolVersion(t *testing.T) {
	resps := runServer(t, testToolbox(), nil,
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	require.Len(t, resps, 1)
	result := resps[0]["result"].(map[string]any)
	assert.Equal(t, DefaultProtocolVersion, result["protocolVersion"])
}

func TestToolsList(t *testing.T) {
	resps := runServer(t, testToolbox(), nil,
		`{"jsonrpc":"2.0","id":"list-1","method":"tools/list"}`)
	require.Len(t, resps, 1)
	assert.Equal(t, "list-1", resps[0]["id"])

	result := resps[0]["result"].(map[string]any)
	toolList := result["tools"].([]any)
	require.Len(t, toolList, 2)
	first := toolList[0].(map[string]any)
	assert.Equal(t, "greet", first["name"])
	schema := first["inputSchema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
}

func TestToolsCall(t *testing.T) {
	resps := runServer(t, testToolbox(), nil,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"greet","arguments":{"name":"World"}}}`)
	require.Len(t, resps, 1)

	result := resps[0]["result"].(map[string]any)
	assert.NotEqual(t, true, result["isError"])
	blocks := result["content"].([]any)
	require.Len(t, blocks, 1)
	block := blocks[0].(map[string]any)
	assert.Equal(t, "text", block["type"])
	assert.Equal(t, "Hello, World!", block["text"])
}

func TestToolsCallUnknownTool(t *testing.T) {
	resps := runServer(t, testToolbox(), nil,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nope","arguments":{}}}`)
	require.Len(t, resps, 1)
	errObj := resps[0]["error"].(map[string]any)
	assert.Equal(t, float64(CodeMethodNotFound), errObj["code"])
}

func TestToolsCallInvalidArguments(t *testing.T) {
	// Validation failures are tool results, not protocol errors.
	resps := runServer(t, testToolbox(), nil,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"greet","arguments":{"name":42}}}`)
	require.Len(t, resps, 1)
	result := resps[0]["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
}

func TestToolPanicIsContained(t *testing.T) {
	resps := runServer(t, testToolbox(), nil,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"boom"}}`,
		`{"jsonrpc":"2.0","id":6,"method":"ping"}`)
	require.Len(t, resps, 2)

	result := resps[0]["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	// The server keeps serving after a panic.
	assert.Equal(t, float64(6), resps[1]["id"])
}

func TestUnknownMethod(t *testing.T) {
	resps := runServer(t, testToolbox(), nil,
		`{"jsonrpc":"2.0","id":7,"method":"resources/list"}`)
	require.Len(t, resps, 1)
	errObj := resps[0]["error"].(map[string]any)
	assert.Equal(t, float64(CodeMethodNotFound), errObj["code"])
	assert.Contains(t, errObj["message"], "resources/list")
}

func TestInvalidJSONRPCVersion(t *testing.T) {
	resps := runServer(t, testToolbox(), nil,
		`{"jsonrpc":"1.0","id":8,"method":"ping"}`)
	require.Len(t, resps, 1)
	errObj := resps[0]["error"].(map[string]any)
	assert.Equal(t, float64(CodeInvalidRequest), errObj["code"])
}

func TestNotificationsProduceNoResponse(t *testing.T) {
	resps := runServer(t, testToolbox(), nil,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":9,"method":"ping"}`)
	// Only the ping is answered.
	require.Len(t, resps, 1)
	assert.Equal(t, float64(9), resps[0]["id"])
}

func TestMalformedLineIsSkipped(t *testing.T) {
	resps := runServer(t, testToolbox(), nil,
		`this is not json`,
		`{"jsonrpc":"2.0","id":10,"method":"ping"}`)
	require.Len(t, resps, 1)
	assert.Equal(t, float64(10), resps[0]["id"])
}

func TestInitializerFailureSurfacesAsToolContent(t *testing.T) {
	help := "Set CHECKMK_SERVER_URL and friends."
	opts := []Option{WithInitializer(func(ctx context.Context) error {
		return errors.New("missing required environment variables")
	}, help)}

	resps := runServer(t, testToolbox(), opts,
		`{"jsonrpc":"2.0","id":"l","method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":"c","method":"tools/call","params":{"name":"greet","arguments":{"name":"x"}}}`)
	require.Len(t, resps, 2)

	// tools/list works without initialization.
	_, hasErr := resps[0]["error"]
	assert.False(t, hasErr)

	result := resps[1]["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	blocks := result["content"].([]any)
	text := blocks[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "Configuration Error")
	assert.Contains(t, text, help)
}

func TestInitializerRunsOnce(t *testing.T) {
	calls := 0
	opts := []Option{WithInitializer(func(ctx context.Context) error {
		calls++
		return nil
	}, "")}

	runServer(t, testToolbox(), opts,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"greet","arguments":{"name":"a"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"greet","arguments":{"name":"b"}}}`)
	assert.Equal(t, 1, calls)
}

func TestRequestIDRoundTrip(t *testing.T) {
	for _, raw := range []string{`1`, `"abc"`, `0`} {
		var id RequestID
		require.NoError(t, json.Unmarshal([]byte(raw), &id))
		out, err := json.Marshal(id)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	}
}
