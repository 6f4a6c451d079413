package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoParams struct {
	Message string `json:"message" description:"Text to echo"`
	Count   int    `json:"count,omitempty" description:"Repeat count"`
	Mode    string `json:"mode,omitempty" description:"Echo mode" enum:"plain,loud"`
}

func echoTool() Tool {
	return Func("echo", "Echo a message", func(ctx context.Context, p echoParams) Result {
		return Textf("%s", p.Message)
	})
}

func TestFuncSchema(t *testing.T) {
	tool := echoTool()
	schema := tool.Schema()
	require.Equal(t, "echo", schema.Name)
	require.Equal(t, "Echo a message", schema.Description)
	require.Equal(t, "object", schema.Parameters.Type)

	props := *schema.Parameters.Properties
	require.Contains(t, props, "message")
	assert.Equal(t, "string", props["message"].Type)
	assert.Equal(t, "Text to echo", props["message"].Description)
	assert.Equal(t, "integer", props["count"].Type)
	assert.Equal(t, []string{"plain", "loud"}, props["mode"].Enum)

	// Only non-omitempty fields are required.
	assert.Equal(t, []string{"message"}, schema.Parameters.Required)
}

func TestFuncRun(t *testing.T) {
	tool := echoTool()

	t.Run("valid arguments", func(t *testing.T) {
		res := tool.Run(context.Background(), json.RawMessage(`{"message":"hi"}`))
		require.False(t, res.IsError)
		require.Len(t, res.Content, 1)
	})

	t.Run("missing required field", func(t *testing.T) {
		res := tool.Run(context.Background(), json.RawMessage(`{"count":2}`))
		require.True(t, res.IsError)
	})

	t.Run("enum violation", func(t *testing.T) {
		res := tool.Run(context.Background(), json.RawMessage(`{"message":"hi","mode":"whisper"}`))
		require.True(t, res.IsError)
	})

	t.Run("empty arguments default to empty object", func(t *testing.T) {
		noParams := Func("ping", "Ping", func(ctx context.Context, _ struct{}) Result {
			return Text("pong")
		})
		res := noParams.Run(context.Background(), nil)
		require.False(t, res.IsError)
	})
}

func TestSchemaNestedStructs(t *testing.T) {
	type inner struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	type outer struct {
		Name   string  `json:"name"`
		Ranges []inner `json:"ranges"`
	}
	tool := Func("nested", "Nested params", func(ctx context.Context, p outer) Result {
		return Text("ok")
	})
	props := *tool.Schema().Parameters.Properties
	require.Equal(t, "array", props["ranges"].Type)
	require.NotNil(t, props["ranges"].Items)
	assert.Equal(t, "object", props["ranges"].Items.Type)

	res := tool.Run(context.Background(), json.RawMessage(`{"name":"x","ranges":[{"start":"a","end":"b"}]}`))
	require.False(t, res.IsError)
}

func TestSchemaRawMessagePassthrough(t *testing.T) {
	type params struct {
		Value json.RawMessage `json:"value" description:"Any JSON value"`
	}
	var got json.RawMessage
	tool := Func("raw", "Raw value", func(ctx context.Context, p params) Result {
		got = p.Value
		return Text("ok")
	})

	// Raw fields accept any shape, including nested objects.
	res := tool.Run(context.Background(), json.RawMessage(`{"value":{"levels":[80,90]}}`))
	require.False(t, res.IsError)
	require.JSONEq(t, `{"levels":[80,90]}`, string(got))
}

func TestToolboxOrderAndLookup(t *testing.T) {
	a := Func("a", "A", func(ctx context.Context, _ struct{}) Result { return Text("a") })
	b := Func("b", "B", func(ctx context.Context, _ struct{}) Result { return Text("b") })
	c := Func("c", "C", func(ctx context.Context, _ struct{}) Result { return Text("c") })

	tb := Box(c, a, b)
	var names []string
	for _, tool := range tb.All() {
		names = append(names, tool.Name())
	}
	// Registration order is preserved.
	require.Equal(t, []string{"c", "a", "b"}, names)

	require.NotNil(t, tb.Get("b"))
	require.Nil(t, tb.Get("missing"))
}

func TestToolboxDuplicatePanics(t *testing.T) {
	a := Func("dup", "A", func(ctx context.Context, _ struct{}) Result { return Text("a") })
	b := Func("dup", "B", func(ctx context.Context, _ struct{}) Result { return Text("b") })
	require.Panics(t, func() { Box(a, b) })
}

func TestToolboxRun(t *testing.T) {
	tb := Box(echoTool())

	res := tb.Run(context.Background(), "echo", json.RawMessage(`{"message":"hello"}`))
	require.False(t, res.IsError)

	res = tb.Run(context.Background(), "nope", nil)
	require.True(t, res.IsError)
}

func TestResultError(t *testing.T) {
	res := Error("Something Failed", "the reason")
	require.True(t, res.IsError)
	require.Len(t, res.Content, 1)
}
