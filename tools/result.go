package tools

import (
	"encoding/json"
	"fmt"

	"github.com/vibemk/vibemk-go/content"
)

// Result is the outcome of a tool execution: content blocks plus an error
// flag that maps onto the MCP isError field.
type Result struct {
	Content content.Content
	IsError bool
}

// Text returns a successful result holding a single text block.
func Text(text string) Result {
	return Result{Content: content.FromText(text)}
}

// Textf returns a successful result holding a single formatted text block.
func Textf(format string, args ...any) Result {
	return Text(fmt.Sprintf(format, args...))
}

// Error returns a failed result rendered the way CheckMK tool errors are
// presented to the client.
func Error(title, detail string) Result {
	return Result{
		Content: content.Textf("❌ **%s**\n\n%s", title, detail),
		IsError: true,
	}
}

// Errorf is Error with a formatted detail message.
func Errorf(title, format string, args ...any) Result {
	return Error(title, fmt.Sprintf(format, args...))
}

// TextWithJSON returns a successful result holding a text block followed by
// a machine-readable JSON payload. Used for backup documents and similar
// structured output.
func TextWithJSON(text string, value any) Result {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return Error("Encoding failed", err.Error())
	}
	c := content.FromText(text)
	c = append(c, content.FromRawJSON(data)...)
	return Result{Content: c}
}
