// Package content models the content blocks embedded in MCP tool results.
// Tool output is a sequence of typed items; CheckMK responses are rendered
// as markdown text blocks, with JSON items for machine-readable payloads
// like ruleset backups.
package content

import (
	"encoding/json"
	"fmt"
)

type Type string

const (
	TypeText Type = "text"
	TypeJSON Type = "json"
)

type Item interface {
	Type() Type
}

// Text is a human-readable markdown block.
type Text struct {
	Text string `json:"text"`
}

func (t *Text) Type() Type {
	return TypeText
}

// JSON carries a machine-readable payload. On the MCP wire it is rendered
// as a text block containing indented JSON so any client can display it.
type JSON struct {
	Data json.RawMessage `json:"data"`
}

func (j *JSON) Type() Type {
	return TypeJSON
}

type Content []Item

// FromText returns content holding a single text block.
func FromText(text string) Content {
	return Content{&Text{Text: text}}
}

// Textf returns content holding a single formatted text block.
func Textf(format string, args ...any) Content {
	return FromText(fmt.Sprintf(format, args...))
}

// FromAny marshals the given value and returns a single JSON content item.
func FromAny(value any) (Content, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return FromRawJSON(data), nil
}

// FromRawJSON returns a single JSON content item with the given raw data.
func FromRawJSON(data json.RawMessage) Content {
	return Content{&JSON{Data: data}}
}

// Append adds a text block to the content.
func (c *Content) Append(text string) {
	*c = append(*c, &Text{Text: text})
}

// Appendf adds a formatted text block to the content.
func (c *Content) Appendf(format string, args ...any) {
	c.Append(fmt.Sprintf(format, args...))
}
