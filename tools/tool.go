// Package tools defines the tool abstraction the MCP server routes calls
// through: a named operation with a JSON schema for its arguments and a
// handler producing content blocks.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

type Tool interface {
	// Name returns the tool name clients call it by.
	Name() string
	// Description returns the description shown in tools/list.
	Description() string
	// Schema returns the JSON schema for the tool's arguments.
	Schema() *FunctionSchema
	// Run executes the tool with the provided raw JSON arguments.
	Run(ctx context.Context, params json.RawMessage) Result
}

var jsonRawMessageType = reflect.TypeOf(json.RawMessage{})

// Func returns a tool whose argument schema is derived from the Params
// struct via reflection. Field descriptions come from `description` tags,
// allowed values from `enum` tags, and fields without omitempty are
// required. Arguments are validated against the schema before fn runs.
func Func[Params any](name, description string, fn func(ctx context.Context, params Params) Result) Tool {
	var zeroParams Params
	schemaType := reflect.TypeOf(zeroParams)
	if schemaType.Kind() != reflect.Struct && schemaType != jsonRawMessageType {
		panic("Params must be a struct or json.RawMessage")
	}
	var t *tool
	t = &tool{
		name:        name,
		description: description,
		schemaType:  schemaType,
		fn: func(ctx context.Context, params json.RawMessage) Result {
			if err := t.validateParams(params); err != nil {
				return Error("Invalid arguments", fmt.Sprintf("validation error for %s: %s", name, err))
			}
			var p Params
			if err := json.Unmarshal(params, &p); err != nil {
				return Error("Invalid arguments", fmt.Sprintf("unmarshal error for %s: %s", name, err))
			}
			return fn(ctx, p)
		},
	}
	return t
}

type tool struct {
	name, description string

	fn func(ctx context.Context, params json.RawMessage) Result

	// Note: Lazily initialized.
	schema     *FunctionSchema
	schemaOnce sync.Once
	schemaType reflect.Type
}

func (t *tool) Name() string {
	return t.name
}

func (t *tool) Description() string {
	return t.description
}

func (t *tool) Run(ctx context.Context, params json.RawMessage) Result {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	return t.fn(ctx, params)
}

func (t *tool) Schema() *FunctionSchema {
	t.schemaOnce.Do(func() {
		schema := generateSchema(t.name, t.description, t.schemaType)
		t.schema = &schema
	})
	return t.schema
}

func (t *tool) validateParams(params json.RawMessage) error {
	if t.schemaType == jsonRawMessageType {
		// All data is valid json.RawMessage data.
		return nil
	}
	return validateJSON(t.Schema(), params)
}
