package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Toolbox is the routing table from tool name to implementation. It is
// built once during startup and read-only afterwards, so lookups need no
// synchronization.
type Toolbox struct {
	order []string
	tools map[string]Tool
}

// Box returns a new Toolbox containing the given tools.
func Box(tools ...Tool) *Toolbox {
	t := &Toolbox{
		tools: make(map[string]Tool),
	}
	for _, tool := range tools {
		t.Add(tool)
	}
	return t
}

// Add adds a tool to the toolbox. Registering the same name twice is a
// programming error and panics.
func (t *Toolbox) Add(tool Tool) {
	name := tool.Name()
	if _, ok := t.tools[name]; ok {
		panic(fmt.Sprintf("tool %q already exists", name))
	}
	t.order = append(t.order, name)
	t.tools[name] = tool
}

// All returns the tools in registration order, which keeps tools/list
// output stable across calls.
func (t *Toolbox) All() []Tool {
	if t == nil {
		return []Tool{}
	}
	tools := make([]Tool, 0, len(t.order))
	for _, name := range t.order {
		tools = append(tools, t.tools[name])
	}
	return tools
}

// Get returns the tool with the given name, or nil.
func (t *Toolbox) Get(name string) Tool {
	// Be nil-safe so unexpected tool calls don't panic.
	if t == nil {
		return nil
	}
	return t.tools[name]
}

// Run executes the named tool with the given JSON arguments.
func (t *Toolbox) Run(ctx context.Context, name string, params json.RawMessage) Result {
	tool := t.Get(name)
	if tool == nil {
		return Errorf("Unknown tool", "tool %q not found", name)
	}
	return tool.Run(ctx, params)
}
