package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MaxToolParamsSize bounds tool parameter payloads (1MB). Model-produced
// inputs beyond this are rejected without invoking the tool.
const MaxToolParamsSize = 1 << 20

// ToolRegistry manages available tools with thread-safe registration and
// lookup. Each tool's input schema is compiled at registration time so calls
// are validated before execution.
type ToolRegistry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register adds a tool, replacing any existing tool with the same name.
// It returns an error when the tool's schema does not compile.
func (r *ToolRegistry) Register(tool Tool) error {
	compiler := jsonschema.NewCompiler()
	url := "tool://" + tool.Name() + "/schema.json"
	if err := compiler.AddResource(url, bytes.NewReader(tool.Schema())); err != nil {
		return fmt.Errorf("tool %s: invalid schema: %w", tool.Name(), err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("tool %s: compile schema: %w", tool.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
	r.schemas[tool.Name()] = schema
	return nil
}

// MustRegister is Register for static tool sets wired at startup.
func (r *ToolRegistry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Get returns a tool by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools.
func (r *ToolRegistry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	return tools
}

// Validate checks params against the tool's compiled schema. A validation
// failure is returned as an error message suitable for feeding back to the
// model.
func (r *ToolRegistry) Validate(name string, params json.RawMessage) error {
	r.mu.RLock()
	schema, ok := r.schemas[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("tool not found: %s", name)
	}
	if len(params) > MaxToolParamsSize {
		return fmt.Errorf("tool parameters exceed %d bytes", MaxToolParamsSize)
	}
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}

	var value any
	if err := json.Unmarshal(params, &value); err != nil {
		return fmt.Errorf("tool parameters are not valid JSON: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("tool parameters invalid: %w", err)
	}
	return nil
}
