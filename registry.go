package bodhikit

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sanghalabs/bodhikit/providers"
)

// Registry is the fixed catalog of invocable operations. Registration is
// static at startup; lookup by name is O(1).
type Registry struct {
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register adds a tool to the catalog and compiles its argument schema.
// Registering the same name twice is a configuration bug and fails.
func (r *Registry) Register(t Tool) error {
	if t.Name() == "" {
		return fmt.Errorf("bodhikit: cannot register tool with empty name")
	}
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("bodhikit: tool %s already registered", t.Name())
	}

	raw, err := json.Marshal(t.Parameters())
	if err != nil {
		return fmt.Errorf("bodhikit: marshal schema for %s: %w", t.Name(), err)
	}
	schema, err := jsonschema.CompileString(t.Name()+".json", string(raw))
	if err != nil {
		return fmt.Errorf("bodhikit: compile schema for %s: %w", t.Name(), err)
	}

	r.tools[t.Name()] = t
	r.schemas[t.Name()] = schema
	return nil
}

// MustRegister registers a tool and panics on error. Intended for static
// startup wiring only.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the tool for the given name. A missing name yields a
// NotFoundError, fatal for that single operation only.
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return Tool{}, &NotFoundError{Resource: "tool", ID: name}
	}
	return t, nil
}

// ValidateArguments checks call arguments against the tool's compiled
// argument schema.
func (r *Registry) ValidateArguments(name string, args map[string]any) error {
	schema, ok := r.schemas[name]
	if !ok {
		return &NotFoundError{Resource: "tool", ID: name}
	}
	if args == nil {
		args = map[string]any{}
	}

	// Round-trip through JSON so the validator sees canonical types.
	raw, err := json.Marshal(args)
	if err != nil {
		return &ValidationError{Field: "arguments", Reason: err.Error()}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return &ValidationError{Field: "arguments", Reason: err.Error()}
	}
	if err := schema.Validate(decoded); err != nil {
		return &ValidationError{Field: "arguments", Reason: fmt.Sprintf("tool %s: %v", name, err)}
	}
	return nil
}

// Definitions returns provider tool definitions in deterministic order.
func (r *Registry) Definitions() []providers.ToolDefinition {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]providers.ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.tools[name].ToToolDefinition())
	}
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }
