package bodhikit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sanghalabs/bodhikit/providers"
)

// ToolHandler executes a tool with its decoded arguments.
type ToolHandler func(ctx context.Context, args map[string]any) (any, error)

// Tool is a named, schema-described operation the agent can invoke.
// Immutable after registration.
type Tool struct {
	name        string
	description string
	parameters  map[string]any
	handler     ToolHandler
}

// ToolBuilder constructs tools with a fluent API.
type ToolBuilder struct {
	tool Tool
}

// NewTool creates a new tool builder.
func NewTool(name string) *ToolBuilder {
	return &ToolBuilder{
		tool: Tool{
			name:       name,
			parameters: map[string]any{},
		},
	}
}

// WithDescription sets the tool description. It is shown verbatim in
// approval prompts, so keep it human-readable.
func (tb *ToolBuilder) WithDescription(desc string) *ToolBuilder {
	tb.tool.description = desc
	return tb
}

// WithParameter adds a parameter to the tool schema.
func (tb *ToolBuilder) WithParameter(name string, schema *ParameterSchema) *ToolBuilder {
	if tb.tool.parameters["properties"] == nil {
		tb.tool.parameters = map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"required":             []string{},
			"additionalProperties": false,
		}
	}

	props := tb.tool.parameters["properties"].(map[string]any)
	props[name] = schema.ToMap()

	if schema.required {
		required := tb.tool.parameters["required"].([]string)
		tb.tool.parameters["required"] = append(required, name)
	}

	return tb
}

// WithHandler sets the tool handler function.
func (tb *ToolBuilder) WithHandler(handler ToolHandler) *ToolBuilder {
	tb.tool.handler = handler
	return tb
}

// Build returns the constructed tool.
func (tb *ToolBuilder) Build() Tool {
	if len(tb.tool.parameters) == 0 {
		tb.tool.parameters = map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": false,
		}
	}
	return tb.tool
}

// Name returns the tool name.
func (t Tool) Name() string { return t.name }

// Description returns the human-readable tool description.
func (t Tool) Description() string { return t.description }

// Parameters returns the JSON-schema argument shape.
func (t Tool) Parameters() map[string]any { return t.parameters }

// ToToolDefinition converts the tool to a provider-agnostic definition.
func (t Tool) ToToolDefinition() providers.ToolDefinition {
	return providers.ToolDefinition{
		Name:        t.name,
		Description: t.description,
		Parameters:  t.parameters,
	}
}

// Invoke runs the tool handler directly with decoded arguments.
func (t Tool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	if t.handler == nil {
		return nil, fmt.Errorf("tool %s has no handler", t.name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return t.handler(ctx, args)
}

// RenderResult formats a tool result for the outbound stream.
func RenderResult(result any) string {
	if result == nil {
		return "null"
	}
	switch v := result.(type) {
	case string:
		return v
	case error:
		return fmt.Sprintf("Error: %v", v)
	default:
		if data, err := json.Marshal(result); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", result)
	}
}

// ParameterSchema defines a tool parameter schema.
type ParameterSchema struct {
	paramType   string
	description string
	required    bool
	enum        []string
	items       map[string]any
	properties  map[string]*ParameterSchema
}

// String creates a string parameter schema.
func String() *ParameterSchema {
	return &ParameterSchema{paramType: "string"}
}

// Number creates a number parameter schema.
func Number() *ParameterSchema {
	return &ParameterSchema{paramType: "number"}
}

// Integer creates an integer parameter schema.
func Integer() *ParameterSchema {
	return &ParameterSchema{paramType: "integer"}
}

// Boolean creates a boolean parameter schema.
func Boolean() *ParameterSchema {
	return &ParameterSchema{paramType: "boolean"}
}

// Array creates an array parameter schema with the given item type.
func Array(itemType string) *ParameterSchema {
	return &ParameterSchema{
		paramType: "array",
		items:     map[string]any{"type": itemType},
	}
}

// Object creates an object parameter schema.
func Object() *ParameterSchema {
	return &ParameterSchema{
		paramType:  "object",
		properties: map[string]*ParameterSchema{},
	}
}

// WithProperty adds a property to an object parameter schema.
func (ps *ParameterSchema) WithProperty(name string, schema *ParameterSchema) *ParameterSchema {
	if ps.properties == nil {
		ps.properties = map[string]*ParameterSchema{}
	}
	ps.properties[name] = schema
	return ps
}

// WithDescription sets the parameter description.
func (ps *ParameterSchema) WithDescription(desc string) *ParameterSchema {
	ps.description = desc
	return ps
}

// Required marks the parameter as required.
func (ps *ParameterSchema) Required() *ParameterSchema {
	ps.required = true
	return ps
}

// WithEnum sets allowed values for the parameter.
func (ps *ParameterSchema) WithEnum(values ...string) *ParameterSchema {
	ps.enum = values
	return ps
}

// ToMap converts the schema to a JSON-schema fragment.
func (ps *ParameterSchema) ToMap() map[string]any {
	m := map[string]any{
		"type": ps.paramType,
	}
	if ps.description != "" {
		m["description"] = ps.description
	}
	if len(ps.enum) > 0 {
		m["enum"] = ps.enum
	}
	if len(ps.items) > 0 {
		m["items"] = ps.items
	}
	if len(ps.properties) > 0 {
		props := make(map[string]any, len(ps.properties))
		required := make([]string, 0, len(ps.properties))
		for name, schema := range ps.properties {
			if schema == nil {
				continue
			}
			props[name] = schema.ToMap()
			if schema.required {
				required = append(required, name)
			}
		}
		m["properties"] = props
		if len(required) > 0 {
			m["required"] = required
		}
		m["additionalProperties"] = false
	}
	return m
}
