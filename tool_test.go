package bodhikit

import (
	"context"
	"errors"
	"testing"

	"github.com/sanghalabs/bodhikit/internal/testutil"
)

func TestToolBuilder_Basics(t *testing.T) {
	tool := NewTool("greet").
		WithDescription("Says hello").
		WithParameter("name", String().WithDescription("Who to greet").Required()).
		WithParameter("shout", Boolean()).
		WithHandler(func(_ context.Context, args map[string]any) (any, error) {
			return "hello " + args["name"].(string), nil
		}).
		Build()

	testutil.AssertEqual(t, tool.Name(), "greet")
	testutil.AssertEqual(t, tool.Description(), "Says hello")

	params := tool.Parameters()
	testutil.AssertEqual(t, params["type"], "object")
	props := params["properties"].(map[string]any)
	if _, ok := props["name"]; !ok {
		t.Error("expected 'name' property")
	}
	if _, ok := props["shout"]; !ok {
		t.Error("expected 'shout' property")
	}
	required := params["required"].([]string)
	if len(required) != 1 || required[0] != "name" {
		t.Errorf("expected only 'name' required, got %v", required)
	}
	testutil.AssertEqual(t, params["additionalProperties"], false)
}

func TestToolBuilder_NoParameters(t *testing.T) {
	tool := NewTool("ping").Build()
	params := tool.Parameters()
	testutil.AssertEqual(t, params["type"], "object")
	if _, ok := params["properties"]; !ok {
		t.Error("expected an empty properties object")
	}
}

func TestTool_Invoke(t *testing.T) {
	tool := NewTool("double").
		WithParameter("n", Number().Required()).
		WithHandler(func(_ context.Context, args map[string]any) (any, error) {
			return args["n"].(float64) * 2, nil
		}).
		Build()

	result, err := tool.Invoke(context.Background(), map[string]any{"n": 21.0})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, result, 42.0)
}

func TestTool_InvokeWithoutHandler(t *testing.T) {
	tool := NewTool("empty").Build()
	_, err := tool.Invoke(context.Background(), nil)
	testutil.AssertError(t, err)
}

func TestTool_InvokeNilArgs(t *testing.T) {
	tool := NewTool("count").
		WithHandler(func(_ context.Context, args map[string]any) (any, error) {
			if args == nil {
				return nil, errors.New("args must not be nil")
			}
			return len(args), nil
		}).
		Build()

	result, err := tool.Invoke(context.Background(), nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, result, 0)
}

func TestRenderResult(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		expect string
	}{
		{"nil", nil, "null"},
		{"string", "plain", "plain"},
		{"error", errors.New("bad"), "Error: bad"},
		{"map", map[string]any{"agent_id": "a1"}, `{"agent_id":"a1"}`},
		{"number", 7, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, RenderResult(tt.input), tt.expect)
		})
	}
}

func TestParameterSchema_ToMap(t *testing.T) {
	schema := String().
		WithDescription("the language").
		WithEnum("en", "vi").
		ToMap()

	testutil.AssertEqual(t, schema["type"], "string")
	testutil.AssertEqual(t, schema["description"], "the language")
	enum := schema["enum"].([]string)
	if len(enum) != 2 || enum[0] != "en" || enum[1] != "vi" {
		t.Errorf("unexpected enum: %v", enum)
	}
}

func TestParameterSchema_Array(t *testing.T) {
	schema := Array("string").ToMap()
	testutil.AssertEqual(t, schema["type"], "array")
	items := schema["items"].(map[string]any)
	testutil.AssertEqual(t, items["type"], "string")
}

func TestParameterSchema_ObjectWithNestedRequired(t *testing.T) {
	schema := Object().
		WithProperty("title", String().Required()).
		WithProperty("note", String()).
		ToMap()

	testutil.AssertEqual(t, schema["type"], "object")
	props := schema["properties"].(map[string]any)
	if len(props) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(props))
	}
	required := schema["required"].([]string)
	if len(required) != 1 || required[0] != "title" {
		t.Errorf("expected only 'title' required, got %v", required)
	}
	testutil.AssertEqual(t, schema["additionalProperties"], false)
}
