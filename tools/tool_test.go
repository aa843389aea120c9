package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/tools"
)

// mockTool is a test implementation of the Tool interface.
type mockTool struct {
	name        string
	description string
	schema      tools.ToolSchema
	callFn      func(ctx context.Context, args json.RawMessage) (any, error)
}

func (m *mockTool) Name() string             { return m.name }
func (m *mockTool) Description() string      { return m.description }
func (m *mockTool) Schema() tools.ToolSchema { return m.schema }
func (m *mockTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	return m.callFn(ctx, args)
}

func newMockTool(name string, fn func(ctx context.Context, args json.RawMessage) (any, error)) *mockTool {
	if fn == nil {
		fn = func(context.Context, json.RawMessage) (any, error) { return name, nil }
	}
	return &mockTool{
		name:        name,
		description: name + " tool",
		schema:      tools.ToolSchema{JSONSchema: json.RawMessage(`{"type":"object"}`)},
		callFn:      fn,
	}
}

var _ core.Tool = (*mockTool)(nil)

type cityArgs struct {
	City string `json:"city"`
}

func TestFunc(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}}}`)
	weather := tools.NewFunc("get_weather", "Current weather", schema,
		func(ctx context.Context, a cityArgs) (any, error) {
			return "sunny in " + a.City, nil
		})

	var _ core.Tool = weather
	if weather.Name() != "get_weather" || weather.Description() != "Current weather" {
		t.Errorf("Name/Description = %q/%q", weather.Name(), weather.Description())
	}
	if string(weather.Schema().JSONSchema) != string(schema) {
		t.Errorf("Schema() = %s, want %s", weather.Schema().JSONSchema, schema)
	}

	got, err := weather.Call(context.Background(), json.RawMessage(`{"city":"Oslo"}`))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != "sunny in Oslo" {
		t.Errorf("Call() = %v, want sunny in Oslo", got)
	}

	if got, _ := weather.Call(context.Background(), nil); got != "sunny in " {
		t.Errorf("Call(nil) = %v, want zero args", got)
	}

	_, err = weather.Call(context.Background(), json.RawMessage(`{"city":`))
	if !errors.Is(err, tools.ErrInvalidArguments) {
		t.Errorf("Call(bad json) error = %v, want ErrInvalidArguments", err)
	}
}
