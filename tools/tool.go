// Package tools defines callable tools for Venice function calling and a
// registry that executes the tool calls a chat response asks for.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is a function the model may call.
//
// Any Tool also satisfies core.Tool, so it can be passed to
// ChatBuilder.Tools; the provider sends Schema as the function parameters.
type Tool interface {
	Name() string
	Description() string

	// Schema describes the arguments Call accepts.
	Schema() ToolSchema

	// Call runs the tool with the raw JSON arguments from the model.
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// ToolSchema holds a JSON Schema object, e.g.
// {"type":"object","properties":{"city":{"type":"string"}}}.
type ToolSchema struct {
	JSONSchema json.RawMessage `json:"json_schema"`
}

// Func adapts a typed function into a Tool. Arguments are decoded into A
// before fn runs.
//
//	weather := tools.NewFunc("get_weather", "Current weather for a city", schema,
//	    func(ctx context.Context, a WeatherArgs) (any, error) { ... })
type Func[A any] struct {
	name        string
	description string
	schema      json.RawMessage
	fn          func(ctx context.Context, args A) (any, error)
}

// NewFunc returns a Func tool. A nil schema is sent as an empty object
// schema.
func NewFunc[A any](name, description string, schema json.RawMessage, fn func(ctx context.Context, args A) (any, error)) *Func[A] {
	return &Func[A]{name: name, description: description, schema: schema, fn: fn}
}

func (f *Func[A]) Name() string        { return f.name }
func (f *Func[A]) Description() string { return f.description }
func (f *Func[A]) Schema() ToolSchema  { return ToolSchema{JSONSchema: f.schema} }

// Call decodes args into A and invokes the function.
func (f *Func[A]) Call(ctx context.Context, args json.RawMessage) (any, error) {
	var a A
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", f.name, ErrInvalidArguments, err)
		}
	}
	return f.fn(ctx, a)
}
