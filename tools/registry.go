package tools

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/venice/core"
)

var (
	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrToolNotFound is returned when a call names an unregistered tool.
	ErrToolNotFound = errors.New("tool not found")
)

// Registry manages a collection of tools indexed by name.
// Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	tools      map[string]Tool
	middleware []Middleware
}

// NewRegistry creates an empty registry. Middleware is applied to every
// tool registered afterwards, first middleware outermost.
func NewRegistry(mw ...Middleware) *Registry {
	return &Registry{
		tools:      make(map[string]Tool),
		middleware: mw,
	}
}

// Register adds tools to the registry. It stops at the first nil tool or
// duplicate name.
func (r *Registry) Register(ts ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range ts {
		if t == nil {
			return errors.New("tool cannot be nil")
		}
		name := t.Name()
		if _, exists := r.tools[name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		r.tools[name] = ApplyMiddleware(t, r.middleware...)
	}
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// List returns the registered tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		result = append(result, t)
	}
	slices.SortFunc(result, func(a, b Tool) int { return cmp.Compare(a.Name(), b.Name()) })
	return result
}

// Definitions returns the registered tools as core.Tool values for
// ChatBuilder.Tools.
func (r *Registry) Definitions() []core.Tool {
	list := r.List()
	out := make([]core.Tool, len(list))
	for i, t := range list {
		out[i] = t
	}
	return out
}

// Execute finds a tool by name and calls it with the given arguments.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (any, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}
	return tool.Call(ContextWithToolContext(ctx, &ToolContext{ToolName: name}), args)
}

// ExecuteAll runs the calls of a chat response, at most concurrency at a
// time (unlimited when <= 0), and returns one result per call in call
// order. A failing tool yields an error result rather than aborting the
// others, so the model can see what went wrong. Only context cancellation
// is returned as an error.
func (r *Registry) ExecuteAll(ctx context.Context, calls []core.ToolCall, concurrency int) ([]core.ToolResult, error) {
	results := make([]core.ToolResult, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, call := range calls {
		g.Go(func() error {
			tctx := ContextWithToolContext(gctx, &ToolContext{ToolName: call.Name, CallID: call.ID})
			v, err := r.call(tctx, call)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i] = core.ToolResult{CallID: call.ID, Content: err.Error(), IsError: true}
				return nil
			}
			results[i] = core.ToolResult{CallID: call.ID, Content: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Registry) call(ctx context.Context, call core.ToolCall) (any, error) {
	tool, ok := r.Get(call.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrToolNotFound, call.Name)
	}
	return tool.Call(ctx, call.Arguments)
}
