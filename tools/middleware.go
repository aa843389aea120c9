package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ToolCallFunc is the function signature for tool execution.
type ToolCallFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Middleware wraps a ToolCallFunc to add behavior before and/or after
// execution.
type Middleware func(next ToolCallFunc) ToolCallFunc

// ToolContext describes the call in progress. The registry stores it in
// the context so middleware can tell calls apart.
type ToolContext struct {
	ToolName string
	CallID   string
}

type toolContextKey struct{}

// ContextWithToolContext adds ToolContext to a context.
func ContextWithToolContext(ctx context.Context, tc *ToolContext) context.Context {
	return context.WithValue(ctx, toolContextKey{}, tc)
}

// ToolContextFromContext retrieves ToolContext from a context, or nil.
func ToolContextFromContext(ctx context.Context) *ToolContext {
	tc, _ := ctx.Value(toolContextKey{}).(*ToolContext)
	return tc
}

// Chain combines middleware; the first is outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// ApplyMiddleware wraps a tool with middleware.
func ApplyMiddleware(tool Tool, middlewares ...Middleware) Tool {
	if len(middlewares) == 0 {
		return tool
	}
	return &wrappedTool{
		tool:    tool,
		wrapped: Chain(middlewares...)(tool.Call),
	}
}

type wrappedTool struct {
	tool    Tool
	wrapped ToolCallFunc
}

func (w *wrappedTool) Name() string        { return w.tool.Name() }
func (w *wrappedTool) Description() string { return w.tool.Description() }
func (w *wrappedTool) Schema() ToolSchema  { return w.tool.Schema() }

func (w *wrappedTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	if ToolContextFromContext(ctx) == nil {
		ctx = ContextWithToolContext(ctx, &ToolContext{ToolName: w.tool.Name()})
	}
	return w.wrapped(ctx, args)
}

// WithLogging logs each call's outcome and duration at debug level, and
// failures at warn. Arguments and results are not logged.
func WithLogging(logger *zap.Logger) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			fields := []zap.Field{}
			if tc := ToolContextFromContext(ctx); tc != nil {
				fields = append(fields, zap.String("tool", tc.ToolName))
				if tc.CallID != "" {
					fields = append(fields, zap.String("call_id", tc.CallID))
				}
			}

			start := time.Now()
			result, err := next(ctx, args)
			fields = append(fields, zap.Duration("elapsed", time.Since(start)))

			if err != nil {
				logger.Warn("tool call failed", append(fields, zap.Error(err))...)
			} else {
				logger.Debug("tool call", fields...)
			}
			return result, err
		}
	}
}

// WithTimeout bounds each call. A tool that ignores its context is
// abandoned when the deadline passes.
func WithTimeout(d time.Duration) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			type result struct {
				value any
				err   error
			}
			ch := make(chan result, 1)
			go func() {
				v, err := next(ctx, args)
				ch <- result{v, err}
			}()

			select {
			case r := <-ch:
				return r.value, r.err
			case <-ctx.Done():
				return nil, fmt.Errorf("tool execution timeout after %v: %w", d, ctx.Err())
			}
		}
	}
}

// WithRateLimit makes calls wait for the limiter. Tools that hit external
// APIs can share one limiter.
func WithRateLimit(limiter *rate.Limiter) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
			return next(ctx, args)
		}
	}
}

// WithRecover turns a panicking tool into an error result.
func WithRecover() Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (result any, err error) {
			defer func() {
				if p := recover(); p != nil {
					result, err = nil, fmt.Errorf("tool panicked: %v", p)
				}
			}()
			return next(ctx, args)
		}
	}
}
