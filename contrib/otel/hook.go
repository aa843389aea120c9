// Package otel records Venice client requests as OpenTelemetry spans.
//
//	client := core.NewClient(provider, core.WithTelemetry(otel.NewHook(tp)))
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/venice/core"
)

// TracerName identifies the instrumentation scope.
const TracerName = "github.com/petal-labs/venice/contrib/otel"

// Hook is a core.TelemetryHook that emits one span per request. Spans are
// created when the request ends, with the recorded start time, so streams
// cover the time until they were closed.
type Hook struct {
	tracer trace.Tracer
}

var _ core.TelemetryHook = (*Hook)(nil)

// NewHook returns a hook that traces through tp.
func NewHook(tp trace.TracerProvider) *Hook {
	return &Hook{tracer: tp.Tracer(TracerName)}
}

// OnRequestStart implements core.TelemetryHook.
func (h *Hook) OnRequestStart(core.RequestStartEvent) {}

// OnRequestEnd implements core.TelemetryHook.
func (h *Hook) OnRequestEnd(e core.RequestEndEvent) {
	attrs := []attribute.KeyValue{
		attribute.String("gen_ai.system", e.Provider),
		attribute.String("gen_ai.operation.name", e.Operation),
	}
	if e.Model != "" {
		attrs = append(attrs, attribute.String("gen_ai.request.model", string(e.Model)))
	}
	if e.Usage.PromptTokens > 0 || e.Usage.CompletionTokens > 0 {
		attrs = append(attrs,
			attribute.Int("gen_ai.usage.input_tokens", e.Usage.PromptTokens),
			attribute.Int("gen_ai.usage.output_tokens", e.Usage.CompletionTokens),
		)
	}
	if e.Chunks > 0 {
		attrs = append(attrs, attribute.Int("venice.stream.chunks", e.Chunks))
	}

	name := e.Operation
	if e.Model != "" {
		name += " " + string(e.Model)
	}
	_, span := h.tracer.Start(context.Background(), name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(e.Start),
		trace.WithAttributes(attrs...),
	)

	if e.Err != nil {
		kind := core.ErrorKind(e.Err)
		span.SetAttributes(attribute.String("error.type", kind))
		span.SetStatus(codes.Error, kind)
	}
	span.End(trace.WithTimestamp(e.End))
}
