package core

import "time"

// TelemetryHook receives notifications about request lifecycle events.
// Implementations can use this for logging, metrics, tracing, etc.
//
// # Security Considerations
//
// Events carry operational metadata only: provider, model, operation,
// timing and token counts. API keys, prompts and model output are never
// included, so events can be logged or exported as-is. New fields must keep
// that property.
//
// Hooks are called synchronously on the request path and must not block.
type TelemetryHook interface {
	// OnRequestStart is called when a request to a provider begins.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called when a request to a provider completes.
	// For streams this is when the stream closes.
	OnRequestEnd(e RequestEndEvent)
}

// Operation names reported in telemetry events.
const (
	OpChat         = "chat"
	OpChatStream   = "chat_stream"
	OpEmbeddings   = "embeddings"
	OpImage        = "image"
	OpSpeech       = "speech"
	OpSpeechStream = "speech_stream"
)

// RequestStartEvent contains metadata about a starting request.
type RequestStartEvent struct {
	Provider  string    // Provider identifier (e.g., "venice")
	Model     ModelID   // Model being called
	Operation string    // One of the Op constants
	Start     time.Time // When the request started
}

// RequestEndEvent contains metadata about a completed request.
//
// Err is the typed error; hooks should report it through ErrorKind rather
// than its message, which may echo server-provided text.
type RequestEndEvent struct {
	Provider  string
	Model     ModelID
	Operation string
	Start     time.Time
	End       time.Time
	Usage     TokenUsage
	Chunks    int // streamed chunks delivered, 0 for unary calls
	Err       error
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

var _ TelemetryHook = NoopTelemetryHook{}

// MultiTelemetryHook fans events out to several hooks in order.
type MultiTelemetryHook []TelemetryHook

// OnRequestStart implements TelemetryHook.
func (m MultiTelemetryHook) OnRequestStart(e RequestStartEvent) {
	for _, h := range m {
		h.OnRequestStart(e)
	}
}

// OnRequestEnd implements TelemetryHook.
func (m MultiTelemetryHook) OnRequestEnd(e RequestEndEvent) {
	for _, h := range m {
		h.OnRequestEnd(e)
	}
}
