package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Signal classifies the outcome of decoding one raw unit.
type Signal int

const (
	// SignalChunk means the unit decoded to a chunk.
	SignalChunk Signal = iota
	// SignalSkip means the unit carried no data (keep-alive, comment, other field).
	SignalSkip
	// SignalEnd means the unit was the stream termination sentinel.
	SignalEnd
)

// String returns the signal name.
func (s Signal) String() string {
	switch s {
	case SignalChunk:
		return "chunk"
	case SignalSkip:
		return "skip"
	case SignalEnd:
		return "end"
	default:
		return fmt.Sprintf("Signal(%d)", int(s))
	}
}

// Decoder turns one raw transport unit into a chunk.
// Decode must not retain unit after returning.
type Decoder[T any] interface {
	Decode(unit []byte) (T, Signal, error)
}

// DefaultSSESentinel terminates Venice event streams.
const DefaultSSESentinel = "[DONE]"

// DefaultSSESkipPrefixes lists line prefixes that never carry payload:
// comments and the SSE fields other than data.
var DefaultSSESkipPrefixes = []string{":", "event:", "id:", "retry:"}

var dataPrefix = []byte("data:")

// SSEDecoder decodes text/event-stream lines whose data payload is JSON.
// The zero value is not usable; use NewSSEDecoder.
type SSEDecoder[T any] struct {
	skipPrefixes [][]byte
	sentinel     []byte
}

// SSEOption configures an SSEDecoder.
type SSEOption func(*sseConfig)

type sseConfig struct {
	skipPrefixes []string
	sentinel     string
}

// WithSkipPrefixes replaces the set of line prefixes treated as non-data.
func WithSkipPrefixes(prefixes ...string) SSEOption {
	return func(c *sseConfig) {
		c.skipPrefixes = prefixes
	}
}

// WithSentinel sets the data payload that terminates the stream.
func WithSentinel(s string) SSEOption {
	return func(c *sseConfig) {
		c.sentinel = s
	}
}

// NewSSEDecoder creates an SSE decoder producing chunks of type T.
func NewSSEDecoder[T any](opts ...SSEOption) *SSEDecoder[T] {
	cfg := sseConfig{
		skipPrefixes: DefaultSSESkipPrefixes,
		sentinel:     DefaultSSESentinel,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &SSEDecoder[T]{sentinel: []byte(cfg.sentinel)}
	for _, p := range cfg.skipPrefixes {
		if p != "" {
			d.skipPrefixes = append(d.skipPrefixes, []byte(p))
		}
	}
	return d
}

// Decode implements Decoder.
func (d *SSEDecoder[T]) Decode(unit []byte) (T, Signal, error) {
	var zero T

	line := bytes.TrimSpace(unit)
	if len(line) == 0 {
		return zero, SignalSkip, nil
	}
	for _, p := range d.skipPrefixes {
		if bytes.HasPrefix(line, p) {
			return zero, SignalSkip, nil
		}
	}
	if !bytes.HasPrefix(line, dataPrefix) {
		return zero, SignalSkip, nil
	}

	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if len(payload) == 0 {
		return zero, SignalSkip, nil
	}
	if len(d.sentinel) > 0 && bytes.Equal(payload, d.sentinel) {
		return zero, SignalEnd, nil
	}

	if te := inlineError(payload); te != nil {
		return zero, SignalChunk, te
	}

	var chunk T
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return zero, SignalChunk, fmt.Errorf("%w: malformed event payload: %w", ErrDecode, err)
	}
	return chunk, SignalChunk, nil
}

// inlineError reports an error event embedded in the stream as a
// TransportError, so it is classified like a status failure.
func inlineError(payload []byte) *TransportError {
	if payload[0] != '{' || !bytes.Contains(payload, []byte(`"error"`)) {
		return nil
	}

	var env struct {
		Error  json.RawMessage `json:"error"`
		Status int             `json:"status"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || len(env.Error) == 0 || string(env.Error) == "null" {
		return nil
	}

	status := env.Status
	if status == 0 {
		var obj struct {
			Status int             `json:"status"`
			Code   json.RawMessage `json:"code"`
		}
		if json.Unmarshal(env.Error, &obj) == nil {
			status = obj.Status
			var n int
			if status == 0 && json.Unmarshal(obj.Code, &n) == nil {
				status = n
			}
		}
	}
	if status < 400 || status > 599 {
		status = 0
	}

	body := make([]byte, len(payload))
	copy(body, payload)
	return &TransportError{
		StatusCode: status,
		Header:     http.Header{},
		Body:       body,
	}
}

// BytesDecoder passes binary segments through unchanged.
type BytesDecoder struct{}

// Decode implements Decoder. Empty segments are skipped; the returned slice
// is a copy owned by the caller.
func (BytesDecoder) Decode(unit []byte) ([]byte, Signal, error) {
	if len(unit) == 0 {
		return nil, SignalSkip, nil
	}
	out := make([]byte, len(unit))
	copy(out, unit)
	return out, SignalChunk, nil
}
