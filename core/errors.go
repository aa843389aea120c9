package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ProviderError represents an error returned by a provider with full context.
type ProviderError struct {
	Provider  string
	Status    int
	RequestID string
	Code      string
	Message   string

	// RetryAfter is the server's retry hint for rate-limit errors.
	// Nil when the response carried no hint or the hint was unparseable.
	RetryAfter *time.Duration

	// Err is the classification sentinel (ErrRateLimited, ErrServer, ...).
	Err error

	// Cause is the underlying transport or decode error, if any.
	Cause error
}

// Error implements the error interface.
//
// Status errors render as "venice: HTTP Status 429: slow down (Code: RATE_LIMITED)".
func (e *ProviderError) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}

	if e.Status != 0 {
		if e.Err == ErrAPI && e.Status >= 400 && e.Status < 500 {
			b.WriteString("Unhandled 4xx error: ")
		}
		fmt.Fprintf(&b, "HTTP Status %d", e.Status)
		if e.Message != "" {
			b.WriteString(": ")
			b.WriteString(e.Message)
		}
	} else {
		b.WriteString(e.Message)
	}

	if e.Code != "" {
		fmt.Fprintf(&b, " (Code: %s)", e.Code)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " [request_id=%s]", e.RequestID)
	}
	return b.String()
}

// Unwrap returns the classification sentinel and, when present, the cause.
func (e *ProviderError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Sentinel errors for classification.
var (
	ErrBadRequest       = errors.New("invalid request")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrRateLimited      = errors.New("rate limited")
	ErrServer           = errors.New("server error")
	ErrAPI              = errors.New("api error")
	ErrNetwork          = errors.New("network error")
	ErrTimeout          = errors.New("request timed out")
	ErrDecode           = errors.New("decode error")
	ErrNotSupported     = errors.New("operation not supported")
)

// Validation errors with actionable guidance.
var (
	ErrModelRequired  = errors.New("model required: pass a model ID to Client.Chat(), e.g., client.Chat(\"venice-uncensored\")")
	ErrNoMessages     = errors.New("no messages: add at least one message using .System(), .User(), or .Assistant()")
	ErrNoInput        = errors.New("no input: embeddings require at least one input text")
	ErrPromptRequired = errors.New("prompt required")
)

// TransportError is a raw HTTP failure that has not been translated yet.
// It is produced when a response carries a non-success status, or when an
// event stream delivers an inline error event.
type TransportError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return "error event in stream"
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// RequestID returns the request identifier the server attached, if any.
func (e *TransportError) RequestID() string {
	if e.Header == nil {
		return ""
	}
	for _, key := range []string{"x-request-id", "cf-ray"} {
		if id := e.Header.Get(key); id != "" {
			return id
		}
	}
	return ""
}

var errorKinds = []struct {
	sentinel error
	kind     string
}{
	{ErrBadRequest, "bad_request"},
	{ErrUnauthorized, "unauthorized"},
	{ErrPermissionDenied, "permission_denied"},
	{ErrNotFound, "not_found"},
	{ErrConflict, "conflict"},
	{ErrRateLimited, "rate_limited"},
	{ErrServer, "server"},
	{ErrAPI, "api"},
	{ErrTimeout, "timeout"},
	{ErrNetwork, "network"},
	{ErrDecode, "decode"},
	{ErrNotSupported, "not_supported"},
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "timeout"},
}

// ErrorKind returns a short, stable label for err's classification, suitable
// as a metric label or span attribute. It returns "" for nil and "unknown"
// for unclassified errors.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return "unknown"
}
