package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/petal-labs/venice/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitProvider   = 2
	ExitNetwork    = 3
)

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCode classifies err. Transport failures map to ExitNetwork, API
// errors to ExitProvider and everything else, usage errors included, to
// ExitValidation.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, core.ErrNetwork) || errors.Is(err, core.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return ExitNetwork
	}
	var provErr *core.ProviderError
	if errors.As(err, &provErr) {
		return ExitProvider
	}
	return ExitValidation
}

type errorBody struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Provider  string `json:"provider,omitempty"`
	Status    int    `json:"status,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// report prints err to the error stream, as JSON with --json, and returns
// it wrapped with its exit code.
func (a *App) report(err error) error {
	code := exitCode(err)
	body := errorBody{Type: core.ErrorKind(err), Message: err.Error()}
	if code == ExitValidation && body.Type == "unknown" {
		body.Type = "validation_error"
	}

	var provErr *core.ProviderError
	if errors.As(err, &provErr) {
		body.Provider = provErr.Provider
		body.Status = provErr.Status
		body.Code = provErr.Code
		body.RequestID = provErr.RequestID
		if provErr.Message != "" {
			body.Message = provErr.Message
		}
	}

	if a.jsonOutput {
		enc := jsonEncoder(a.stderr)
		_ = enc.Encode(map[string]errorBody{"error": body})
	} else {
		fmt.Fprintf(a.stderr, "Error: %s\n", body.Message)
		if body.RequestID != "" {
			fmt.Fprintf(a.stderr, "  Provider: %s, Request ID: %s\n", body.Provider, body.RequestID)
		}
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	return exitWithCode(code, err)
}
