// Package normalize provides shared provider error normalization helpers.
package normalize

import (
	"context"
	"errors"
	"net/http"

	"github.com/petal-labs/venice/core"
)

// Translator returns the error translator used by a provider's streams and
// request path. Statuses listed in overrides map to the given sentinel
// instead of the default classification.
func Translator(provider string, overrides map[int]error) core.ErrorTranslator {
	base := core.HTTPTranslator{Provider: provider}
	if len(overrides) == 0 {
		return base
	}
	return overrideTranslator{base: base, overrides: overrides}
}

type overrideTranslator struct {
	base      core.HTTPTranslator
	overrides map[int]error
}

func (t overrideTranslator) Translate(err error) error {
	err = t.base.Translate(err)
	var pe *core.ProviderError
	if errors.As(err, &pe) && pe.Status != 0 {
		if s := t.overrides[pe.Status]; s != nil {
			cp := *pe
			cp.Err = s
			return &cp
		}
	}
	return err
}

// StatusError turns a non-success response into a typed error. body is the
// already-read response body.
func StatusError(t core.ErrorTranslator, resp *http.Response, body []byte) error {
	return t.Translate(&core.TransportError{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	})
}

// NetworkError wraps transport failures as provider-specific network or
// timeout errors. Caller cancellation passes through unchanged.
func NetworkError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return core.HTTPTranslator{Provider: provider}.Translate(err)
}

// DecodeError wraps decode/parsing failures as provider-specific decode errors.
func DecodeError(provider string, err error) error {
	return &core.ProviderError{
		Provider: provider,
		Message:  err.Error(),
		Err:      core.ErrDecode,
		Cause:    err,
	}
}
