package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorTranslator maps transport-level failures into typed errors.
// Implementations must be safe for concurrent use and must not block.
type ErrorTranslator interface {
	Translate(err error) error
}

// HTTPTranslator is the default ErrorTranslator. It classifies
// *TransportError values by status code, and connection or read failures
// as network or timeout errors.
type HTTPTranslator struct {
	// Provider prefixes rendered messages.
	Provider string

	// Now returns the reference time for Retry-After dates when the response
	// has no Date header. Defaults to time.Now.
	Now func() time.Time
}

// Translate implements ErrorTranslator.
func (t HTTPTranslator) Translate(err error) error {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	var te *TransportError
	if errors.As(err, &te) {
		return t.translateStatus(te)
	}

	// Caller cancellation is not a provider failure.
	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, ErrDecode) {
		return &ProviderError{
			Provider: t.Provider,
			Message:  err.Error(),
			Err:      ErrDecode,
			Cause:    err,
		}
	}

	sentinel := ErrNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		sentinel = ErrTimeout
	}
	return &ProviderError{
		Provider: t.Provider,
		Message:  err.Error(),
		Err:      sentinel,
		Cause:    err,
	}
}

func (t HTTPTranslator) translateStatus(te *TransportError) error {
	detail, code := parseErrorBody(te.StatusCode, te.Body)
	if detail == "" {
		detail = http.StatusText(te.StatusCode)
	}

	pe := &ProviderError{
		Provider:  t.Provider,
		Status:    te.StatusCode,
		RequestID: te.RequestID(),
		Code:      code,
		Message:   detail,
		Err:       SentinelForStatus(te.StatusCode),
	}

	if te.StatusCode == http.StatusTooManyRequests && te.Header != nil {
		now := time.Now
		if t.Now != nil {
			now = t.Now
		}
		if d, ok := ParseRetryAfter(te.Header.Get("Retry-After"), te.Header.Get("Date"), now()); ok {
			pe.RetryAfter = &d
		}
	}
	return pe
}

// SentinelForStatus maps an HTTP status code to a classification sentinel.
func SentinelForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest,
		status == http.StatusUnprocessableEntity,
		status == http.StatusRequestEntityTooLarge,
		status == http.StatusUnsupportedMediaType:
		return ErrBadRequest
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrPermissionDenied
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500 && status < 600:
		return ErrServer
	default:
		return ErrAPI
	}
}

// errorEnvelope matches {"error":{"message":"...","detail":"...","code":...}}
// as well as {"error":"..."}.
type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

type errorObject struct {
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Code    json.RawMessage `json:"code"`
}

// parseErrorBody extracts the human-readable detail and error code from a
// response body. Bodies that are not JSON objects are folded into the detail.
func parseErrorBody(status int, body []byte) (detail, code string) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", ""
	}

	var env errorEnvelope
	if body[0] != '{' || json.Unmarshal(body, &env) != nil {
		return fmt.Sprintf("Non-JSON response from API (status %d): %s", status, body), ""
	}
	if len(env.Error) == 0 {
		return "", ""
	}

	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return s, ""
	}

	var obj errorObject
	if err := json.Unmarshal(env.Error, &obj); err != nil {
		return "", ""
	}
	detail = obj.Message
	if detail == "" {
		detail = obj.Detail
	}
	return detail, rawCode(obj.Code)
}

// rawCode renders a JSON string or number code as text.
func rawCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// httpDateLayouts are the formats accepted for Retry-After dates. The last
// layout accepts zone-less dates, which are read as UTC.
var httpDateLayouts = []string{
	http.TimeFormat,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
	"Mon, 02 Jan 2006 15:04:05",
}

func parseHTTPDate(s string) (time.Time, bool) {
	for _, layout := range httpDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseRetryAfter parses a Retry-After header value. It accepts delta-seconds
// and HTTP-dates; dates are measured against responseDate (the response's
// Date header), or against now when responseDate is empty or unparseable.
// Dates in the past yield zero. It reports false for empty or malformed
// values.
func ParseRetryAfter(value, responseDate string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}

	at, ok := parseHTTPDate(value)
	if !ok {
		return 0, false
	}

	ref := now
	if rd, ok := parseHTTPDate(strings.TrimSpace(responseDate)); ok {
		ref = rd
	}

	delta := at.Sub(ref).Truncate(time.Second)
	if delta < 0 {
		delta = 0
	}
	return delta, true
}
