package core

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryPolicy determines retry behavior for failed requests.
type RetryPolicy interface {
	// NextDelay returns the delay before the next retry attempt and whether to retry.
	// If ok is false, no more retries should be attempted.
	// attempt starts at 0 for the first retry after the initial failure.
	NextDelay(attempt int, err error) (delay time.Duration, ok bool)
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts (default: 2)
	BaseDelay  time.Duration // Delay before the first retry (default: 2s)
	MaxDelay   time.Duration // Maximum delay cap (default: 30s)
	Jitter     float64       // Jitter factor 0.0-1.0 (default: 0.2)

	// IgnoreRetryAfter disables honoring the server's Retry-After hint.
	IgnoreRetryAfter bool
}

// DefaultRetryPolicy returns the policy used when none is configured:
// two retries with exponential backoff from 2s, honoring Retry-After.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(RetryConfig{Jitter: 0.2})
}

// NoRetry is a policy that never retries.
var NoRetry RetryPolicy = noRetry{}

type noRetry struct{}

func (noRetry) NextDelay(int, error) (time.Duration, bool) { return 0, false }

// NewRetryPolicy creates a retry policy with the given configuration.
// Zero durations and retry counts take their defaults; a zero Jitter
// disables jitter.
func NewRetryPolicy(cfg RetryConfig) RetryPolicy {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = 0.2
	}
	return &exponentialBackoff{cfg: cfg}
}

type exponentialBackoff struct {
	cfg RetryConfig
}

func (e *exponentialBackoff) NextDelay(attempt int, err error) (time.Duration, bool) {
	if attempt >= e.cfg.MaxRetries {
		return 0, false
	}
	if !isRetryable(err) {
		return 0, false
	}

	// A server hint replaces the computed backoff.
	if !e.cfg.IgnoreRetryAfter {
		var pe *ProviderError
		if errors.As(err, &pe) && pe.RetryAfter != nil {
			return min(*pe.RetryAfter, e.cfg.MaxDelay), true
		}
	}

	delay := float64(e.cfg.BaseDelay) * math.Pow(2, float64(attempt))

	if e.cfg.Jitter > 0 {
		jitterRange := delay * e.cfg.Jitter
		delay += (rand.Float64()*2 - 1) * jitterRange
	}

	if delay > float64(e.cfg.MaxDelay) {
		delay = float64(e.cfg.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay), true
}

// retryableStatus lists the statuses worth another attempt.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// isRetryable determines if an error should trigger a retry. Transport
// timeouts are retried; an expired caller deadline is not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) && pe.Status != 0 {
		return retryableStatus[pe.Status]
	}

	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServer)
}
