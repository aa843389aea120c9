package venice

import (
	"context"
	"maps"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/petal-labs/venice/core"
)

// Config holds configuration for the Venice provider.
type Config struct {
	// APIKey is the Venice API key (required).
	APIKey core.Secret

	// BaseURL is the API base URL. Defaults to https://api.venice.ai/api/v1
	BaseURL string

	// HTTPClient is the HTTP client to use. When nil, a client with
	// Timeout and ConnectTimeout applied to its transport is built.
	HTTPClient *http.Client

	// Headers contains optional extra headers to include in requests.
	Headers http.Header

	// Timeout bounds the wait for response headers. Streamed bodies are
	// not cut off by it.
	Timeout time.Duration

	// ConnectTimeout bounds TCP connection setup.
	ConnectTimeout time.Duration

	// Logger receives debug request logs and stream release failures.
	Logger *zap.Logger

	// Limiter, when set, is waited on before every request.
	Limiter RateLimiter

	// StatusOverrides maps HTTP statuses to sentinels, on top of
	// DefaultStatusOverrides. A nil sentinel restores the core
	// classification for that status. Ignored when Translator is set.
	StatusOverrides map[int]error

	// Translator maps HTTP failures to typed errors. Defaults to the
	// shared Venice translator with the status overrides applied.
	Translator core.ErrorTranslator
}

// RateLimiter paces outgoing requests. *rate.Limiter satisfies it.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

const (
	// DefaultBaseURL is the default Venice API base URL.
	DefaultBaseURL = "https://api.venice.ai/api/v1"

	// DefaultTimeout is the default response header timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultConnectTimeout is the default dial timeout.
	DefaultConnectTimeout = 5 * time.Second
)

// Option configures the Venice provider.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client. Timeout and ConnectTimeout are
// not applied to it.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithHeader adds an extra header to include in requests.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithTimeout sets the response header timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithConnectTimeout sets the dial timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ConnectTimeout = d
	}
}

// WithLogger sets the logger. A nil logger keeps the no-op default.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithRateLimit paces requests to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Config) {
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRateLimiter sets a custom limiter, e.g. one shared across providers.
func WithRateLimiter(l RateLimiter) Option {
	return func(c *Config) {
		c.Limiter = l
	}
}

// WithStatusOverrides classifies the given statuses with custom sentinels.
// Repeated calls merge.
//
//	venice.WithStatusOverrides(map[int]error{http.StatusServiceUnavailable: core.ErrRateLimited})
func WithStatusOverrides(overrides map[int]error) Option {
	return func(c *Config) {
		if c.StatusOverrides == nil {
			c.StatusOverrides = make(map[int]error, len(overrides))
		}
		maps.Copy(c.StatusOverrides, overrides)
	}
}

// WithTranslator replaces the error translator.
func WithTranslator(t core.ErrorTranslator) Option {
	return func(c *Config) {
		if t != nil {
			c.Translator = t
		}
	}
}
