package core

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Provider is the interface that inference providers must implement.
// Providers SHOULD be safe for concurrent calls.
type Provider interface {
	// ID returns the provider identifier (e.g., "venice").
	ID() string

	// Models returns the statically known models of this provider.
	Models() []ModelInfo

	// Supports reports whether the provider supports the given feature.
	Supports(feature Feature) bool

	// Chat sends a non-streaming chat request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// StreamChat sends a streaming chat request and returns a blocking stream.
	StreamChat(ctx context.Context, req *ChatRequest) (*Stream[ChatChunk], error)

	// StreamChatAsync sends a streaming chat request and returns a
	// cooperative stream.
	StreamChatAsync(ctx context.Context, req *ChatRequest) (*AsyncStream[ChatChunk], error)
}

// Client is the main entry point for interacting with a provider.
// It adds retries, telemetry and logging on top of the provider.
// Client is safe for concurrent use.
type Client struct {
	provider  Provider
	telemetry TelemetryHook
	retry     RetryPolicy
	log       *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new Client with the given provider and options.
func NewClient(p Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider:  p,
		telemetry: NoopTelemetryHook{},
		retry:     DefaultRetryPolicy(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTelemetry sets the telemetry hook for the client.
func WithTelemetry(h TelemetryHook) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.telemetry = h
		}
	}
}

// WithRetryPolicy sets the retry policy for the client.
func WithRetryPolicy(r RetryPolicy) ClientOption {
	return func(c *Client) {
		if r != nil {
			c.retry = r
		}
	}
}

// WithLogger sets the logger used for retry and lifecycle messages.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// Logger returns the client's logger.
func (c *Client) Logger() *zap.Logger {
	return c.log
}

// Chat returns a ChatBuilder for constructing and executing a chat request.
func (c *Client) Chat(model ModelID) *ChatBuilder {
	return &ChatBuilder{
		client: c,
		req:    ChatRequest{Model: model},
	}
}

// CreateEmbeddings generates embeddings through the provider, with retries
// and telemetry. It returns ErrNotSupported if the provider has no
// embeddings endpoint.
func (c *Client) CreateEmbeddings(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	ep, ok := c.provider.(EmbeddingProvider)
	if !ok {
		return nil, ErrNotSupported
	}
	if len(req.Input) == 0 {
		return nil, ErrNoInput
	}
	if req.Model == "" {
		return nil, ErrModelRequired
	}

	ev := c.start(OpEmbeddings, req.Model)
	resp, err := withRetry(ctx, c, OpEmbeddings, func(ctx context.Context) (*EmbeddingResponse, error) {
		return ep.CreateEmbeddings(ctx, req)
	})
	var usage TokenUsage
	if resp != nil {
		usage = TokenUsage{PromptTokens: resp.Usage.PromptTokens, TotalTokens: resp.Usage.TotalTokens}
	}
	c.end(ev, usage, 0, err)
	return resp, err
}

// GenerateImage generates images through the provider, with retries and
// telemetry.
func (c *Client) GenerateImage(ctx context.Context, req *ImageGenerateRequest) (*ImageResponse, error) {
	ig, ok := c.provider.(ImageGenerator)
	if !ok {
		return nil, ErrNotSupported
	}
	if req.Prompt == "" {
		return nil, ErrPromptRequired
	}
	if req.Model == "" {
		return nil, ErrModelRequired
	}

	ev := c.start(OpImage, req.Model)
	resp, err := withRetry(ctx, c, OpImage, func(ctx context.Context) (*ImageResponse, error) {
		return ig.GenerateImage(ctx, req)
	})
	c.end(ev, TokenUsage{}, 0, err)
	return resp, err
}

// CreateSpeech synthesizes speech and returns the whole audio body.
func (c *Client) CreateSpeech(ctx context.Context, req *SpeechRequest) ([]byte, error) {
	sp, ok := c.provider.(SpeechProvider)
	if !ok {
		return nil, ErrNotSupported
	}
	if req.Input == "" {
		return nil, ErrNoInput
	}

	ev := c.start(OpSpeech, req.Model)
	audio, err := withRetry(ctx, c, OpSpeech, func(ctx context.Context) ([]byte, error) {
		return sp.CreateSpeech(ctx, req)
	})
	c.end(ev, TokenUsage{}, 0, err)
	return audio, err
}

// StreamSpeech synthesizes speech and returns the audio as a stream of byte
// chunks. Only the connection setup is retried.
func (c *Client) StreamSpeech(ctx context.Context, req *SpeechRequest) (*Stream[[]byte], error) {
	sp, ok := c.provider.(SpeechProvider)
	if !ok {
		return nil, ErrNotSupported
	}
	if req.Input == "" {
		return nil, ErrNoInput
	}

	ev := c.start(OpSpeechStream, req.Model)
	stream, err := withRetry(ctx, c, OpSpeechStream, func(ctx context.Context) (*Stream[[]byte], error) {
		return sp.StreamSpeech(ctx, req)
	})
	if err != nil {
		c.end(ev, TokenUsage{}, 0, err)
		return nil, err
	}
	observe(stream, c, ev, nil)
	return stream, nil
}

func (c *Client) start(op string, model ModelID) RequestStartEvent {
	ev := RequestStartEvent{
		Provider:  c.provider.ID(),
		Model:     model,
		Operation: op,
		Start:     time.Now(),
	}
	c.telemetry.OnRequestStart(ev)
	return ev
}

func (c *Client) end(ev RequestStartEvent, usage TokenUsage, chunks int, err error) {
	c.telemetry.OnRequestEnd(RequestEndEvent{
		Provider:  ev.Provider,
		Model:     ev.Model,
		Operation: ev.Operation,
		Start:     ev.Start,
		End:       time.Now(),
		Usage:     usage,
		Chunks:    chunks,
		Err:       err,
	})
}

// withRetry runs call until it succeeds, the policy gives up, or ctx ends.
func withRetry[T any](ctx context.Context, c *Client, op string, call func(context.Context) (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		v, err := call(ctx)
		if err == nil {
			return v, nil
		}

		delay, ok := c.retry.NextDelay(attempt, err)
		if !ok {
			return v, err
		}
		c.log.Debug("retrying request",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.String("kind", ErrorKind(err)),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// observable is implemented by both stream flavors.
type observable[T any] interface {
	tap(fn func(T))
	onClose(fn func(error))
}

// observe reports the end event of a streamed request when the stream
// closes. usage extracts token counts from a chunk and may be nil.
// Close may run on another goroutine than Next, hence the atomics.
func observe[T any](s observable[T], c *Client, ev RequestStartEvent, usage func(T) *TokenUsage) {
	var (
		chunks atomic.Int64
		last   atomic.Pointer[TokenUsage]
	)
	s.tap(func(v T) {
		chunks.Add(1)
		if usage != nil {
			if u := usage(v); u != nil {
				cp := *u
				last.Store(&cp)
			}
		}
	})
	s.onClose(func(cause error) {
		var u TokenUsage
		if p := last.Load(); p != nil {
			u = *p
		}
		c.end(ev, u, int(chunks.Load()), cause)
	})
}

func chatUsage(c ChatChunk) *TokenUsage { return c.Usage }
