// Package core provides the Venice SDK client, the streaming core and the
// types shared by providers.
//
// # Client and Provider
//
// The primary entry point is [Client], which wraps a [Provider] and adds
// retries, telemetry and logging:
//
//	provider, err := venice.NewFromEnv()
//	if err != nil {
//	    return err
//	}
//	client := core.NewClient(provider,
//	    core.WithTelemetry(hook),
//	    core.WithLogger(logger),
//	)
//
// # ChatBuilder
//
// The [ChatBuilder] provides a fluent API for constructing chat requests:
//
//	resp, err := client.Chat("venice-uncensored").
//	    System("You are a helpful assistant.").
//	    User("Hello!").
//	    Temperature(0.7).
//	    GetResponse(ctx)
//
// ChatBuilder is NOT thread-safe. Use [ChatBuilder.Clone] to fork a base
// configuration across goroutines.
//
// # Streaming
//
// A streamed response is consumed through one of two iterator flavors with
// identical semantics:
//
//   - [Stream] blocks in Next until a chunk arrives.
//   - [AsyncStream] hands reads to a pump goroutine; Next takes a context
//     and can be abandoned without closing the stream.
//
// Both return io.EOF at the end of the stream. Any other error is fatal and
// closes the stream. The connection is released exactly once, whether the
// stream is exhausted, fails, or is closed by the caller:
//
//	stream, err := client.Chat(model).User("Tell me a story.").Stream(ctx)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for chunk, err := range stream.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(chunk.Text())
//	}
//
// Streams are assembled from a [Source] of raw units (lines for event
// streams, byte segments for audio) and a [Decoder]. [SSEDecoder] handles
// server-sent events with a configurable skip set and sentinel;
// [BytesDecoder] passes binary segments through.
//
// # Error Handling
//
// Failures are returned as *[ProviderError] wrapping a classification
// sentinel. Use errors.Is to check the kind:
//
//	if errors.Is(err, core.ErrRateLimited) {
//	    var pe *core.ProviderError
//	    if errors.As(err, &pe) && pe.RetryAfter != nil {
//	        time.Sleep(*pe.RetryAfter)
//	    }
//	}
//
// [HTTPTranslator] maps HTTP statuses to sentinels: 400/413/415/422 to
// [ErrBadRequest], 401 to [ErrUnauthorized], 403 to [ErrPermissionDenied],
// 404 to [ErrNotFound], 409 to [ErrConflict], 429 to [ErrRateLimited], 5xx
// to [ErrServer] and everything else to [ErrAPI]. Connection failures are
// [ErrNetwork] or [ErrTimeout]; malformed payloads are [ErrDecode].
//
// # Retry Policy
//
// The default policy retries 429, 500, 502, 503 and 504 responses and
// network failures twice, with exponential backoff from two seconds. A
// Retry-After hint replaces the computed delay:
//
//	client := core.NewClient(provider, core.WithRetryPolicy(core.NewRetryPolicy(core.RetryConfig{
//	    MaxRetries: 4,
//	    MaxDelay:   time.Minute,
//	})))
//
// # Thread Safety
//
// [Client] is safe for concurrent use across goroutines.
// [ChatBuilder] and [MessageBuilder] are NOT thread-safe.
// A stream must be advanced by one goroutine at a time; Close may be called
// from any goroutine.
package core
