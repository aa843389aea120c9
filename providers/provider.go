// Package providers holds the provider registry and re-exports the core
// types a provider implementation needs.
//
// Each provider lives in its own subpackage (providers/venice) and
// implements core.Provider. Importing the subpackage registers it:
//
//	import _ "github.com/petal-labs/venice/providers/venice"
//
//	p, err := providers.Create("venice", providers.Settings{APIKey: key})
//
// # Concurrency
//
// Providers SHOULD be safe for concurrent calls. If a provider cannot be
// concurrent-safe, it MUST document this limitation.
//
// # Streaming
//
// StreamChat returns a *core.Stream and StreamChatAsync a *core.AsyncStream
// over the open response. Providers MUST:
//   - return a stream only after the response status is known to be 2xx
//   - hand the stream exclusive ownership of the response body
//   - translate setup failures with the same translator the stream uses
//
// The stream releases the body exactly once, on exhaustion, a fatal error
// or Close.
package providers

import "github.com/petal-labs/venice/core"

// Re-export core types for convenience.
type (
	Provider      = core.Provider
	Feature       = core.Feature
	ModelInfo     = core.ModelInfo
	ModelID       = core.ModelID
	ChatRequest   = core.ChatRequest
	ChatResponse  = core.ChatResponse
	ChatChunk     = core.ChatChunk
	Message       = core.Message
	Role          = core.Role
	TokenUsage    = core.TokenUsage
	ToolCall      = core.ToolCall
	ProviderError = core.ProviderError

	// ChatStream is the blocking chat stream returned by StreamChat.
	ChatStream = core.Stream[core.ChatChunk]

	// AsyncChatStream is the cooperative chat stream returned by
	// StreamChatAsync.
	AsyncChatStream = core.AsyncStream[core.ChatChunk]
)

// Re-export feature constants.
const (
	FeatureChat          = core.FeatureChat
	FeatureChatStreaming = core.FeatureChatStreaming
	FeatureToolCalling   = core.FeatureToolCalling
)

// Re-export role constants.
const (
	RoleSystem    = core.RoleSystem
	RoleUser      = core.RoleUser
	RoleAssistant = core.RoleAssistant
)

// Re-export sentinel errors.
var (
	ErrUnauthorized  = core.ErrUnauthorized
	ErrRateLimited   = core.ErrRateLimited
	ErrBadRequest    = core.ErrBadRequest
	ErrServer        = core.ErrServer
	ErrNetwork       = core.ErrNetwork
	ErrDecode        = core.ErrDecode
	ErrModelRequired = core.ErrModelRequired
	ErrNoMessages    = core.ErrNoMessages
)
