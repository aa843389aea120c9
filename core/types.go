package core

import (
	"encoding/json"
	"strings"
)

// Feature represents a capability that a provider may support.
type Feature string

const (
	FeatureChat            Feature = "chat"
	FeatureChatStreaming   Feature = "chat_streaming"
	FeatureToolCalling     Feature = "tool_calling"
	FeatureReasoning       Feature = "reasoning"
	FeatureVision          Feature = "vision"
	FeatureWebSearch       Feature = "web_search"
	FeatureCharacters      Feature = "characters"
	FeatureEmbeddings      Feature = "embeddings"
	FeatureImageGeneration Feature = "image_generation"
	FeatureImageUpscale    Feature = "image_upscale"
	FeatureSpeech          Feature = "speech"
	FeatureSpeechStreaming Feature = "speech_streaming"
)

// ModelInfo describes a model available from a provider.
type ModelInfo struct {
	ID            ModelID   `json:"id"`
	DisplayName   string    `json:"display_name"`
	Type          string    `json:"type,omitempty"`
	ContextTokens int       `json:"context_tokens,omitempty"`
	Capabilities  []Feature `json:"capabilities"`
}

// HasCapability reports whether the model supports the given feature.
func (m ModelInfo) HasCapability(f Feature) bool {
	for _, c := range m.Capabilities {
		if c == f {
			return true
		}
	}
	return false
}

// ModelID is a string identifier for a model.
type ModelID string

// Role represents a message participant role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation.
// For simple text messages, use Content. For multimodal messages, use Parts.
// If Parts is non-empty, Content is ignored.
type Message struct {
	Role       Role          `json:"role"`
	Content    string        `json:"content,omitempty"`
	Parts      []ContentPart `json:"-"`
	Name       string        `json:"name,omitempty"`
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"` // RoleTool only
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolCall represents a tool invocation requested by the model.
// Arguments holds the model's argument object as valid JSON. Its value
// survives encoding unchanged; whitespace does not, since encoding/json
// compacts raw messages.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult represents the outcome of executing a tool.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Content any    `json:"content"`
	IsError bool   `json:"is_error"`
}

// ToolResultBuilder provides a fluent API for constructing tool results.
type ToolResultBuilder struct {
	results []ToolResult
}

// NewToolResults creates a new builder for tool results.
func NewToolResults() *ToolResultBuilder {
	return &ToolResultBuilder{}
}

// Success adds a successful tool result.
func (b *ToolResultBuilder) Success(callID string, content any) *ToolResultBuilder {
	b.results = append(b.results, ToolResult{CallID: callID, Content: content})
	return b
}

// Error adds a failed tool result.
func (b *ToolResultBuilder) Error(callID string, err error) *ToolResultBuilder {
	b.results = append(b.results, ToolResult{CallID: callID, Content: err.Error(), IsError: true})
	return b
}

// FromExecution adds a result from a tool execution, handling both success and error cases.
func (b *ToolResultBuilder) FromExecution(callID string, result any, err error) *ToolResultBuilder {
	if err != nil {
		return b.Error(callID, err)
	}
	return b.Success(callID, result)
}

// Build returns the accumulated results.
func (b *ToolResultBuilder) Build() []ToolResult {
	return b.results
}

// Tool is the minimal tool definition a chat request carries.
// The tools package provides the full interface with a schema and Call.
type Tool interface {
	Name() string
	Description() string
}

// WebSearchMode controls Venice's web search augmentation.
type WebSearchMode string

const (
	WebSearchOff  WebSearchMode = "off"
	WebSearchOn   WebSearchMode = "on"
	WebSearchAuto WebSearchMode = "auto"
)

// VeniceParameters are the Venice-specific chat options sent as
// "venice_parameters". Nil pointers are omitted and take the server default.
type VeniceParameters struct {
	CharacterSlug                string        `json:"character_slug,omitempty"`
	EnableWebSearch              WebSearchMode `json:"enable_web_search,omitempty"`
	EnableWebCitations           *bool         `json:"enable_web_citations,omitempty"`
	IncludeSearchResultsInStream *bool         `json:"include_search_results_in_stream,omitempty"`
	IncludeVeniceSystemPrompt    *bool         `json:"include_venice_system_prompt,omitempty"`
	StripThinkingResponse        *bool         `json:"strip_thinking_response,omitempty"`
	DisableThinking              *bool         `json:"disable_thinking,omitempty"`
}

// ResponseFormat constrains the model output to JSON.
type ResponseFormat struct {
	Type       string          `json:"type"` // "json_object" or "json_schema"
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// ChatRequest represents a request to a chat model.
type ChatRequest struct {
	Model       ModelID   `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
	TopP        *float32  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Seed        *int      `json:"seed,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
	Tools       []Tool    `json:"-"` // mapped by the provider
	ToolChoice  string    `json:"tool_choice,omitempty"`
	User        string    `json:"user,omitempty"`

	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`
	Venice         *VeniceParameters `json:"venice_parameters,omitempty"`
}

// WebCitation is a web source the model cited when web search was enabled.
type WebCitation struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content,omitempty"`
	Date    string `json:"date,omitempty"`
}

// ChatResponse represents a response from a chat model.
// Only the first choice is surfaced.
type ChatResponse struct {
	ID           string        `json:"id"`
	Model        ModelID       `json:"model"`
	Output       string        `json:"output"`
	Reasoning    string        `json:"reasoning,omitempty"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Usage        TokenUsage    `json:"usage"`
	ToolCalls    []ToolCall    `json:"tool_calls,omitempty"`
	Citations    []WebCitation `json:"citations,omitempty"`
}

// HasToolCalls reports whether the response contains any tool calls.
func (r *ChatResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// FirstToolCall returns the first tool call, or nil if there are none.
//
//	if tc := resp.FirstToolCall(); tc != nil {
//	    // handle tool call
//	}
func (r *ChatResponse) FirstToolCall() *ToolCall {
	if len(r.ToolCalls) > 0 {
		return &r.ToolCalls[0]
	}
	return nil
}

// HasReasoning reports whether the model returned separate reasoning content.
func (r *ChatResponse) HasReasoning() bool {
	return r.Reasoning != ""
}

// ChatChunk is one decoded chat completion stream event. Its shape matches
// the wire format, so it decodes directly from the event payload.
type ChatChunk struct {
	ID      string        `json:"id"`
	Model   ModelID       `json:"model"`
	Created int64         `json:"created"`
	Choices []ChunkChoice `json:"choices"`
	Usage   *TokenUsage   `json:"usage,omitempty"`
}

// ChunkChoice is the per-choice part of a ChatChunk.
type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason,omitempty"`
}

// ChunkDelta holds the incremental assistant output of one choice.
type ChunkDelta struct {
	Role             Role            `json:"role,omitempty"`
	Content          string          `json:"content,omitempty"`
	ReasoningContent string          `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta is a fragment of a streamed tool call. Fragments with the
// same Index belong to the same call; Arguments arrive in pieces.
type ToolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}

// Text returns the content delta of the first choice.
func (c ChatChunk) Text() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

// FinishReason returns the finish reason of the first choice, if it was sent.
func (c ChatChunk) FinishReason() string {
	if len(c.Choices) == 0 || c.Choices[0].FinishReason == nil {
		return ""
	}
	return *c.Choices[0].FinishReason
}

// JoinText concatenates the text of chunks, e.g. those collected by a test
// or a simple caller.
func JoinText(chunks []ChatChunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text())
	}
	return b.String()
}
