package venice

import (
	"encoding/json"

	"github.com/petal-labs/venice/core"
)

// chatRequest is the body of POST chat/completions.
type chatRequest struct {
	Model          string                 `json:"model"`
	Messages       []chatMessage          `json:"messages"`
	Temperature    *float32               `json:"temperature,omitempty"`
	TopP           *float32               `json:"top_p,omitempty"`
	MaxTokens      *int                   `json:"max_tokens,omitempty"`
	Seed           *int                   `json:"seed,omitempty"`
	Stop           []string               `json:"stop,omitempty"`
	Tools          []chatTool             `json:"tools,omitempty"`
	ToolChoice     any                    `json:"tool_choice,omitempty"`
	User           string                 `json:"user,omitempty"`
	ResponseFormat *core.ResponseFormat   `json:"response_format,omitempty"`
	Venice         *core.VeniceParameters `json:"venice_parameters,omitempty"`
	Stream         bool                   `json:"stream,omitempty"`
	StreamOptions  *streamOptions         `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// chatMessage is a message on the wire. Content is a string, a list of
// contentPart, or nil for assistant turns that only carry tool calls.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    any            `json:"content,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`
}

type chatFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// chatResponse is the body of a non-streaming chat completion.
type chatResponse struct {
	ID               string            `json:"id"`
	Object           string            `json:"object"`
	Created          int64             `json:"created"`
	Model            string            `json:"model"`
	Choices          []chatChoice      `json:"choices"`
	Usage            *core.TokenUsage  `json:"usage,omitempty"`
	VeniceParameters *veniceParamsResp `json:"venice_parameters,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatRespMsg `json:"message"`
	FinishReason *string     `json:"finish_reason,omitempty"`
}

type chatRespMsg struct {
	Role             string         `json:"role"`
	Content          string         `json:"content"`
	ReasoningContent string         `json:"reasoning_content,omitempty"`
	ToolCalls        []chatToolCall `json:"tool_calls,omitempty"`
}

// veniceParamsResp echoes the Venice parameters applied to a request.
type veniceParamsResp struct {
	EnableWebSearch    string             `json:"enable_web_search"`
	CharacterSlug      string             `json:"character_slug,omitempty"`
	WebSearchCitations []core.WebCitation `json:"web_search_citations,omitempty"`
}
