package core

import (
	"context"
	"encoding/json"
	"slices"
)

// ChatBuilder provides a fluent API for building chat requests.
// ChatBuilder is NOT thread-safe; use Clone to share a base configuration.
type ChatBuilder struct {
	client *Client
	req    ChatRequest
}

// Clone returns an independent copy of the builder.
func (b *ChatBuilder) Clone() *ChatBuilder {
	cp := &ChatBuilder{client: b.client, req: b.req}
	cp.req.Messages = slices.Clone(b.req.Messages)
	cp.req.Tools = slices.Clone(b.req.Tools)
	cp.req.Stop = slices.Clone(b.req.Stop)
	if b.req.Venice != nil {
		v := *b.req.Venice
		cp.req.Venice = &v
	}
	return cp
}

// Request returns a copy of the request built so far.
func (b *ChatBuilder) Request() ChatRequest {
	return b.Clone().req
}

// System appends a system message.
func (b *ChatBuilder) System(s string) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, Message{Role: RoleSystem, Content: s})
	return b
}

// User appends a user message.
func (b *ChatBuilder) User(s string) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, Message{Role: RoleUser, Content: s})
	return b
}

// Assistant appends an assistant message.
func (b *ChatBuilder) Assistant(s string) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, Message{Role: RoleAssistant, Content: s})
	return b
}

// Messages appends prepared messages, e.g. a conversation history.
func (b *ChatBuilder) Messages(msgs ...Message) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, msgs...)
	return b
}

// Temperature sets the temperature parameter.
func (b *ChatBuilder) Temperature(v float32) *ChatBuilder {
	b.req.Temperature = &v
	return b
}

// TopP sets nucleus sampling.
func (b *ChatBuilder) TopP(v float32) *ChatBuilder {
	b.req.TopP = &v
	return b
}

// MaxTokens sets the maximum tokens parameter.
func (b *ChatBuilder) MaxTokens(n int) *ChatBuilder {
	b.req.MaxTokens = &n
	return b
}

// Seed makes sampling reproducible where the model supports it.
func (b *ChatBuilder) Seed(n int) *ChatBuilder {
	b.req.Seed = &n
	return b
}

// Stop sets stop sequences.
func (b *ChatBuilder) Stop(seqs ...string) *ChatBuilder {
	b.req.Stop = seqs
	return b
}

// Tools sets the tools available for the request.
func (b *ChatBuilder) Tools(ts ...Tool) *ChatBuilder {
	b.req.Tools = ts
	return b
}

// ToolChoice sets "auto", "none" or a tool name to force.
func (b *ChatBuilder) ToolChoice(choice string) *ChatBuilder {
	b.req.ToolChoice = choice
	return b
}

// JSONMode asks for a JSON object response. A non-nil schema requests
// schema-constrained output.
func (b *ChatBuilder) JSONMode(schema json.RawMessage) *ChatBuilder {
	if schema == nil {
		b.req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	} else {
		b.req.ResponseFormat = &ResponseFormat{Type: "json_schema", JSONSchema: schema}
	}
	return b
}

func (b *ChatBuilder) venice() *VeniceParameters {
	if b.req.Venice == nil {
		b.req.Venice = &VeniceParameters{}
	}
	return b.req.Venice
}

// Character chats as the public character with the given slug.
func (b *ChatBuilder) Character(slug string) *ChatBuilder {
	b.venice().CharacterSlug = slug
	return b
}

// WebSearch sets the web search mode. Citations are requested whenever
// search is not off.
func (b *ChatBuilder) WebSearch(mode WebSearchMode) *ChatBuilder {
	v := b.venice()
	v.EnableWebSearch = mode
	citations := mode != WebSearchOff
	v.EnableWebCitations = &citations
	return b
}

// VeniceSystemPrompt controls whether Venice prepends its own system prompt.
func (b *ChatBuilder) VeniceSystemPrompt(include bool) *ChatBuilder {
	b.venice().IncludeVeniceSystemPrompt = &include
	return b
}

// DisableThinking turns off reasoning on models that think by default.
func (b *ChatBuilder) DisableThinking() *ChatBuilder {
	t := true
	b.venice().DisableThinking = &t
	return b
}

// StripThinking removes <think> blocks from the returned content.
func (b *ChatBuilder) StripThinking() *ChatBuilder {
	t := true
	b.venice().StripThinkingResponse = &t
	return b
}

// ToolResults appends the assistant turn that requested tools and one tool
// message per result, so the conversation can continue.
func (b *ChatBuilder) ToolResults(resp *ChatResponse, results []ToolResult) *ChatBuilder {
	if resp != nil && resp.HasToolCalls() {
		b.req.Messages = append(b.req.Messages, Message{
			Role:      RoleAssistant,
			Content:   resp.Output,
			ToolCalls: resp.ToolCalls,
		})
	}
	for _, r := range results {
		b.req.Messages = append(b.req.Messages, Message{
			Role:       RoleTool,
			Content:    toolContent(r),
			ToolCallID: r.CallID,
		})
	}
	return b
}

func toolContent(r ToolResult) string {
	if s, ok := r.Content.(string); ok {
		return s
	}
	data, err := json.Marshal(r.Content)
	if err != nil {
		return err.Error()
	}
	return string(data)
}

// validate checks that the request is valid.
func (b *ChatBuilder) validate() error {
	if b.req.Model == "" {
		return ErrModelRequired
	}
	if len(b.req.Messages) == 0 {
		return ErrNoMessages
	}
	for _, msg := range b.req.Messages {
		if msg.Content == "" && len(msg.Parts) == 0 && len(msg.ToolCalls) == 0 {
			return ErrNoMessages
		}
	}
	return nil
}

// GetResponse executes the chat request and returns the response.
// It applies validation, telemetry, and retry logic.
func (b *ChatBuilder) GetResponse(ctx context.Context) (*ChatResponse, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	c := b.client
	ev := c.start(OpChat, b.req.Model)
	resp, err := withRetry(ctx, c, OpChat, func(ctx context.Context) (*ChatResponse, error) {
		return c.provider.Chat(ctx, &b.req)
	})

	var usage TokenUsage
	if resp != nil {
		usage = resp.Usage
	}
	c.end(ev, usage, 0, err)
	return resp, err
}

// Stream executes the chat request and returns a blocking stream.
// Only the connection setup is retried; the end telemetry event is emitted
// when the stream closes.
//
//	stream, err := client.Chat(model).User("Tell me a story.").Stream(ctx)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for chunk, err := range stream.All() {
//	    ...
//	}
func (b *ChatBuilder) Stream(ctx context.Context) (*Stream[ChatChunk], error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	c := b.client
	ev := c.start(OpChatStream, b.req.Model)
	stream, err := withRetry(ctx, c, OpChatStream, func(ctx context.Context) (*Stream[ChatChunk], error) {
		return c.provider.StreamChat(ctx, &b.req)
	})
	if err != nil {
		c.end(ev, TokenUsage{}, 0, err)
		return nil, err
	}
	observe(stream, c, ev, chatUsage)
	return stream, nil
}

// StreamAsync is Stream for the cooperative flavor.
func (b *ChatBuilder) StreamAsync(ctx context.Context) (*AsyncStream[ChatChunk], error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	c := b.client
	ev := c.start(OpChatStream, b.req.Model)
	stream, err := withRetry(ctx, c, OpChatStream, func(ctx context.Context) (*AsyncStream[ChatChunk], error) {
		return c.provider.StreamChatAsync(ctx, &b.req)
	})
	if err != nil {
		c.end(ev, TokenUsage{}, 0, err)
		return nil, err
	}
	observe(stream, c, ev, chatUsage)
	return stream, nil
}

// MessageBuilder provides a fluent API for building multimodal messages.
type MessageBuilder struct {
	parent *ChatBuilder
	role   Role
	parts  []ContentPart
}

// UserMultimodal starts building a multimodal user message.
func (b *ChatBuilder) UserMultimodal() *MessageBuilder {
	return &MessageBuilder{parent: b, role: RoleUser}
}

// Text adds a text content part to the message.
func (m *MessageBuilder) Text(s string) *MessageBuilder {
	m.parts = append(m.parts, InputText{Text: s})
	return m
}

// ImageURL adds an image by URL (HTTPS or data URL).
func (m *MessageBuilder) ImageURL(url string) *MessageBuilder {
	m.parts = append(m.parts, InputImage{URL: url})
	return m
}

// ImageURLWithDetail adds an image by URL with a specific detail level.
func (m *MessageBuilder) ImageURLWithDetail(url string, detail ImageDetail) *MessageBuilder {
	m.parts = append(m.parts, InputImage{URL: url, Detail: detail})
	return m
}

// Done completes the message and returns to the ChatBuilder.
func (m *MessageBuilder) Done() *ChatBuilder {
	m.parent.req.Messages = append(m.parent.req.Messages, Message{
		Role:  m.role,
		Parts: m.parts,
	})
	return m.parent
}

// UserWithImageURL adds a user message with text and an image URL.
func (b *ChatBuilder) UserWithImageURL(text, imageURL string) *ChatBuilder {
	return b.UserMultimodal().Text(text).ImageURL(imageURL).Done()
}
