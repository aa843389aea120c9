package venice

import (
	"context"
	"iter"
	"net/http"
	"strings"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers/internal/toolcalls"
)

// chatCompletionsPath is the API endpoint for chat completions.
const chatCompletionsPath = "chat/completions"

// Chat sends a non-streaming chat request.
func (p *Venice) Chat(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	var resp chatResponse
	err := p.do(ctx, apiCall{
		method: http.MethodPost,
		path:   chatCompletionsPath,
		body:   buildRequest(req, false),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return mapResponse(&resp)
}

// StreamChat sends a streaming chat request and returns a blocking stream
// of chunks. The stream owns the connection; close it when done.
func (p *Venice) StreamChat(ctx context.Context, req *core.ChatRequest) (*core.Stream[core.ChatChunk], error) {
	src, err := p.openChatStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return core.NewStream[core.ChatChunk](src, core.NewSSEDecoder[core.ChatChunk](), p.owner), nil
}

// StreamChatAsync is StreamChat with a cooperative stream whose Next
// honors a per-call context.
func (p *Venice) StreamChatAsync(ctx context.Context, req *core.ChatRequest) (*core.AsyncStream[core.ChatChunk], error) {
	src, err := p.openChatStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return core.NewAsyncStream[core.ChatChunk](src, core.NewSSEDecoder[core.ChatChunk](), p.owner), nil
}

func (p *Venice) openChatStream(ctx context.Context, req *core.ChatRequest) (core.Source, error) {
	resp, err := p.send(ctx, apiCall{
		method: http.MethodPost,
		path:   chatCompletionsPath,
		body:   buildRequest(req, true),
		accept: acceptSSE,
	})
	if err != nil {
		return nil, err
	}
	return core.NewLineSource(resp.Body), nil
}

// Collect drains a chat stream into a single response: text and reasoning
// are concatenated, tool call fragments are assembled and the last usage
// report wins. The stream is closed on return.
func Collect(s *core.Stream[core.ChatChunk]) (*core.ChatResponse, error) {
	return collect(s.All())
}

// CollectAsync is Collect for a cooperative stream.
func CollectAsync(ctx context.Context, s *core.AsyncStream[core.ChatChunk]) (*core.ChatResponse, error) {
	return collect(s.All(ctx))
}

func collect(chunks iter.Seq2[core.ChatChunk, error]) (*core.ChatResponse, error) {
	var (
		out       core.ChatResponse
		text      strings.Builder
		reasoning strings.Builder
	)
	asm := toolcalls.NewAssembler(toolcalls.Config{EmptyArgumentsJSON: "{}"})

	for c, err := range chunks {
		if err != nil {
			return nil, err
		}
		if out.ID == "" {
			out.ID = c.ID
		}
		if c.Model != "" {
			out.Model = c.Model
		}
		if c.Usage != nil {
			out.Usage = *c.Usage
		}
		if len(c.Choices) > 0 {
			text.WriteString(c.Choices[0].Delta.Content)
			reasoning.WriteString(c.Choices[0].Delta.ReasoningContent)
		}
		if fr := c.FinishReason(); fr != "" {
			out.FinishReason = fr
		}
		asm.AddChunk(c)
	}

	calls, err := asm.Finalize()
	if err != nil {
		return nil, toolCallError(err)
	}
	out.ToolCalls = calls

	out.Output = text.String()
	out.Reasoning = reasoning.String()
	if out.Reasoning == "" {
		out.Reasoning, out.Output = splitThinking(out.Output)
	}
	return &out, nil
}
