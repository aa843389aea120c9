package venice

import (
	"encoding/json"
	"strings"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/tools"
)

// schemaProvider is implemented by tools that carry a JSON schema, which
// lets a core.Tool that is also a tools.Tool describe its parameters.
type schemaProvider interface {
	Schema() tools.ToolSchema
}

// mapMessages converts messages to the wire format.
func mapMessages(msgs []core.Message) []chatMessage {
	result := make([]chatMessage, len(msgs))
	for i, msg := range msgs {
		m := chatMessage{
			Role:       string(msg.Role),
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}

		switch {
		case len(msg.Parts) > 0:
			m.Content = mapParts(msg.Parts)
		case msg.Content == "" && len(msg.ToolCalls) > 0:
			// Tool-call-only assistant turns carry no content.
		default:
			m.Content = msg.Content
		}

		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, chatToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: chatFunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		result[i] = m
	}
	return result
}

func mapParts(parts []core.ContentPart) []contentPart {
	result := make([]contentPart, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case core.InputText:
			result = append(result, contentPart{Type: v.ContentType(), Text: v.Text})
		case core.InputImage:
			result = append(result, contentPart{
				Type:     v.ContentType(),
				ImageURL: &imageURL{URL: v.URL, Detail: string(v.Detail)},
			})
		}
	}
	return result
}

// mapTools converts tools to the function-calling wire format.
func mapTools(ts []core.Tool) []chatTool {
	if len(ts) == 0 {
		return nil
	}

	result := make([]chatTool, len(ts))
	for i, t := range ts {
		var params json.RawMessage
		if sp, ok := t.(schemaProvider); ok {
			params = sp.Schema().JSONSchema
		}
		if params == nil {
			params = json.RawMessage(`{"type":"object","properties":{}}`)
		}

		result[i] = chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  params,
			},
		}
	}
	return result
}

// mapToolChoice passes the keywords through and turns anything else into
// a forced call of the named function.
func mapToolChoice(choice string) any {
	switch choice {
	case "auto", "none", "required":
		return choice
	}
	return map[string]any{
		"type":     "function",
		"function": map[string]string{"name": choice},
	}
}

// buildRequest creates the wire request from a ChatRequest.
func buildRequest(req *core.ChatRequest, stream bool) *chatRequest {
	out := &chatRequest{
		Model:          string(req.Model),
		Messages:       mapMessages(req.Messages),
		Temperature:    req.Temperature,
		TopP:           req.TopP,
		MaxTokens:      req.MaxTokens,
		Seed:           req.Seed,
		Stop:           req.Stop,
		User:           req.User,
		ResponseFormat: req.ResponseFormat,
		Venice:         req.Venice,
		Stream:         stream,
	}

	if len(req.Tools) > 0 {
		out.Tools = mapTools(req.Tools)
		out.ToolChoice = "auto"
		if req.ToolChoice != "" {
			out.ToolChoice = mapToolChoice(req.ToolChoice)
		}
	}

	if stream {
		out.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	return out
}

// mapResponse converts a wire response to a ChatResponse.
func mapResponse(resp *chatResponse) (*core.ChatResponse, error) {
	result := &core.ChatResponse{
		ID:    resp.ID,
		Model: core.ModelID(resp.Model),
	}
	if resp.Usage != nil {
		result.Usage = *resp.Usage
	}
	if resp.VeniceParameters != nil {
		result.Citations = resp.VeniceParameters.WebSearchCitations
	}

	if len(resp.Choices) == 0 {
		return result, nil
	}

	choice := resp.Choices[0]
	if choice.FinishReason != nil {
		result.FinishReason = *choice.FinishReason
	}
	result.Output = choice.Message.Content
	result.Reasoning = choice.Message.ReasoningContent
	if result.Reasoning == "" {
		result.Reasoning, result.Output = splitThinking(result.Output)
	}

	for _, call := range choice.Message.ToolCalls {
		args := call.Function.Arguments
		if args == "" {
			args = "{}"
		}
		if !json.Valid([]byte(args)) {
			return nil, ErrToolArgsInvalidJSON
		}
		result.ToolCalls = append(result.ToolCalls, core.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	return result, nil
}

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// splitThinking separates a leading <think>...</think> block that
// reasoning models emit inline from the answer that follows it.
func splitThinking(s string) (reasoning, output string) {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(trimmed, thinkOpen) {
		return "", s
	}
	end := strings.Index(trimmed, thinkClose)
	if end < 0 {
		return "", s
	}
	reasoning = strings.TrimSpace(trimmed[len(thinkOpen):end])
	output = strings.TrimLeft(trimmed[end+len(thinkClose):], " \t\r\n")
	return reasoning, output
}
