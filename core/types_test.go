package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestMessageJSONMarshal(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "system role",
			msg:  Message{Role: RoleSystem, Content: "You are a helpful assistant."},
			want: `{"role":"system","content":"You are a helpful assistant."}`,
		},
		{
			name: "empty content",
			msg:  Message{Role: RoleUser},
			want: `{"role":"user"}`,
		},
		{
			name: "tool result",
			msg:  Message{Role: RoleTool, Content: "42", ToolCallID: "call_1"},
			want: `{"role":"tool","content":"42","tool_call_id":"call_1"}`,
		},
		{
			name: "parts are not serialized",
			msg:  Message{Role: RoleUser, Parts: []ContentPart{InputText{Text: "hi"}}},
			want: `{"role":"user"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestChatRequestOmitsNilFields(t *testing.T) {
	req := ChatRequest{
		Model:    "llama-3.3-70b",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"model":"llama-3.3-70b","messages":[{"role":"user","content":"hi"}]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestChatRequestVeniceParameters(t *testing.T) {
	off := false
	req := ChatRequest{
		Model:    "venice-uncensored",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Venice: &VeniceParameters{
			CharacterSlug:             "alan-watts",
			EnableWebSearch:           WebSearchAuto,
			IncludeVeniceSystemPrompt: &off,
		},
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got struct {
		VeniceParameters map[string]any `json:"venice_parameters"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := map[string]any{
		"character_slug":               "alan-watts",
		"enable_web_search":            "auto",
		"include_venice_system_prompt": false,
	}
	if len(got.VeniceParameters) != len(want) {
		t.Fatalf("venice_parameters = %v, want %v", got.VeniceParameters, want)
	}
	for k, v := range want {
		if got.VeniceParameters[k] != v {
			t.Errorf("venice_parameters[%s] = %v, want %v", k, got.VeniceParameters[k], v)
		}
	}
}

func TestToolCallArgumentsRoundTrip(t *testing.T) {
	raw := `{"city": "Oslo",   "units":"metric"}`
	tc := ToolCall{ID: "call_1", Name: "get_weather", Arguments: json.RawMessage(raw)}

	data, err := json.Marshal(tc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back ToolCall
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	var want bytes.Buffer
	if err := json.Compact(&want, []byte(raw)); err != nil {
		t.Fatalf("Compact() error = %v", err)
	}
	if string(back.Arguments) != want.String() {
		t.Errorf("Arguments = %s, want %s", back.Arguments, want.String())
	}
	if !json.Valid(back.Arguments) {
		t.Errorf("Arguments %s is not valid JSON", back.Arguments)
	}
}

func TestChatChunkDecode(t *testing.T) {
	payload := `{"id":"c1","model":"qwen3-4b","created":1,"choices":[{"index":0,"delta":{"content":"Hel","reasoning_content":"hmm"},"finish_reason":null}]}`
	var c ChatChunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if c.Text() != "Hel" || c.Choices[0].Delta.ReasoningContent != "hmm" {
		t.Errorf("chunk = %+v", c)
	}
	if c.FinishReason() != "" {
		t.Errorf("FinishReason() = %q, want empty", c.FinishReason())
	}

	stop := "stop"
	last := ChatChunk{Choices: []ChunkChoice{{Delta: ChunkDelta{Content: "lo"}, FinishReason: &stop}}}
	if last.FinishReason() != "stop" {
		t.Errorf("FinishReason() = %q, want stop", last.FinishReason())
	}
	if got := JoinText([]ChatChunk{c, {}, last}); got != "Hello" {
		t.Errorf("JoinText() = %q, want Hello", got)
	}
}

func TestChatResponseHelpers(t *testing.T) {
	var empty ChatResponse
	if empty.HasToolCalls() || empty.FirstToolCall() != nil || empty.HasReasoning() {
		t.Error("empty response should have no tool calls or reasoning")
	}

	resp := ChatResponse{
		Reasoning: "thinking",
		ToolCalls: []ToolCall{{ID: "a"}, {ID: "b"}},
	}
	if !resp.HasToolCalls() || resp.FirstToolCall().ID != "a" || !resp.HasReasoning() {
		t.Errorf("helpers on %+v", resp)
	}
}

func TestToolResultBuilder(t *testing.T) {
	results := NewToolResults().
		Success("a", map[string]int{"temp": 3}).
		Error("b", errors.New("boom")).
		FromExecution("c", "ok", nil).
		FromExecution("d", nil, errors.New("bad args")).
		Build()

	if len(results) != 4 {
		t.Fatalf("len = %d, want 4", len(results))
	}
	wantErr := []bool{false, true, false, true}
	for i, r := range results {
		if r.IsError != wantErr[i] {
			t.Errorf("results[%d].IsError = %v, want %v", i, r.IsError, wantErr[i])
		}
	}
	if results[1].Content != "boom" {
		t.Errorf("results[1].Content = %v, want boom", results[1].Content)
	}
}

func TestModelInfoHasCapability(t *testing.T) {
	m := ModelInfo{ID: "qwen3-235b", Capabilities: []Feature{FeatureChat, FeatureReasoning}}
	if !m.HasCapability(FeatureReasoning) {
		t.Error("HasCapability(reasoning) = false")
	}
	if m.HasCapability(FeatureVision) {
		t.Error("HasCapability(vision) = true")
	}
}
