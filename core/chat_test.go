package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestChatBuilderFluentAPI(t *testing.T) {
	c := NewClient(&mockProvider{id: "test"})

	builder := c.Chat("venice-uncensored").
		System("You are helpful").
		User("Hello").
		Assistant("Hi there").
		User("How are you?").
		Temperature(0.7).
		TopP(0.9).
		MaxTokens(100).
		Seed(42).
		Stop("END")

	req := builder.Request()
	if req.Model != "venice-uncensored" {
		t.Errorf("Model = %v, want venice-uncensored", req.Model)
	}
	if len(req.Messages) != 4 {
		t.Errorf("len(Messages) = %d, want 4", len(req.Messages))
	}
	if *req.Temperature != 0.7 || *req.TopP != 0.9 {
		t.Errorf("Temperature, TopP = %v, %v", *req.Temperature, *req.TopP)
	}
	if *req.MaxTokens != 100 || *req.Seed != 42 {
		t.Errorf("MaxTokens, Seed = %v, %v", *req.MaxTokens, *req.Seed)
	}
	if len(req.Stop) != 1 || req.Stop[0] != "END" {
		t.Errorf("Stop = %v", req.Stop)
	}
}

func TestChatBuilderMessageOrder(t *testing.T) {
	req := NewClient(&mockProvider{id: "test"}).Chat("m").
		System("sys").
		User("u1").
		Assistant("a1").
		Messages(Message{Role: RoleUser, Content: "u2"}).
		Request()

	want := []Role{RoleSystem, RoleUser, RoleAssistant, RoleUser}
	for i, r := range want {
		if req.Messages[i].Role != r {
			t.Errorf("Messages[%d].Role = %q, want %q", i, req.Messages[i].Role, r)
		}
	}
}

func TestChatBuilderValidation(t *testing.T) {
	c := NewClient(&mockProvider{id: "test"})
	ctx := context.Background()

	tests := []struct {
		name    string
		builder *ChatBuilder
		want    error
	}{
		{"model required", c.Chat("").User("Hi"), ErrModelRequired},
		{"no messages", c.Chat("m"), ErrNoMessages},
		{"empty message", c.Chat("m").User(""), ErrNoMessages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.builder.GetResponse(ctx); !errors.Is(err, tt.want) {
				t.Errorf("GetResponse() error = %v, want %v", err, tt.want)
			}
			if _, err := tt.builder.Stream(ctx); !errors.Is(err, tt.want) {
				t.Errorf("Stream() error = %v, want %v", err, tt.want)
			}
			if _, err := tt.builder.StreamAsync(ctx); !errors.Is(err, tt.want) {
				t.Errorf("StreamAsync() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestChatBuilderValidationAcceptsPartsAndToolCalls(t *testing.T) {
	c := NewClient(&mockProvider{id: "test"})

	if err := c.Chat("m").UserWithImageURL("", "https://example.com/a.png").validate(); err != nil {
		t.Errorf("multimodal message: validate() = %v", err)
	}
	withCalls := c.Chat("m").Messages(Message{
		Role:      RoleAssistant,
		ToolCalls: []ToolCall{{ID: "call_1", Name: "lookup", Arguments: json.RawMessage(`{}`)}},
	})
	if err := withCalls.validate(); err != nil {
		t.Errorf("tool call message: validate() = %v", err)
	}
}

func TestChatBuilderClone(t *testing.T) {
	base := NewClient(&mockProvider{id: "test"}).Chat("m").System("sys").Character("alan-watts")

	a := base.Clone().User("first")
	b := base.Clone().User("second").WebSearch(WebSearchOn)

	if n := len(base.Request().Messages); n != 1 {
		t.Errorf("base messages = %d, want 1", n)
	}
	if got := a.Request().Messages[1].Content; got != "first" {
		t.Errorf("a.Messages[1] = %q, want first", got)
	}
	if got := b.Request().Messages[1].Content; got != "second" {
		t.Errorf("b.Messages[1] = %q, want second", got)
	}
	if a.Request().Venice.EnableWebSearch != "" {
		t.Error("WebSearch on a clone leaked into a sibling")
	}
	if b.Request().Venice.CharacterSlug != "alan-watts" {
		t.Error("clone lost the character slug")
	}
}

func TestChatBuilderVeniceParameters(t *testing.T) {
	req := NewClient(&mockProvider{id: "test"}).Chat("m").
		User("Hi").
		Character("alan-watts").
		WebSearch(WebSearchAuto).
		VeniceSystemPrompt(false).
		DisableThinking().
		StripThinking().
		Request()

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var wire struct {
		Venice map[string]any `json:"venice_parameters"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := map[string]any{
		"character_slug":               "alan-watts",
		"enable_web_search":            "auto",
		"enable_web_citations":         true,
		"include_venice_system_prompt": false,
		"disable_thinking":             true,
		"strip_thinking_response":      true,
	}
	for k, v := range want {
		if wire.Venice[k] != v {
			t.Errorf("venice_parameters[%q] = %v, want %v", k, wire.Venice[k], v)
		}
	}
}

func TestChatBuilderWebSearchOffDisablesCitations(t *testing.T) {
	req := NewClient(&mockProvider{id: "test"}).Chat("m").WebSearch(WebSearchOff).Request()
	if req.Venice.EnableWebCitations == nil || *req.Venice.EnableWebCitations {
		t.Error("EnableWebCitations should be false when search is off")
	}
}

func TestChatBuilderOmitsVeniceParametersByDefault(t *testing.T) {
	data, err := json.Marshal(NewClient(&mockProvider{id: "test"}).Chat("m").User("Hi").Request())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "venice_parameters") {
		t.Errorf("request JSON = %s, want no venice_parameters", data)
	}
}

func TestChatBuilderJSONMode(t *testing.T) {
	b := NewClient(&mockProvider{id: "test"}).Chat("m")

	if rf := b.JSONMode(nil).Request().ResponseFormat; rf.Type != "json_object" {
		t.Errorf("Type = %q, want json_object", rf.Type)
	}

	schema := json.RawMessage(`{"name":"answer","schema":{"type":"object"}}`)
	rf := b.JSONMode(schema).Request().ResponseFormat
	if rf.Type != "json_schema" || string(rf.JSONSchema) != string(schema) {
		t.Errorf("ResponseFormat = %+v", rf)
	}
}

type mockTool struct {
	name string
}

func (t *mockTool) Name() string        { return t.name }
func (t *mockTool) Description() string { return "mock tool" }

func TestChatBuilderTools(t *testing.T) {
	req := NewClient(&mockProvider{id: "test"}).Chat("m").
		Tools(&mockTool{name: "get_weather"}, &mockTool{name: "search"}).
		ToolChoice("auto").
		Request()

	if len(req.Tools) != 2 || req.Tools[0].Name() != "get_weather" {
		t.Errorf("Tools = %v", req.Tools)
	}
	if req.ToolChoice != "auto" {
		t.Errorf("ToolChoice = %q, want auto", req.ToolChoice)
	}
}

func TestChatBuilderToolResults(t *testing.T) {
	resp := &ChatResponse{
		Output: "",
		ToolCalls: []ToolCall{
			{ID: "call_1", Name: "get_weather", Arguments: json.RawMessage(`{"city":"Paris"}`)},
			{ID: "call_2", Name: "get_time", Arguments: json.RawMessage(`{}`)},
		},
	}
	results := NewToolResults().
		Success("call_1", map[string]any{"temp_c": 21}).
		Error("call_2", errors.New("clock unavailable")).
		Build()

	req := NewClient(&mockProvider{id: "test"}).Chat("m").
		User("Weather and time in Paris?").
		ToolResults(resp, results).
		Request()

	if len(req.Messages) != 4 {
		t.Fatalf("len(Messages) = %d, want 4", len(req.Messages))
	}
	assistant := req.Messages[1]
	if assistant.Role != RoleAssistant || len(assistant.ToolCalls) != 2 {
		t.Errorf("assistant message = %+v", assistant)
	}

	first := req.Messages[2]
	if first.Role != RoleTool || first.ToolCallID != "call_1" || first.Content != `{"temp_c":21}` {
		t.Errorf("first tool message = %+v", first)
	}
	second := req.Messages[3]
	if second.ToolCallID != "call_2" || second.Content != "clock unavailable" {
		t.Errorf("second tool message = %+v", second)
	}
}

func TestChatBuilderToolResultsWithoutCalls(t *testing.T) {
	req := NewClient(&mockProvider{id: "test"}).Chat("m").
		User("Hi").
		ToolResults(&ChatResponse{Output: "plain"}, nil).
		Request()

	if len(req.Messages) != 1 {
		t.Errorf("len(Messages) = %d, want 1", len(req.Messages))
	}
}

func TestMessageBuilder(t *testing.T) {
	req := NewClient(&mockProvider{id: "test"}).Chat("m").
		System("Describe images.").
		UserMultimodal().
		Text("What is in this image?").
		ImageURL("https://example.com/cat.png").
		ImageURLWithDetail("https://example.com/dog.png", ImageDetailHigh).
		Done().
		User("Be brief.").
		Request()

	if len(req.Messages) != 3 {
		t.Fatalf("len(Messages) = %d, want 3", len(req.Messages))
	}
	msg := req.Messages[1]
	if msg.Role != RoleUser || len(msg.Parts) != 3 {
		t.Fatalf("multimodal message = %+v", msg)
	}
	if txt, ok := msg.Parts[0].(InputText); !ok || txt.Text != "What is in this image?" {
		t.Errorf("Parts[0] = %#v", msg.Parts[0])
	}
	if img, ok := msg.Parts[2].(InputImage); !ok || img.Detail != ImageDetailHigh {
		t.Errorf("Parts[2] = %#v", msg.Parts[2])
	}
}

func TestUserWithImageURL(t *testing.T) {
	req := NewClient(&mockProvider{id: "test"}).Chat("m").
		UserWithImageURL("Describe", "data:image/png;base64,AAAA").
		Request()

	parts := req.Messages[0].Parts
	if len(parts) != 2 {
		t.Fatalf("len(Parts) = %d, want 2", len(parts))
	}
	if img := parts[1].(InputImage); img.URL != "data:image/png;base64,AAAA" {
		t.Errorf("URL = %q", img.URL)
	}
}
