package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodingFormat_Constants(t *testing.T) {
	if EncodingFormatFloat != "float" {
		t.Errorf("EncodingFormatFloat = %q, want float", EncodingFormatFloat)
	}
	if EncodingFormatBase64 != "base64" {
		t.Errorf("EncodingFormatBase64 = %q, want base64", EncodingFormatBase64)
	}
}

func TestEmbeddingRequest_JSON(t *testing.T) {
	dims := 512
	req := EmbeddingRequest{
		Model:          "text-embedding-bge-m3",
		Input:          []string{"hello", "world"},
		EncodingFormat: EncodingFormatFloat,
		Dimensions:     &dims,
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got := string(data)
	for _, want := range []string{`"model":"text-embedding-bge-m3"`, `"input":["hello","world"]`, `"dimensions":512`} {
		if !strings.Contains(got, want) {
			t.Errorf("JSON = %s, want %s", got, want)
		}
	}
	if strings.Contains(got, `"user"`) {
		t.Errorf("JSON = %s, empty user should be omitted", got)
	}
}

func TestEmbeddingResponse_Fields(t *testing.T) {
	resp := EmbeddingResponse{
		Vectors: []EmbeddingVector{
			{Index: 0, Vector: []float32{0.1, 0.2}},
		},
		Model: "text-embedding-bge-m3",
		Usage: EmbeddingUsage{PromptTokens: 5, TotalTokens: 5},
	}

	if len(resp.Vectors) != 1 {
		t.Errorf("len(Vectors) = %d, want 1", len(resp.Vectors))
	}
	if resp.Vectors[0].Index != 0 {
		t.Errorf("Vectors[0].Index = %d, want 0", resp.Vectors[0].Index)
	}
	if resp.Usage.PromptTokens != 5 {
		t.Errorf("Usage.PromptTokens = %d, want 5", resp.Usage.PromptTokens)
	}
}
