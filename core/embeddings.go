package core

import "context"

// EncodingFormat specifies the embedding output format.
type EncodingFormat string

const (
	// EncodingFormatFloat returns embeddings as float arrays.
	EncodingFormatFloat EncodingFormat = "float"
	// EncodingFormatBase64 returns embeddings as base64-encoded strings.
	EncodingFormatBase64 EncodingFormat = "base64"
)

// EmbeddingRequest represents a request to generate embeddings.
type EmbeddingRequest struct {
	Model          ModelID        `json:"model"`
	Input          []string       `json:"input"`
	EncodingFormat EncodingFormat `json:"encoding_format,omitempty"`
	Dimensions     *int           `json:"dimensions,omitempty"`
	User           string         `json:"user,omitempty"`
}

// EmbeddingVector represents a single embedding result. Index refers to the
// position of the input text in the request.
type EmbeddingVector struct {
	Index     int       `json:"index"`
	Vector    []float32 `json:"vector,omitempty"`
	VectorB64 string    `json:"vector_b64,omitempty"`
}

// EmbeddingUsage tracks token consumption for embeddings.
type EmbeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// EmbeddingResponse contains the generated embeddings ordered by Index.
type EmbeddingResponse struct {
	Vectors []EmbeddingVector `json:"vectors"`
	Model   ModelID           `json:"model"`
	Usage   EmbeddingUsage    `json:"usage"`
}

// EmbeddingProvider is an optional interface for providers that support embeddings.
type EmbeddingProvider interface {
	CreateEmbeddings(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error)
}
