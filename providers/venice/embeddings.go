package venice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers/internal/normalize"
)

type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// embeddingData.Embedding is a float array, or a base64 string when the
// request asked for the base64 encoding.
type embeddingData struct {
	Index     int             `json:"index"`
	Embedding json.RawMessage `json:"embedding"`
}

// CreateEmbeddings generates embeddings for the request's inputs.
func (p *Venice) CreateEmbeddings(ctx context.Context, req *core.EmbeddingRequest) (*core.EmbeddingResponse, error) {
	if len(req.Input) == 0 {
		return nil, core.ErrNoInput
	}

	var resp embeddingResponse
	err := p.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "embeddings",
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := &core.EmbeddingResponse{
		Model: core.ModelID(resp.Model),
		Usage: core.EmbeddingUsage{
			PromptTokens: resp.Usage.PromptTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Vectors: make([]core.EmbeddingVector, 0, len(resp.Data)),
	}
	for _, d := range resp.Data {
		v := core.EmbeddingVector{Index: d.Index}
		if len(d.Embedding) > 0 && d.Embedding[0] == '"' {
			err = json.Unmarshal(d.Embedding, &v.VectorB64)
		} else {
			err = json.Unmarshal(d.Embedding, &v.Vector)
		}
		if err != nil {
			return nil, normalize.DecodeError(ProviderID, fmt.Errorf("embedding %d: %w", d.Index, err))
		}
		out.Vectors = append(out.Vectors, v)
	}
	slices.SortFunc(out.Vectors, func(a, b core.EmbeddingVector) int { return a.Index - b.Index })
	return out, nil
}

// EmbedBatch splits a large input into requests of at most batchSize texts
// and runs up to concurrency of them at once. Vector indexes refer to the
// position in the original input. The first failure cancels the rest.
func (p *Venice) EmbedBatch(ctx context.Context, req *core.EmbeddingRequest, batchSize, concurrency int) (*core.EmbeddingResponse, error) {
	if len(req.Input) == 0 {
		return nil, core.ErrNoInput
	}
	if batchSize <= 0 {
		batchSize = len(req.Input)
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	batches := slices.Collect(slices.Chunk(req.Input, batchSize))
	results := make([]*core.EmbeddingResponse, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, inputs := range batches {
		g.Go(func() error {
			part := *req
			part.Input = inputs
			resp, err := p.CreateEmbeddings(gctx, &part)
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &core.EmbeddingResponse{Vectors: make([]core.EmbeddingVector, 0, len(req.Input))}
	for i, r := range results {
		offset := i * batchSize
		out.Model = r.Model
		out.Usage.PromptTokens += r.Usage.PromptTokens
		out.Usage.TotalTokens += r.Usage.TotalTokens
		for _, v := range r.Vectors {
			v.Index += offset
			out.Vectors = append(out.Vectors, v)
		}
	}
	return out, nil
}
