package venice

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/petal-labs/venice/core"
)

// generateResponse is the body returned by image/generate.
type generateResponse struct {
	ID      string            `json:"id"`
	Created int64             `json:"created,omitempty"`
	Images  []string          `json:"images"`
	Timing  *core.ImageTiming `json:"timing,omitempty"`
}

// GenerateImage generates images with Venice's native endpoint. Images come
// back base64 encoded.
func (p *Venice) GenerateImage(ctx context.Context, req *core.ImageGenerateRequest) (*core.ImageResponse, error) {
	var resp generateResponse
	err := p.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "image/generate",
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := &core.ImageResponse{
		ID:      resp.ID,
		Created: resp.Created,
		Timing:  resp.Timing,
		Data:    make([]core.ImageData, len(resp.Images)),
	}
	for i, img := range resp.Images {
		out.Data[i] = core.ImageData{B64JSON: img}
	}
	return out, nil
}

// OpenAIImageRequest is the body of the OpenAI-compatible
// images/generations endpoint.
type OpenAIImageRequest struct {
	Model             core.ModelID `json:"model,omitempty"`
	Prompt            string       `json:"prompt"`
	N                 int          `json:"n,omitempty"`
	Size              string       `json:"size,omitempty"`
	Quality           string       `json:"quality,omitempty"`
	Style             string       `json:"style,omitempty"`
	Background        string       `json:"background,omitempty"`
	Moderation        string       `json:"moderation,omitempty"`
	OutputFormat      string       `json:"output_format,omitempty"`
	OutputCompression *int         `json:"output_compression,omitempty"`
	ResponseFormat    string       `json:"response_format,omitempty"` // "b64_json" or "url"
	User              string       `json:"user,omitempty"`
}

// GenerateImageOpenAI generates images through the OpenAI-compatible
// endpoint.
func (p *Venice) GenerateImageOpenAI(ctx context.Context, req *OpenAIImageRequest) (*core.ImageResponse, error) {
	if req.Prompt == "" {
		return nil, core.ErrPromptRequired
	}
	var resp core.ImageResponse
	err := p.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "images/generations",
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpscaleRequest asks for an image to be upscaled and optionally enhanced.
type UpscaleRequest struct {
	Image []byte

	// Scale defaults to 2. A scale of 1 only makes sense with enhancement,
	// so Enhance is forced on in that case.
	Scale             float64
	Enhance           *bool
	EnhanceCreativity *float64
	EnhancePrompt     string
	Replication       *float64
}

type upscaleBody struct {
	Image             string   `json:"image"`
	Scale             float64  `json:"scale"`
	Enhance           *bool    `json:"enhance,omitempty"`
	EnhanceCreativity *float64 `json:"enhanceCreativity,omitempty"`
	EnhancePrompt     string   `json:"enhancePrompt,omitempty"`
	Replication       *float64 `json:"replication,omitempty"`
}

// UpscaleImage upscales an image and returns the resulting image bytes.
func (p *Venice) UpscaleImage(ctx context.Context, req *UpscaleRequest) ([]byte, error) {
	if len(req.Image) == 0 {
		return nil, ErrImageRequired
	}

	body := upscaleBody{
		Image:             base64.StdEncoding.EncodeToString(req.Image),
		Scale:             req.Scale,
		Enhance:           req.Enhance,
		EnhanceCreativity: req.EnhanceCreativity,
		EnhancePrompt:     req.EnhancePrompt,
		Replication:       req.Replication,
	}
	if body.Scale == 0 {
		body.Scale = 2
	}
	if body.Scale == 1 {
		on := true
		body.Enhance = &on
	}

	return p.doRaw(ctx, apiCall{
		method: http.MethodPost,
		path:   "image/upscale",
		body:   body,
		accept: "image/*",
	})
}

// ImageStyles lists the style presets accepted by GenerateImage.
func (p *Venice) ImageStyles(ctx context.Context) ([]string, error) {
	var resp struct {
		Object string   `json:"object"`
		Data   []string `json:"data"`
	}
	if err := p.do(ctx, apiCall{method: http.MethodGet, path: "image/styles"}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
