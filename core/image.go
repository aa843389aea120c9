package core

import (
	"context"
	"encoding/base64"
)

// ImageFormat represents the output file format.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "png"
	ImageFormatJPEG ImageFormat = "jpeg"
	ImageFormatWebP ImageFormat = "webp"
)

// IsValid reports whether the image format is a recognized value.
func (f ImageFormat) IsValid() bool {
	switch f {
	case ImageFormatPNG, ImageFormatJPEG, ImageFormatWebP:
		return true
	default:
		return false
	}
}

// Extension returns the file extension for the format, defaulting to webp.
func (f ImageFormat) Extension() string {
	if f == ImageFormatJPEG {
		return ".jpg"
	}
	if f.IsValid() {
		return "." + string(f)
	}
	return ".webp"
}

// ImageGenerateRequest represents a request to generate images.
type ImageGenerateRequest struct {
	Model  ModelID `json:"model"`
	Prompt string  `json:"prompt"`

	NegativePrompt string      `json:"negative_prompt,omitempty"`
	Width          int         `json:"width,omitempty"`
	Height         int         `json:"height,omitempty"`
	Steps          int         `json:"steps,omitempty"`
	CFGScale       float32     `json:"cfg_scale,omitempty"`
	Seed           *int        `json:"seed,omitempty"`
	StylePreset    string      `json:"style_preset,omitempty"`
	Format         ImageFormat `json:"format,omitempty"`
	LoraStrength   *int        `json:"lora_strength,omitempty"`
	SafeMode       *bool       `json:"safe_mode,omitempty"`
	HideWatermark  bool        `json:"hide_watermark,omitempty"`
	EmbedExif      bool        `json:"embed_exif_metadata,omitempty"`
	Variants       int         `json:"variants,omitempty"`
}

// ImageResponse represents a response containing generated images.
type ImageResponse struct {
	ID      string       `json:"id,omitempty"`
	Created int64        `json:"created"`
	Data    []ImageData  `json:"data"`
	Timing  *ImageTiming `json:"timing,omitempty"`
}

// ImageData represents a single generated image.
type ImageData struct {
	B64JSON string `json:"b64_json,omitempty"`
	URL     string `json:"url,omitempty"`
}

// GetBytes decodes and returns the image data. Images returned by URL must
// be fetched separately and yield nil.
func (d ImageData) GetBytes() ([]byte, error) {
	if d.B64JSON != "" {
		return base64.StdEncoding.DecodeString(d.B64JSON)
	}
	return nil, nil
}

// ImageTiming reports server-side generation timings in milliseconds.
type ImageTiming struct {
	InferenceDuration          float64 `json:"inferenceDuration"`
	InferencePreprocessingTime float64 `json:"inferencePreprocessingTime"`
	InferenceQueueTime         float64 `json:"inferenceQueueTime"`
	Total                      float64 `json:"total"`
}

// ImageGenerator is an optional interface for providers that support image generation.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req *ImageGenerateRequest) (*ImageResponse, error)
}
