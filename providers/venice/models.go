// Package venice provides the Venice AI API provider: chat completions
// (blocking and cooperative streams), images, speech, embeddings, and the
// account resources (models, characters, billing, API keys).
package venice

import (
	"context"
	"net/http"
	"net/url"

	"github.com/petal-labs/venice/core"
)

// Model constants for commonly used Venice models.
const (
	// Text
	ModelVeniceUncensored core.ModelID = "venice-uncensored"
	ModelLlama33_70B      core.ModelID = "llama-3.3-70b"
	ModelLlama32_3B       core.ModelID = "llama-3.2-3b"
	ModelQwen3_235B       core.ModelID = "qwen3-235b"
	ModelQwen3_4B         core.ModelID = "qwen3-4b"
	ModelMistral31_24B    core.ModelID = "mistral-31-24b"

	// Image
	ModelHiDream core.ModelID = "hidream"
	ModelSD35    core.ModelID = "venice-sd35"
	ModelFluxDev core.ModelID = "flux-dev"

	// Audio and embeddings
	ModelTTSKokoro core.ModelID = "tts-kokoro"
	ModelBGEM3     core.ModelID = "text-embedding-bge-m3"

	// Upscale
	ModelUpscaler core.ModelID = "upscaler"
)

var textCaps = []core.Feature{
	core.FeatureChat,
	core.FeatureChatStreaming,
	core.FeatureToolCalling,
	core.FeatureWebSearch,
	core.FeatureCharacters,
}

func withCaps(extra ...core.Feature) []core.Feature {
	return append(append([]core.Feature(nil), textCaps...), extra...)
}

// models is the static list of well-known models. ListModels returns the
// live catalog.
var models = []core.ModelInfo{
	{ID: ModelVeniceUncensored, DisplayName: "Venice Uncensored", Type: string(ModelTypeText), ContextTokens: 32768,
		Capabilities: []core.Feature{core.FeatureChat, core.FeatureChatStreaming, core.FeatureWebSearch, core.FeatureCharacters}},
	{ID: ModelLlama33_70B, DisplayName: "Llama 3.3 70B", Type: string(ModelTypeText), ContextTokens: 65536,
		Capabilities: withCaps()},
	{ID: ModelLlama32_3B, DisplayName: "Llama 3.2 3B", Type: string(ModelTypeText), ContextTokens: 131072,
		Capabilities: withCaps()},
	{ID: ModelQwen3_235B, DisplayName: "Qwen 3 235B", Type: string(ModelTypeText), ContextTokens: 131072,
		Capabilities: withCaps(core.FeatureReasoning)},
	{ID: ModelQwen3_4B, DisplayName: "Qwen 3 4B", Type: string(ModelTypeText), ContextTokens: 32768,
		Capabilities: withCaps(core.FeatureReasoning)},
	{ID: ModelMistral31_24B, DisplayName: "Mistral 3.1 24B", Type: string(ModelTypeText), ContextTokens: 131072,
		Capabilities: withCaps(core.FeatureVision)},
	{ID: ModelHiDream, DisplayName: "HiDream", Type: string(ModelTypeImage),
		Capabilities: []core.Feature{core.FeatureImageGeneration}},
	{ID: ModelSD35, DisplayName: "Venice SD35", Type: string(ModelTypeImage),
		Capabilities: []core.Feature{core.FeatureImageGeneration}},
	{ID: ModelFluxDev, DisplayName: "FLUX Dev", Type: string(ModelTypeImage),
		Capabilities: []core.Feature{core.FeatureImageGeneration}},
	{ID: ModelUpscaler, DisplayName: "Upscaler", Type: string(ModelTypeUpscale),
		Capabilities: []core.Feature{core.FeatureImageUpscale}},
	{ID: ModelTTSKokoro, DisplayName: "Kokoro TTS", Type: string(ModelTypeTTS),
		Capabilities: []core.Feature{core.FeatureSpeech, core.FeatureSpeechStreaming}},
	{ID: ModelBGEM3, DisplayName: "BGE-M3", Type: string(ModelTypeEmbedding),
		Capabilities: []core.Feature{core.FeatureEmbeddings}},
}

// modelRegistry is a map for quick model lookup by ID.
var modelRegistry = buildModelRegistry()

func buildModelRegistry() map[core.ModelID]*core.ModelInfo {
	registry := make(map[core.ModelID]*core.ModelInfo, len(models))
	for i := range models {
		registry[models[i].ID] = &models[i]
	}
	return registry
}

// GetModelInfo returns the ModelInfo for a given model ID, or nil if not found.
func GetModelInfo(id core.ModelID) *core.ModelInfo {
	return modelRegistry[id]
}

// ModelType filters the model catalog.
type ModelType string

const (
	ModelTypeText      ModelType = "text"
	ModelTypeImage     ModelType = "image"
	ModelTypeEmbedding ModelType = "embedding"
	ModelTypeTTS       ModelType = "tts"
	ModelTypeUpscale   ModelType = "upscale"
	ModelTypeAll       ModelType = "all"
)

// Model is one entry of the live model catalog.
type Model struct {
	ID      string    `json:"id"`
	Object  string    `json:"object"`
	Created int64     `json:"created"`
	OwnedBy string    `json:"owned_by"`
	Type    ModelType `json:"type"`
	Spec    ModelSpec `json:"model_spec"`
}

// ModelSpec carries the model's limits, pricing and feature flags.
type ModelSpec struct {
	Name                   string           `json:"name,omitempty"`
	AvailableContextTokens int              `json:"availableContextTokens,omitempty"`
	Capabilities           map[string]any   `json:"capabilities,omitempty"`
	Constraints            ModelConstraints `json:"constraints"`
	Pricing                *ModelPricing    `json:"pricing,omitempty"`
	ModelSource            string           `json:"modelSource,omitempty"`
	Offline                bool             `json:"offline"`
	Traits                 []string         `json:"traits,omitempty"`
}

// ModelConstraints bounds sampling parameters.
type ModelConstraints struct {
	Temperature *Range `json:"temperature,omitempty"`
	TopP        *Range `json:"top_p,omitempty"`
}

// Range is a parameter's default and allowed interval.
type Range struct {
	Default float64 `json:"default"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
}

// ModelPricing is the per-million-token price in both currencies.
type ModelPricing struct {
	Input  Price `json:"input"`
	Output Price `json:"output"`
}

// Price is an amount in USD and in Venice Compute Units.
type Price struct {
	USD float64 `json:"usd"`
	VCU float64 `json:"vcu"`
}

// Capability reports a boolean capability flag such as
// "supportsFunctionCalling".
func (s ModelSpec) Capability(name string) bool {
	v, _ := s.Capabilities[name].(bool)
	return v
}

var capabilityFeatures = []struct {
	flag    string
	feature core.Feature
}{
	{"supportsFunctionCalling", core.FeatureToolCalling},
	{"supportsReasoning", core.FeatureReasoning},
	{"supportsVision", core.FeatureVision},
	{"supportsWebSearch", core.FeatureWebSearch},
}

// Info converts a catalog entry to the provider-neutral ModelInfo.
func (m Model) Info() core.ModelInfo {
	info := core.ModelInfo{
		ID:            core.ModelID(m.ID),
		DisplayName:   m.Spec.Name,
		Type:          string(m.Type),
		ContextTokens: m.Spec.AvailableContextTokens,
	}
	if info.DisplayName == "" {
		info.DisplayName = m.ID
	}

	switch m.Type {
	case ModelTypeText:
		info.Capabilities = []core.Feature{core.FeatureChat, core.FeatureChatStreaming}
		for _, cf := range capabilityFeatures {
			if m.Spec.Capability(cf.flag) {
				info.Capabilities = append(info.Capabilities, cf.feature)
			}
		}
	case ModelTypeImage:
		info.Capabilities = []core.Feature{core.FeatureImageGeneration}
	case ModelTypeUpscale:
		info.Capabilities = []core.Feature{core.FeatureImageUpscale}
	case ModelTypeTTS:
		info.Capabilities = []core.Feature{core.FeatureSpeech, core.FeatureSpeechStreaming}
	case ModelTypeEmbedding:
		info.Capabilities = []core.Feature{core.FeatureEmbeddings}
	}
	return info
}

type modelList struct {
	Object string  `json:"object"`
	Type   string  `json:"type"`
	Data   []Model `json:"data"`
}

// mappingResponse is the shape of the traits and compatibility endpoints.
type mappingResponse struct {
	Object string            `json:"object"`
	Type   string            `json:"type"`
	Data   map[string]string `json:"data"`
}

// ListModels fetches the live model catalog. An empty type lists text
// models, the server default.
func (p *Venice) ListModels(ctx context.Context, typ ModelType) ([]Model, error) {
	var list modelList
	err := p.do(ctx, apiCall{
		method: http.MethodGet,
		path:   "models",
		query:  typeQuery(typ),
	}, &list)
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

// ModelTraits maps traits such as "default" or "fastest" to model IDs.
func (p *Venice) ModelTraits(ctx context.Context, typ ModelType) (map[string]string, error) {
	return p.mapping(ctx, "models/traits", typ)
}

// ModelCompatibility maps foreign model names (e.g. "gpt-4o") to the
// Venice models that stand in for them.
func (p *Venice) ModelCompatibility(ctx context.Context, typ ModelType) (map[string]string, error) {
	return p.mapping(ctx, "models/compatibility_mapping", typ)
}

func (p *Venice) mapping(ctx context.Context, path string, typ ModelType) (map[string]string, error) {
	var resp mappingResponse
	if err := p.do(ctx, apiCall{method: http.MethodGet, path: path, query: typeQuery(typ)}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func typeQuery(typ ModelType) url.Values {
	if typ == "" {
		return nil
	}
	return url.Values{"type": {string(typ)}}
}
