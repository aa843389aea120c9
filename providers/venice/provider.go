package venice

import (
	"errors"
	"net"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers/internal/normalize"
)

// ProviderID identifies Venice in errors, telemetry and the registry.
const ProviderID = "venice"

// DefaultAPIKeyEnvVar is the environment variable name for the Venice API key.
const DefaultAPIKeyEnvVar = "VENICE_API_KEY"

// ErrAPIKeyNotFound is returned when the API key environment variable is not set.
var ErrAPIKeyNotFound = errors.New("venice: VENICE_API_KEY environment variable not set")

// NewFromEnv creates a new Venice provider using the VENICE_API_KEY environment variable.
//
//	provider, err := venice.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := core.NewClient(provider)
func NewFromEnv(opts ...Option) (*Venice, error) {
	apiKey := os.Getenv(DefaultAPIKeyEnvVar)
	if apiKey == "" {
		return nil, ErrAPIKeyNotFound
	}
	return New(apiKey, opts...), nil
}

// Venice is the provider for the Venice AI API.
// Venice is safe for concurrent use.
type Venice struct {
	config Config
	owner  core.StreamOwner
}

// New creates a new Venice provider with the given API key and options.
func New(apiKey string, opts ...Option) *Venice {
	cfg := Config{
		APIKey:         core.NewSecret(apiKey),
		BaseURL:        DefaultBaseURL,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		Logger:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Translator == nil {
		cfg.Translator = normalize.Translator(ProviderID, statusOverrides(cfg.StatusOverrides))
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = newHTTPClient(cfg)
	}

	return &Venice{
		config: cfg,
		owner:  core.NewStreamOwner(cfg.Translator, cfg.Logger),
	}
}

// newHTTPClient builds a client whose timeouts cover connection setup and
// the wait for headers only, so long streams are not cut off.
func newHTTPClient(cfg Config) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext
	tr.ResponseHeaderTimeout = cfg.Timeout
	return &http.Client{Transport: tr}
}

// ID returns the provider identifier.
func (p *Venice) ID() string {
	return ProviderID
}

// Models returns the statically known models.
func (p *Venice) Models() []core.ModelInfo {
	result := make([]core.ModelInfo, len(models))
	copy(result, models)
	return result
}

// Supports reports whether the provider supports the given feature.
func (p *Venice) Supports(feature core.Feature) bool {
	switch feature {
	case core.FeatureChat,
		core.FeatureChatStreaming,
		core.FeatureToolCalling,
		core.FeatureReasoning,
		core.FeatureVision,
		core.FeatureWebSearch,
		core.FeatureCharacters,
		core.FeatureEmbeddings,
		core.FeatureImageGeneration,
		core.FeatureImageUpscale,
		core.FeatureSpeech,
		core.FeatureSpeechStreaming:
		return true
	default:
		return false
	}
}

// Logger returns the provider's logger.
func (p *Venice) Logger() *zap.Logger {
	return p.config.Logger
}

// buildHeaders constructs the HTTP headers for an API request.
func (p *Venice) buildHeaders(accept string) http.Header {
	headers := make(http.Header)

	headers.Set("Authorization", "Bearer "+p.config.APIKey.Expose())
	headers.Set("Content-Type", "application/json")
	if accept != "" {
		headers.Set("Accept", accept)
	}

	for key, values := range p.config.Headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}

	return headers
}

// Compile-time checks that Venice implements the core interfaces.
var (
	_ core.Provider          = (*Venice)(nil)
	_ core.EmbeddingProvider = (*Venice)(nil)
	_ core.ImageGenerator    = (*Venice)(nil)
	_ core.SpeechProvider    = (*Venice)(nil)
)
