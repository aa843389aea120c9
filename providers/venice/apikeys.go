package venice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers/internal/normalize"
)

// APIKeyType is the permission level of an API key.
type APIKeyType string

const (
	APIKeyInference APIKeyType = "INFERENCE"
	APIKeyAdmin     APIKeyType = "ADMIN"
)

// ConsumptionLimit caps spending per epoch. Nil fields are unlimited.
type ConsumptionLimit struct {
	USD *float64 `json:"usd,omitempty"`
	VCU *float64 `json:"vcu,omitempty"`
}

// APIKey describes an existing key. The secret itself is never returned
// after creation.
type APIKey struct {
	ID                string           `json:"id"`
	Type              APIKeyType       `json:"apiKeyType"`
	Description       string           `json:"description"`
	Last6Chars        string           `json:"last6Chars"`
	CreatedAt         string           `json:"createdAt,omitempty"`
	ExpiresAt         string           `json:"expiresAt,omitempty"`
	LastUsedAt        string           `json:"lastUsedAt,omitempty"`
	ConsumptionLimits ConsumptionLimit `json:"consumptionLimits"`
	Usage             struct {
		TrailingSevenDays map[string]string `json:"trailingSevenDays"`
	} `json:"usage"`
}

// CreateAPIKeyRequest is the body of a key creation.
type CreateAPIKeyRequest struct {
	Type             APIKeyType        `json:"apiKeyType"`
	Description      string            `json:"description"`
	ExpiresAt        string            `json:"expiresAt,omitempty"`
	ConsumptionLimit *ConsumptionLimit `json:"consumptionLimit,omitempty"`
}

// CreatedAPIKey is returned once, on creation. Key holds the secret.
type CreatedAPIKey struct {
	ID               string            `json:"id"`
	Key              string            `json:"apiKey"`
	Type             APIKeyType        `json:"apiKeyType"`
	Description      string            `json:"description"`
	ExpiresAt        string            `json:"expiresAt,omitempty"`
	ConsumptionLimit *ConsumptionLimit `json:"consumptionLimit,omitempty"`
}

// ErrKeyIDRequired is returned when a key operation has no key ID.
var ErrKeyIDRequired = errors.New("venice: api key id required")

// ListAPIKeys lists the account's API keys.
func (p *Venice) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	var resp struct {
		Data []APIKey `json:"data"`
	}
	if err := p.do(ctx, apiCall{method: http.MethodGet, path: "api_keys"}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateAPIKey creates a new key.
func (p *Venice) CreateAPIKey(ctx context.Context, req *CreateAPIKeyRequest) (*CreatedAPIKey, error) {
	if req.Type == "" {
		req.Type = APIKeyInference
	}
	var resp struct {
		Data    CreatedAPIKey `json:"data"`
		Success bool          `json:"success"`
	}
	err := p.do(ctx, apiCall{method: http.MethodPost, path: "api_keys", body: req}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetAPIKey fetches one key's metadata by ID. The secret itself is never
// returned. The endpoint answers with either a one-element list or the
// object; a response without the key is reported as core.ErrNotFound.
func (p *Venice) GetAPIKey(ctx context.Context, id string) (*APIKey, error) {
	if id == "" {
		return nil, ErrKeyIDRequired
	}
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	err := p.do(ctx, apiCall{
		method: http.MethodGet,
		path:   "api_keys",
		query:  url.Values{"id": {id}},
	}, &resp)
	if err != nil {
		return nil, err
	}

	data := bytes.TrimSpace(resp.Data)
	if len(data) > 0 && data[0] == '[' {
		var keys []APIKey
		if err := json.Unmarshal(data, &keys); err != nil {
			return nil, normalize.DecodeError(ProviderID, err)
		}
		if i := slices.IndexFunc(keys, func(k APIKey) bool { return k.ID == id }); i >= 0 {
			return &keys[i], nil
		}
		return nil, keyNotFound(id)
	}

	var key APIKey
	if err := json.Unmarshal(data, &key); err != nil || key.ID != id {
		return nil, keyNotFound(id)
	}
	return &key, nil
}

func keyNotFound(id string) error {
	return &core.ProviderError{Provider: ProviderID, Message: "api key " + id + " not found", Err: core.ErrNotFound}
}

// DeleteAPIKey deletes the key with the given ID.
func (p *Venice) DeleteAPIKey(ctx context.Context, id string) error {
	if id == "" {
		return ErrKeyIDRequired
	}
	return p.do(ctx, apiCall{
		method: http.MethodDelete,
		path:   "api_keys",
		query:  url.Values{"id": {id}},
	}, nil)
}

// RateLimitInfo describes the calling key's tier, balances and per-model
// limits.
type RateLimitInfo struct {
	AccessPermitted bool `json:"accessPermitted"`
	APITier         struct {
		ID        string `json:"id"`
		IsCharged bool   `json:"isCharged"`
	} `json:"apiTier"`
	Balances struct {
		USD float64 `json:"USD"`
		VCU float64 `json:"VCU"`
	} `json:"balances"`
	KeyExpiration   string           `json:"keyExpiration,omitempty"`
	NextEpochBegins string           `json:"nextEpochBegins"`
	RateLimits      []ModelRateLimit `json:"rateLimits"`
}

// ModelRateLimit lists the limits that apply to one model.
type ModelRateLimit struct {
	ModelID string `json:"apiModelId"`
	Limits  []struct {
		Amount float64 `json:"amount"`
		Type   string  `json:"type"`
	} `json:"rateLimits"`
}

// RateLimits returns the calling key's rate limits and balances.
func (p *Venice) RateLimits(ctx context.Context) (*RateLimitInfo, error) {
	var resp struct {
		Data RateLimitInfo `json:"data"`
	}
	if err := p.do(ctx, apiCall{method: http.MethodGet, path: "api_keys/rate_limits"}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// RateLimitEvent is a recorded rate limit hit.
type RateLimitEvent struct {
	APIKeyID      string `json:"apiKeyId"`
	ModelID       string `json:"modelId"`
	RateLimitTier string `json:"rateLimitTier"`
	RateLimitType string `json:"rateLimitType"`
	Timestamp     string `json:"timestamp"`
}

// RateLimitLogQuery filters RateLimitLog. Zero fields are not sent.
type RateLimitLogQuery struct {
	APIKeyID  string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Page      int
}

// RateLimitLog returns recent rate limit events.
func (p *Venice) RateLimitLog(ctx context.Context, q RateLimitLogQuery) ([]RateLimitEvent, error) {
	v := url.Values{}
	if q.APIKeyID != "" {
		v.Set("api_key_id", q.APIKeyID)
	}
	if !q.StartDate.IsZero() {
		v.Set("start_date", q.StartDate.UTC().Format(time.RFC3339))
	}
	if !q.EndDate.IsZero() {
		v.Set("end_date", q.EndDate.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}

	var resp struct {
		Data []RateLimitEvent `json:"data"`
	}
	err := p.do(ctx, apiCall{method: http.MethodGet, path: "api_keys/rate_limits/log", query: v}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Web3Token returns the token a wallet signs to create a key with
// CreateWeb3Key.
func (p *Venice) Web3Token(ctx context.Context) (string, error) {
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	if err := p.do(ctx, apiCall{method: http.MethodGet, path: "api_keys/generate_web3_key"}, &resp); err != nil {
		return "", err
	}
	return resp.Data.Token, nil
}

// Web3KeyRequest creates a key authenticated by a wallet signature over
// the Web3Token.
type Web3KeyRequest struct {
	Type             APIKeyType        `json:"apiKeyType"`
	Address          string            `json:"address"`
	Signature        string            `json:"signature"`
	Token            string            `json:"token"`
	Description      string            `json:"description,omitempty"`
	ExpiresAt        string            `json:"expiresAt,omitempty"`
	ConsumptionLimit *ConsumptionLimit `json:"consumptionLimit,omitempty"`
}

// CreateWeb3Key creates a key from a signed Web3 token.
func (p *Venice) CreateWeb3Key(ctx context.Context, req *Web3KeyRequest) (*CreatedAPIKey, error) {
	if req.Type == "" {
		req.Type = APIKeyInference
	}
	var resp struct {
		Data    CreatedAPIKey `json:"data"`
		Success bool          `json:"success"`
	}
	err := p.do(ctx, apiCall{method: http.MethodPost, path: "api_keys/generate_web3_key", body: req}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
