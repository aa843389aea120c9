package venice

import (
	"context"
	"net/http"
)

// Character is a public persona that chat requests can adopt through
// VeniceParameters.CharacterSlug.
type Character struct {
	Slug          string   `json:"slug"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	SystemPrompt  string   `json:"system_prompt,omitempty"`
	UserPrompt    string   `json:"user_prompt,omitempty"`
	VisionEnabled bool     `json:"vision_enabled"`
	ImageURL      string   `json:"image_url,omitempty"`
	VoiceID       string   `json:"voice_id,omitempty"`
	CategoryTags  []string `json:"category_tags,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
}

// ListCharacters returns the character catalog.
func (p *Venice) ListCharacters(ctx context.Context) ([]Character, error) {
	var resp struct {
		Object string      `json:"object"`
		Data   []Character `json:"data"`
	}
	if err := p.do(ctx, apiCall{method: http.MethodGet, path: "characters"}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
