package venice

import (
	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers"
)

func init() {
	providers.Register(ProviderID, func(s providers.Settings) (core.Provider, error) {
		if s.APIKey == "" {
			return nil, ErrAPIKeyNotFound
		}
		opts := []Option{WithLogger(s.Logger)}
		if s.BaseURL != "" {
			opts = append(opts, WithBaseURL(s.BaseURL))
		}
		if s.Timeout > 0 {
			opts = append(opts, WithTimeout(s.Timeout))
		}
		return New(s.APIKey, opts...), nil
	})
}
