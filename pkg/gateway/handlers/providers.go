package handlers

import (
	"net/http"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/core/providers/anthropic"
	"github.com/foun-chat/foun/pkg/core/providers/deepseek"
	"github.com/foun-chat/foun/pkg/core/routing"
)

// ProviderFactory builds a provider client for a routing decision. Base
// URL overrides exist for tests and self-hosted mirrors.
type ProviderFactory struct {
	DeepSeekBaseURL  string
	AnthropicBaseURL string
	HTTPClient       *http.Client
}

// New constructs the provider named by the decision, bound to its key.
func (f ProviderFactory) New(d routing.Decision) core.Provider {
	switch d.Provider {
	case routing.ProviderCreative:
		var opts []anthropic.Option
		if f.AnthropicBaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(f.AnthropicBaseURL))
		}
		if f.HTTPClient != nil {
			opts = append(opts, anthropic.WithHTTPClient(f.HTTPClient))
		}
		return anthropic.New(d.APIKey, opts...)
	default:
		var opts []deepseek.Option
		if f.DeepSeekBaseURL != "" {
			opts = append(opts, deepseek.WithBaseURL(f.DeepSeekBaseURL))
		}
		if f.HTTPClient != nil {
			opts = append(opts, deepseek.WithHTTPClient(f.HTTPClient))
		}
		return deepseek.New(d.APIKey, opts...)
	}
}
