package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/core/recap"
	"github.com/foun-chat/foun/pkg/core/routing"
	"github.com/foun-chat/foun/pkg/core/types"
	"github.com/foun-chat/foun/pkg/gateway/apierror"
	"github.com/foun-chat/foun/pkg/gateway/config"
	"github.com/foun-chat/foun/pkg/gateway/metrics"
)

// RecapHandler generates the end-of-session summary. Recap always uses
// server-side credentials; client keys are a chat-path concession only.
type RecapHandler struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Providers ProviderFactory
}

type recapRequest struct {
	Messages    []types.Message `json:"messages"`
	Profile     types.Profile   `json:"profile"`
	FolderLabel string          `json:"folderLabel"`
}

func (h RecapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		apierror.Write(w, core.NewInvalidRequestError("method not allowed"), requestID(r))
		return
	}
	start := time.Now()

	var req recapRequest
	if err := decodeJSON(w, r, h.Config.MaxBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(req.Messages) == 0 {
		h.fail(w, r, core.NewInvalidRequestError("messages is required"))
		return
	}
	if h.Config.DeepSeekAPIKey == "" && h.Config.AnthropicAPIKey == "" {
		h.fail(w, r, core.NewConfigurationError(
			"no provider key configured; set DEEPSEEK_API_KEY or ANTHROPIC_API_KEY", "DEEPSEEK_API_KEY"))
		return
	}

	var anthropicProvider, deepseekProvider core.Provider
	if h.Config.AnthropicAPIKey != "" {
		anthropicProvider = h.Providers.New(routing.Decision{
			Provider: routing.ProviderCreative,
			APIKey:   h.Config.AnthropicAPIKey,
		})
	}
	if h.Config.DeepSeekAPIKey != "" {
		deepseekProvider = h.Providers.New(routing.Decision{
			Provider: routing.ProviderDefault,
			APIKey:   h.Config.DeepSeekAPIKey,
		})
	}

	generator := recap.NewGenerator(anthropicProvider, deepseekProvider)
	result, err := generator.Generate(r.Context(), req.Messages, req.Profile, req.FolderLabel)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordRequest("recap", "", "200", time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h RecapHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	coreErr, status := apierror.FromError(err, requestID(r))
	if h.Metrics != nil {
		h.Metrics.RecordError("recap", string(coreErr.Type))
	}
	writeJSON(w, status, apierror.Envelope{Error: coreErr})
}
