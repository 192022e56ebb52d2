package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/core/prompt"
	"github.com/foun-chat/foun/pkg/core/recap"
	"github.com/foun-chat/foun/pkg/core/routing"
	"github.com/foun-chat/foun/pkg/core/types"
	"github.com/foun-chat/foun/pkg/gateway/apierror"
	"github.com/foun-chat/foun/pkg/gateway/config"
	"github.com/foun-chat/foun/pkg/gateway/metrics"
)

// ChatHandler relays a routed completion stream to the web client as
// chunked plain text: one flush per upstream delta, nothing added,
// nothing reordered.
type ChatHandler struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Providers ProviderFactory
}

type chatRequest struct {
	Messages        []types.Message `json:"messages"`
	SystemPrompt    string          `json:"systemPrompt"`
	Profile         *types.Profile  `json:"profile"`
	FolderLabel     string          `json:"folderLabel"`
	VisionerMode    bool            `json:"visionerMode"`
	ContextSessions []recap.Recap   `json:"contextSessions"`
	DeepSeekAPIKey  string          `json:"deepseekApiKey"`
	AnthropicAPIKey string          `json:"anthropicApiKey"`
}

func (h ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		apierror.Write(w, core.NewInvalidRequestError("method not allowed"), requestID(r))
		return
	}
	start := time.Now()

	var req chatRequest
	if err := decodeJSON(w, r, h.Config.MaxBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(req.Messages) == 0 {
		h.fail(w, r, core.NewInvalidRequestError("messages is required"))
		return
	}

	// Client-supplied keys take precedence over the server's.
	creds := h.Config.Credentials()
	if req.DeepSeekAPIKey != "" {
		creds.DeepSeekKey = req.DeepSeekAPIKey
	}
	if req.AnthropicAPIKey != "" {
		creds.AnthropicKey = req.AnthropicAPIKey
	}

	decision := routing.Route(req.Messages, req.VisionerMode, creds)
	if decision.APIKey == "" {
		h.fail(w, r,
			core.NewConfigurationError("missing DeepSeek API key", "DEEPSEEK_API_KEY"))
		return
	}

	system := req.SystemPrompt
	if system == "" && req.Profile != nil {
		system = prompt.BuildSystemPrompt(prompt.Options{
			Profile:      *req.Profile,
			FolderLabel:  req.FolderLabel,
			VisionerMode: req.VisionerMode,
			Context:      req.ContextSessions,
		})
	}

	provider := h.Providers.New(decision)
	stream, err := provider.Stream(r.Context(), &types.ChatRequest{
		Messages: req.Messages,
		System:   system,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	outcome := "200"
	for {
		delta, err := stream.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				outcome = "truncated"
				if h.Logger != nil {
					h.Logger.Warn("chat stream ended early",
						"request_id", requestID(r), "provider", provider.Name(), "error", err)
				}
			}
			break
		}
		if _, err := io.WriteString(w, delta); err != nil {
			outcome = "client_gone"
			break
		}
		if flusher != nil {
			flusher.Flush()
		}
		if h.Metrics != nil {
			h.Metrics.RecordDelta(provider.Name())
		}
	}

	if h.Metrics != nil {
		h.Metrics.RecordRequest("chat", provider.Name(), outcome, time.Since(start))
	}
}

func (h ChatHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	coreErr, status := apierror.FromError(err, requestID(r))
	if h.Metrics != nil {
		h.Metrics.RecordError("chat", string(coreErr.Type))
	}
	writeJSON(w, status, apierror.Envelope{Error: coreErr})
}
