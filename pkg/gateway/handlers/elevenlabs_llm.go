package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/core/providers/anthropic"
	"github.com/foun-chat/foun/pkg/core/routing"
	"github.com/foun-chat/foun/pkg/core/types"
	"github.com/foun-chat/foun/pkg/gateway/apierror"
	"github.com/foun-chat/foun/pkg/gateway/config"
	"github.com/foun-chat/foun/pkg/gateway/metrics"
	"github.com/foun-chat/foun/pkg/gateway/sse"
)

// VoiceLLMHandler is the custom-LLM backend for the hosted voice agent.
// It accepts an OpenAI-chat-shaped request and answers with OpenAI
// chat-completion chunk frames over SSE, whichever provider actually
// generated the text. The voice path favors latency: when routing picks
// Anthropic it uses the fast model.
type VoiceLLMHandler struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Providers ProviderFactory
}

type voiceLLMRequest struct {
	Model    string          `json:"model"`
	Messages []types.Message `json:"messages"`
	Stream   bool            `json:"stream"`
}

func (h VoiceLLMHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		apierror.Write(w, core.NewInvalidRequestError("method not allowed"), requestID(r))
		return
	}
	start := time.Now()

	var req voiceLLMRequest
	if err := decodeJSON(w, r, h.Config.MaxBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(req.Messages) == 0 {
		h.fail(w, r, core.NewInvalidRequestError("messages is required"))
		return
	}

	// The agent platform sends the system prompt as a leading
	// system-role message.
	system, rest := types.SplitSystem(req.Messages)

	decision := routing.Route(rest, false, h.Config.Credentials())
	if decision.APIKey == "" {
		h.fail(w, r, core.NewConfigurationError("missing DeepSeek API key", "DEEPSEEK_API_KEY"))
		return
	}

	model := ""
	if decision.Provider == routing.ProviderCreative {
		model = anthropic.VoiceModel
	}

	provider := h.Providers.New(decision)
	stream, err := provider.Stream(r.Context(), &types.ChatRequest{
		Messages: rest,
		System:   system,
		Model:    model,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer stream.Close()

	frameModel := model
	if frameModel == "" {
		frameModel = req.Model
	}
	writer, err := sse.New(w, frameModel)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	outcome := "200"
	for {
		delta, err := stream.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				outcome = "truncated"
				if h.Logger != nil {
					h.Logger.Warn("voice llm stream ended early",
						"request_id", requestID(r), "provider", provider.Name(), "error", err)
				}
			}
			break
		}
		if err := writer.SendDelta(delta); err != nil {
			outcome = "client_gone"
			break
		}
		if h.Metrics != nil {
			h.Metrics.RecordDelta(provider.Name())
		}
	}

	_ = writer.SendStop()
	_ = writer.SendDone()

	if h.Metrics != nil {
		h.Metrics.RecordRequest("elevenlabs-llm", provider.Name(), outcome, time.Since(start))
	}
}

func (h VoiceLLMHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	coreErr, status := apierror.FromError(err, requestID(r))
	if h.Metrics != nil {
		h.Metrics.RecordError("elevenlabs-llm", string(coreErr.Type))
	}
	writeJSON(w, status, apierror.Envelope{Error: coreErr})
}
