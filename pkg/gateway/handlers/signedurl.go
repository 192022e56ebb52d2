package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/core/voice"
	"github.com/foun-chat/foun/pkg/core/voice/tts"
	"github.com/foun-chat/foun/pkg/gateway/apierror"
	"github.com/foun-chat/foun/pkg/gateway/config"
	"github.com/foun-chat/foun/pkg/gateway/metrics"
)

// AgentCache remembers the ConvAI agent created for this server so we
// do not create a new agent on every conversation.
type AgentCache struct {
	mu sync.Mutex
	id string
}

// Resolve returns the cached agent id, creating one via create on the
// first call. Concurrent callers serialize so only one agent is made.
func (c *AgentCache) Resolve(create func() (string, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id != "" {
		return c.id, nil
	}
	id, err := create()
	if err != nil {
		return "", err
	}
	c.id = id
	return id, nil
}

// SignedURLHandler hands the browser a short-lived signed WebSocket URL
// for the hosted ElevenLabs conversational agent.
type SignedURLHandler struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	TTS     *tts.Client
	Agents  *AgentCache
}

type signedURLResponse struct {
	AgentID   string `json:"agentId"`
	SignedURL string `json:"signedUrl"`
}

func (h SignedURLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		apierror.Write(w, core.NewInvalidRequestError("method not allowed"), requestID(r))
		return
	}
	start := time.Now()

	if h.Config.ElevenLabsAPIKey == "" {
		h.fail(w, r, core.NewConfigurationError("missing ElevenLabs API key", "ELEVENLABS_API_KEY"))
		return
	}

	agentID := h.Config.ElevenLabsAgentID
	if agentID == "" {
		llmURL := publicBaseURL(r) + "/api/elevenlabs-llm"
		var err error
		agentID, err = h.Agents.Resolve(func() (string, error) {
			if h.Logger != nil {
				h.Logger.Info("creating conversational agent",
					"request_id", requestID(r), "llm_url", llmURL)
			}
			return h.TTS.CreateAgent(r.Context(), tts.AgentConfig{
				Name:         "Foun",
				Prompt:       "Jesteś Foun, doświadczonym founderem i mentorem dla przedsiębiorców. Rozmawiasz po polsku, konkretnie i bez owijania w bawełnę. Dzielisz się doświadczeniem z budowania firm.",
				FirstMessage: "Cześć! Tu Foun. O czym dziś gadamy?",
				Language:     "pl",
				VoiceID:      voice.DefaultVoice.VoiceID,
				LLMURL:       llmURL,
			})
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
	}

	signedURL, err := h.TTS.SignedURL(r.Context(), agentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordRequest("signed-url", "elevenlabs", "200", time.Since(start))
	}
	writeJSON(w, http.StatusOK, signedURLResponse{AgentID: agentID, SignedURL: signedURL})
}

// publicBaseURL reconstructs the externally reachable gateway URL from
// the request so the hosted agent can call back into the relay. Local
// hosts get plain http, anything else https.
func publicBaseURL(r *http.Request) string {
	host := r.Host
	if host == "" {
		host = "localhost:8080"
	}
	scheme := "https"
	if strings.HasPrefix(host, "localhost") || strings.HasPrefix(host, "127.0.0.1") {
		scheme = "http"
	}
	return scheme + "://" + host
}

func (h SignedURLHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	coreErr, status := apierror.FromError(err, requestID(r))
	if h.Metrics != nil {
		h.Metrics.RecordError("signed-url", string(coreErr.Type))
	}
	writeJSON(w, status, apierror.Envelope{Error: coreErr})
}
