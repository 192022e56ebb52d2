package handlers

import (
	"io"
	"net/http"

	"github.com/foun-chat/foun/pkg/gateway/config"
)

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok\n")
}

// ReadyHandler answers readiness probes. The gateway is ready when at
// least one chat provider key is configured.
type ReadyHandler struct {
	Config config.Config
}

type readyResponse struct {
	Ready  bool     `json:"ready"`
	Issues []string `json:"issues,omitempty"`
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var issues []string
	if h.Config.DeepSeekAPIKey == "" && h.Config.AnthropicAPIKey == "" {
		issues = append(issues, "no chat provider key configured")
	}
	if h.Config.OpenAIAPIKey == "" {
		issues = append(issues, "transcription disabled: OPENAI_API_KEY not set")
	}
	if h.Config.ElevenLabsAPIKey == "" {
		issues = append(issues, "speech synthesis disabled: ELEVENLABS_API_KEY not set")
	}

	resp := readyResponse{Ready: len(issues) == 0, Issues: issues}
	status := http.StatusOK
	if h.Config.DeepSeekAPIKey == "" && h.Config.AnthropicAPIKey == "" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
