package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/core/voice"
	"github.com/foun-chat/foun/pkg/core/voice/tts"
	"github.com/foun-chat/foun/pkg/gateway/apierror"
	"github.com/foun-chat/foun/pkg/gateway/config"
	"github.com/foun-chat/foun/pkg/gateway/metrics"
)

// TTSHandler converts one text snippet to an MP3 clip.
type TTSHandler struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	TTS     *tts.Client
}

type ttsRequest struct {
	Text            string   `json:"text"`
	VoiceID         string   `json:"voiceId"`
	Stability       *float64 `json:"stability"`
	SimilarityBoost *float64 `json:"similarityBoost"`
	Style           *float64 `json:"style"`
	SpeakerBoost    *bool    `json:"speakerBoost"`
}

func (h TTSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	var req ttsRequest
	if err := decodeJSON(w, r, h.Config.MaxBodyBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Text == "" {
		h.fail(w, r, core.NewInvalidRequestError("text is required"))
		return
	}
	if req.VoiceID == "" {
		req.VoiceID = voice.DefaultVoice.VoiceID
	}

	settings := tts.DefaultSettings
	if req.Stability != nil {
		settings.Stability = *req.Stability
	}
	if req.SimilarityBoost != nil {
		settings.SimilarityBoost = *req.SimilarityBoost
	}
	if req.Style != nil {
		settings.Style = *req.Style
	}
	if req.SpeakerBoost != nil {
		settings.SpeakerBoost = *req.SpeakerBoost
	}

	audio, err := h.TTS.Synthesize(r.Context(), req.Text, req.VoiceID, &settings)
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.RecordSynthesis("error")
		}
		h.fail(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordSynthesis("ok")
		h.Metrics.RecordRequest("tts", "elevenlabs", "200", time.Since(start))
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (h TTSHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	coreErr, status := apierror.FromError(err, requestID(r))
	if h.Metrics != nil {
		h.Metrics.RecordError("tts", string(coreErr.Type))
	}
	writeJSON(w, status, apierror.Envelope{Error: coreErr})
}

// TTSTestHandler is the diagnostic endpoint: it reports whether the
// ElevenLabs key is configured and usable, plus a sample of voices.
type TTSTestHandler struct {
	Config config.Config
	Logger *slog.Logger
	TTS    *tts.Client
}

type ttsTestResponse struct {
	Configured bool        `json:"configured"`
	KeyValid   bool        `json:"keyValid"`
	VoiceCount int         `json:"voiceCount"`
	Voices     []tts.Voice `json:"voices,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func (h TTSTestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Config.ElevenLabsAPIKey == "" {
		writeJSON(w, http.StatusOK, ttsTestResponse{Configured: false})
		return
	}

	voices, err := h.TTS.Voices(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, ttsTestResponse{
			Configured: true,
			KeyValid:   false,
			Error:      err.Error(),
		})
		return
	}

	sample := voices
	if len(sample) > 10 {
		sample = sample[:10]
	}
	writeJSON(w, http.StatusOK, ttsTestResponse{
		Configured: true,
		KeyValid:   true,
		VoiceCount: len(voices),
		Voices:     sample,
	})
}
