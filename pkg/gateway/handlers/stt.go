package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/core/voice/stt"
	"github.com/foun-chat/foun/pkg/gateway/apierror"
	"github.com/foun-chat/foun/pkg/gateway/config"
	"github.com/foun-chat/foun/pkg/gateway/metrics"
)

// STTHandler transcribes an uploaded audio clip via Whisper.
type STTHandler struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (h STTHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		apierror.Write(w, core.NewInvalidRequestError("method not allowed"), requestID(r))
		return
	}
	start := time.Now()

	if h.Config.OpenAIAPIKey == "" {
		h.fail(w, r, core.NewConfigurationError("missing OpenAI API key", "OPENAI_API_KEY"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxAudioBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, core.NewInvalidRequestError("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	filename := header.Filename
	if filename == "" {
		filename = "audio.webm"
	}

	var opts []stt.Option
	if h.Config.OpenAIBaseURL != "" {
		opts = append(opts, stt.WithBaseURL(h.Config.OpenAIBaseURL))
	}
	client := stt.NewClient(h.Config.OpenAIAPIKey, opts...)

	text, err := client.Transcribe(r.Context(), file, filename)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordRequest("stt", "whisper", "200", time.Since(start))
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h STTHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	coreErr, status := apierror.FromError(err, requestID(r))
	if h.Metrics != nil {
		h.Metrics.RecordError("stt", string(coreErr.Type))
	}
	writeJSON(w, status, apierror.Envelope{Error: coreErr})
}
