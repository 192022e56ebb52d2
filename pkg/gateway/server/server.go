// Package server wires the gateway's handlers, middleware, and shared
// clients into one http.Handler.
package server

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/foun-chat/foun/pkg/core/voice/tts"
	"github.com/foun-chat/foun/pkg/gateway/config"
	"github.com/foun-chat/foun/pkg/gateway/handlers"
	"github.com/foun-chat/foun/pkg/gateway/metrics"
	"github.com/foun-chat/foun/pkg/gateway/mw"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	metrics   *metrics.Metrics
	providers handlers.ProviderFactory
	ttsClient *tts.Client
	agents    *handlers.AgentCache
}

func New(cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	var ttsOpts []tts.Option
	if cfg.ElevenLabsBaseURL != "" {
		ttsOpts = append(ttsOpts, tts.WithBaseURL(cfg.ElevenLabsBaseURL))
	}
	ttsOpts = append(ttsOpts, tts.WithHTTPClient(httpClient))

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		mux:     http.NewServeMux(),
		metrics: metrics.New(cfg.MetricsNamespace),
		providers: handlers.ProviderFactory{
			DeepSeekBaseURL:  cfg.DeepSeekBaseURL,
			AnthropicBaseURL: cfg.AnthropicBaseURL,
			HTTPClient:       httpClient,
		},
		ttsClient: tts.NewClient(cfg.ElevenLabsAPIKey, ttsOpts...),
		agents:    &handlers.AgentCache{},
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", handlers.HealthHandler)
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg})
	s.mux.Handle("/metrics", s.metrics.Handler())

	s.mux.Handle("/api/chat", handlers.ChatHandler{
		Config:    s.cfg,
		Logger:    s.logger,
		Metrics:   s.metrics,
		Providers: s.providers,
	})
	s.mux.Handle("/api/elevenlabs-llm", handlers.VoiceLLMHandler{
		Config:    s.cfg,
		Logger:    s.logger,
		Metrics:   s.metrics,
		Providers: s.providers,
	})
	s.mux.Handle("/api/recap", handlers.RecapHandler{
		Config:    s.cfg,
		Logger:    s.logger,
		Metrics:   s.metrics,
		Providers: s.providers,
	})
	s.mux.Handle("/api/stt", handlers.STTHandler{
		Config:  s.cfg,
		Logger:  s.logger,
		Metrics: s.metrics,
	})
	s.mux.Handle("/api/tts", handlers.TTSHandler{
		Config:  s.cfg,
		Logger:  s.logger,
		Metrics: s.metrics,
		TTS:     s.ttsClient,
	})
	s.mux.Handle("/api/tts-test", handlers.TTSTestHandler{
		Config: s.cfg,
		Logger: s.logger,
		TTS:    s.ttsClient,
	})
	s.mux.Handle("/api/elevenlabs/signed-url", handlers.SignedURLHandler{
		Config:  s.cfg,
		Logger:  s.logger,
		Metrics: s.metrics,
		TTS:     s.ttsClient,
		Agents:  s.agents,
	})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
