// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/foun-chat/foun/pkg/core/routing"
)

type Config struct {
	Addr string

	// Provider credentials. All optional individually; the chat path
	// requires at least the DeepSeek key at request time.
	DeepSeekAPIKey   string
	AnthropicAPIKey  string
	OpenAIAPIKey     string // Whisper transcription
	ElevenLabsAPIKey string

	// Pre-provisioned ConvAI agent. When empty the gateway provisions
	// one on first signed-url request and caches the id.
	ElevenLabsAgentID string

	// Base URL overrides, mainly for tests and self-hosted mirrors.
	DeepSeekBaseURL   string
	AnthropicBaseURL  string
	OpenAIBaseURL     string
	ElevenLabsBaseURL string

	// CORS allowlist; empty disables CORS entirely.
	CORSAllowedOrigins map[string]struct{}

	MaxBodyBytes  int64
	MaxAudioBytes int64

	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration

	MetricsNamespace string
}

// LoadFromEnv reads configuration from environment variables, applying
// defaults and validating ranges.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("FOUN_ADDR", ":8080"),
		DeepSeekAPIKey:      strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY")),
		AnthropicAPIKey:     strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		OpenAIAPIKey:        strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		ElevenLabsAPIKey:    strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		ElevenLabsAgentID:   strings.TrimSpace(os.Getenv("ELEVENLABS_AGENT_ID")),
		DeepSeekBaseURL:     envOr("FOUN_DEEPSEEK_BASE_URL", ""),
		AnthropicBaseURL:    envOr("FOUN_ANTHROPIC_BASE_URL", ""),
		OpenAIBaseURL:       envOr("FOUN_OPENAI_BASE_URL", ""),
		ElevenLabsBaseURL:   envOr("FOUN_ELEVENLABS_BASE_URL", ""),
		CORSAllowedOrigins:  make(map[string]struct{}),
		MaxBodyBytes:        envInt64Or("FOUN_MAX_BODY_BYTES", 1<<20),   // 1 MiB JSON bodies
		MaxAudioBytes:       envInt64Or("FOUN_MAX_AUDIO_BYTES", 24<<20), // 24 MiB uploads
		ReadHeaderTimeout:   envDurationOr("FOUN_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("FOUN_READ_TIMEOUT", 60*time.Second),
		ShutdownGracePeriod: envDurationOr("FOUN_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		MetricsNamespace:    envOr("FOUN_METRICS_NAMESPACE", "foun"),
	}

	for _, origin := range splitCSV(os.Getenv("FOUN_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("FOUN_MAX_BODY_BYTES must be > 0")
	}
	if cfg.MaxAudioBytes <= 0 {
		return Config{}, fmt.Errorf("FOUN_MAX_AUDIO_BYTES must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("FOUN_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("FOUN_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("FOUN_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

// Credentials returns the server-side provider keys in router form.
func (c Config) Credentials() routing.Credentials {
	return routing.Credentials{
		DeepSeekKey:  c.DeepSeekAPIKey,
		AnthropicKey: c.AnthropicAPIKey,
	}
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
