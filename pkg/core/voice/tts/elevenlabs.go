// Package tts implements text-to-speech against the ElevenLabs API:
// one-shot HTTP synthesis for the gateway endpoints, websocket
// stream-input synthesis for the low-latency voice session, and ConvAI
// agent provisioning.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/foun-chat/foun/pkg/core"
)

const (
	// DefaultBaseURL is the ElevenLabs REST endpoint.
	DefaultBaseURL = "https://api.elevenlabs.io"

	// DefaultModelID is the multilingual synthesis model used for
	// one-shot clips. Polish output needs the multilingual family.
	DefaultModelID = "eleven_multilingual_v2"

	// StreamModelID is the low-latency model used on the websocket
	// stream-input path.
	StreamModelID = "eleven_flash_v2_5"
)

// Settings are the per-request ElevenLabs voice tuning knobs.
type Settings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	SpeakerBoost    bool    `json:"use_speaker_boost"`
}

// DefaultSettings matches the server-side synthesis defaults.
var DefaultSettings = Settings{
	Stability:       0.5,
	SimilarityBoost: 0.85,
	Style:           0.35,
	SpeakerBoost:    true,
}

// Client talks to the ElevenLabs API.
type Client struct {
	apiKey     string
	baseURL    string
	wsBaseURL  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the REST endpoint (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithWSBaseURL overrides the websocket endpoint (used by tests).
func WithWSBaseURL(wsBaseURL string) Option {
	return func(c *Client) { c.wsBaseURL = wsBaseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient creates an ElevenLabs client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type synthesizeRequest struct {
	Text          string   `json:"text"`
	ModelID       string   `json:"model_id"`
	VoiceSettings Settings `json:"voice_settings"`
}

// Synthesize converts text to one MP3 clip using the given voice. A nil
// settings pointer applies DefaultSettings.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, settings *Settings) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, core.NewInvalidRequestError("text is required")
	}
	if strings.TrimSpace(voiceID) == "" {
		return nil, core.NewInvalidRequestError("voiceId is required")
	}
	s := DefaultSettings
	if settings != nil {
		s = *settings
	}

	payload, err := json.Marshal(synthesizeRequest{
		Text:          text,
		ModelID:       DefaultModelID,
		VoiceSettings: s,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.NewTransportError("elevenlabs", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, core.NewUpstreamError("elevenlabs", resp.StatusCode, string(body))
	}
	return body, nil
}

// Voice describes one available ElevenLabs voice.
type Voice struct {
	ID       string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

// Voices lists the voices the API key has access to.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.NewTransportError("elevenlabs", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, core.NewUpstreamError("elevenlabs", resp.StatusCode, string(body))
	}

	var parsed voicesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return parsed.Voices, nil
}

// Speaker binds the client to fixed settings so it can serve as a
// per-sentence synthesizer for a voice session.
type Speaker struct {
	client   *Client
	settings Settings
}

// Speaker returns a fixed-settings synthesizer backed by this client.
func (c *Client) Speaker(settings Settings) *Speaker {
	return &Speaker{client: c, settings: settings}
}

// Synthesize produces audio for one sentence.
func (s *Speaker) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	return s.client.Synthesize(ctx, text, voiceID, &s.settings)
}
