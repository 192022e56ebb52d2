// Package anthropic implements the Anthropic Messages API provider,
// the creative-route target. Its native streaming protocol emits typed
// events; only text deltas inside content_block_delta events carry
// response text.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/core/types"
)

const (
	// DefaultBaseURL is the default Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// APIVersion is the required Anthropic API version header.
	APIVersion = "2023-06-01"

	// DefaultModel is the text-chat model.
	DefaultModel = "claude-sonnet-4-6"

	// VoiceModel is the low-latency model used by the voice-agent relay.
	VoiceModel = "claude-haiku-4-5-20251001"

	// DefaultMaxTokens caps the response when the request does not set a limit.
	DefaultMaxTokens = 1024
)

// Provider implements core.Provider against the Anthropic Messages API.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// New creates a new Anthropic provider.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "anthropic"
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Stream    bool               `json:"stream,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// buildRequest translates the provider-neutral request. Anthropic takes
// the system prompt as a top-level field and rejects system-role
// messages, so any inline ones are folded out of the turn list.
func buildRequest(req *types.ChatRequest, stream bool) *anthropicRequest {
	out := &anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Stream:    stream,
	}
	if out.Model == "" {
		out.Model = DefaultModel
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	for _, m := range req.Messages {
		if m.Role == types.RoleSystem {
			if out.System == "" {
				out.System = m.Content
			}
			continue
		}
		out.Messages = append(out.Messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// Complete sends a non-streaming request and returns the response text.
func (p *Provider) Complete(ctx context.Context, req *types.ChatRequest) (string, error) {
	resp, err := p.do(ctx, buildRequest(req, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", core.NewUpstreamError(p.Name(), resp.StatusCode, "response contained no text block")
}

// Stream sends a streaming request and returns an iterator over text deltas.
func (p *Provider) Stream(ctx context.Context, req *types.ChatRequest) (core.DeltaStream, error) {
	resp, err := p.do(ctx, buildRequest(req, true))
	if err != nil {
		return nil, err
	}
	return newDeltaStream(resp.Body), nil
}

func (p *Provider) do(ctx context.Context, req *anthropicRequest) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", p.apiKey)
	httpReq.Header.Set("anthropic-version", APIVersion)
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewTransportError(p.Name(), err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, core.NewUpstreamError(p.Name(), resp.StatusCode, string(body))
	}
	return resp, nil
}
