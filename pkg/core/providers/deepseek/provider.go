// Package deepseek implements the DeepSeek chat-completions provider.
// DeepSeek exposes an OpenAI-compatible API, so this adapter also serves
// as the generic OpenAI-compatible streaming shape.
package deepseek

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
	// DefaultBaseURL is the default DeepSeek API endpoint.
	DefaultBaseURL = "https://api.deepseek.com"

	// DefaultModel is used when the request does not name a model.
	DefaultModel = "deepseek-chat"

	// DefaultMaxTokens caps the response when the request does not set a limit.
	DefaultMaxTokens = 1024
)

// Provider implements core.Provider against the DeepSeek API.
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

// New creates a new DeepSeek provider.
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
	return "deepseek"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Stream    bool          `json:"stream,omitempty"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// buildRequest translates the provider-neutral request into the
// OpenAI-compatible wire shape. A system prompt becomes the leading
// system-role message; conversation order is preserved.
func buildRequest(req *types.ChatRequest, stream bool) *chatRequest {
	out := &chatRequest{
		Model:     req.Model,
		Stream:    stream,
		MaxTokens: req.MaxTokens,
	}
	if out.Model == "" {
		out.Model = DefaultModel
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	if req.System != "" {
		out.Messages = append(out.Messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
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
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", core.NewUpstreamError(p.Name(), resp.StatusCode, "response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Stream sends a streaming request and returns an iterator over text deltas.
func (p *Provider) Stream(ctx context.Context, req *types.ChatRequest) (core.DeltaStream, error) {
	resp, err := p.do(ctx, buildRequest(req, true))
	if err != nil {
		return nil, err
	}
	return newDeltaStream(resp.Body), nil
}

// do performs the HTTP call and fails fast on a non-success status so
// callers never see a partially-started stream.
func (p *Provider) do(ctx context.Context, req *chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

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
