package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/foun-chat/foun/pkg/core"
)

// ConvAIModelID is the low-latency model used by hosted conversational
// agents.
const ConvAIModelID = "eleven_turbo_v2_5"

// AgentConfig describes a hosted conversational agent to provision.
// LLMURL points the agent's custom-LLM backend at this gateway's relay;
// without it the agent would answer with the platform's stock model.
type AgentConfig struct {
	Name         string
	Prompt       string
	FirstMessage string
	Language     string
	VoiceID      string
	LLMURL       string
}

type agentLLMConfig struct {
	Model              string         `json:"model"`
	CustomLLMURL       string         `json:"custom_llm_url"`
	CustomLLMExtraBody map[string]any `json:"custom_llm_extra_body"`
}

type agentCreateRequest struct {
	Name               string `json:"name"`
	ConversationConfig struct {
		Agent struct {
			Prompt struct {
				Prompt string `json:"prompt"`
			} `json:"prompt"`
			FirstMessage string `json:"first_message"`
			Language     string `json:"language"`
		} `json:"agent"`
		LLM *agentLLMConfig `json:"llm,omitempty"`
		TTS struct {
			VoiceID string `json:"voice_id"`
			ModelID string `json:"model_id"`
		} `json:"tts"`
	} `json:"conversation_config"`
}

// CreateAgent provisions a hosted ConvAI agent and returns its id.
func (c *Client) CreateAgent(ctx context.Context, cfg AgentConfig) (string, error) {
	req := agentCreateRequest{Name: cfg.Name}
	req.ConversationConfig.Agent.Prompt.Prompt = cfg.Prompt
	req.ConversationConfig.Agent.FirstMessage = cfg.FirstMessage
	req.ConversationConfig.Agent.Language = cfg.Language
	if cfg.LLMURL != "" {
		req.ConversationConfig.LLM = &agentLLMConfig{
			Model:              "custom-llm",
			CustomLLMURL:       cfg.LLMURL,
			CustomLLMExtraBody: map[string]any{},
		}
	}
	req.ConversationConfig.TTS.VoiceID = cfg.VoiceID
	req.ConversationConfig.TTS.ModelID = ConvAIModelID

	body, err := c.doJSON(ctx, http.MethodPost, "/v1/convai/agents/create", req)
	if err != nil {
		return "", err
	}
	var parsed struct {
		AgentID string `json:"agent_id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.AgentID == "" {
		return "", core.NewUpstreamError("elevenlabs", http.StatusOK, "agent creation returned no agent_id")
	}
	return parsed.AgentID, nil
}

// SignedURL fetches a short-lived websocket URL that lets a client talk
// to the agent without holding the API key.
func (c *Client) SignedURL(ctx context.Context, agentID string) (string, error) {
	if agentID == "" {
		return "", core.NewInvalidRequestError("agentId is required")
	}
	path := "/v1/convai/conversation/get_signed_url?agent_id=" + url.QueryEscape(agentID)
	body, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	var parsed struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.SignedURL == "" {
		return "", core.NewUpstreamError("elevenlabs", http.StatusOK, "signed url response was empty")
	}
	return parsed.SignedURL, nil
}

// doJSON performs one API call and returns the raw response body, or an
// upstream error carrying the status and body on a non-success status.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
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
	return body, nil
}
