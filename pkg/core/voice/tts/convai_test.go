package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foun-chat/foun/pkg/core"
)

func TestCreateAgent(t *testing.T) {
	var gotReq agentCreateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/convai/agents/create" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"agent_id":"agent-abc"}`))
	}))
	defer server.Close()

	client := NewClient("xi-key", WithBaseURL(server.URL))
	id, err := client.CreateAgent(context.Background(), AgentConfig{
		Name:         "Foun",
		Prompt:       "Jesteś Foun, asystentem głosowym.",
		FirstMessage: "Cześć! W czym mogę pomóc?",
		Language:     "pl",
		VoiceID:      "voice-1",
		LLMURL:       "https://gateway.example/api/elevenlabs-llm",
	})
	if err != nil {
		t.Fatalf("CreateAgent() error = %v", err)
	}
	if id != "agent-abc" {
		t.Errorf("agent id = %q", id)
	}
	if gotReq.ConversationConfig.Agent.Language != "pl" {
		t.Errorf("language = %q", gotReq.ConversationConfig.Agent.Language)
	}
	if gotReq.ConversationConfig.TTS.ModelID != ConvAIModelID {
		t.Errorf("tts model = %q, want %q", gotReq.ConversationConfig.TTS.ModelID, ConvAIModelID)
	}
	llm := gotReq.ConversationConfig.LLM
	if llm == nil {
		t.Fatal("conversation_config.llm missing, agent would use the platform LLM")
	}
	if llm.Model != "custom-llm" {
		t.Errorf("llm model = %q, want custom-llm", llm.Model)
	}
	if llm.CustomLLMURL != "https://gateway.example/api/elevenlabs-llm" {
		t.Errorf("custom_llm_url = %q", llm.CustomLLMURL)
	}
}

// Without an LLM URL (voice-only provisioning) the llm block is omitted
// rather than sent half-filled.
func TestCreateAgentWithoutLLMURL(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		raw = body
		w.Write([]byte(`{"agent_id":"agent-abc"}`))
	}))
	defer server.Close()

	client := NewClient("xi-key", WithBaseURL(server.URL))
	if _, err := client.CreateAgent(context.Background(), AgentConfig{Name: "Foun"}); err != nil {
		t.Fatalf("CreateAgent() error = %v", err)
	}
	cc, _ := raw["conversation_config"].(map[string]any)
	if _, ok := cc["llm"]; ok {
		t.Error("llm block present without a custom LLM URL")
	}
}

func TestCreateAgentMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("xi-key", WithBaseURL(server.URL))
	if _, err := client.CreateAgent(context.Background(), AgentConfig{Name: "Foun"}); err == nil {
		t.Fatal("expected error for missing agent_id")
	}
}

func TestSignedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/convai/conversation/get_signed_url" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("agent_id"); got != "agent-abc" {
			t.Errorf("agent_id = %q", got)
		}
		w.Write([]byte(`{"signed_url":"wss://api.elevenlabs.io/v1/convai/conversation?token=tok"}`))
	}))
	defer server.Close()

	client := NewClient("xi-key", WithBaseURL(server.URL))
	u, err := client.SignedURL(context.Background(), "agent-abc")
	if err != nil {
		t.Fatalf("SignedURL() error = %v", err)
	}
	if u != "wss://api.elevenlabs.io/v1/convai/conversation?token=tok" {
		t.Errorf("signed url = %q", u)
	}
}

func TestSignedURLUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"agent not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("xi-key", WithBaseURL(server.URL))
	_, err := client.SignedURL(context.Background(), "missing")
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		t.Fatalf("error type = %T, want *core.Error", err)
	}
	if coreErr.UpstreamStatus != http.StatusNotFound {
		t.Errorf("UpstreamStatus = %d, want 404", coreErr.UpstreamStatus)
	}
}

func TestSignedURLRequiresAgentID(t *testing.T) {
	client := NewClient("xi-key")
	if _, err := client.SignedURL(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty agent id")
	}
}
