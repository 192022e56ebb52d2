package handlers

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// readSSEData collects the data payloads from an SSE body.
func readSSEData(t *testing.T, body string) []string {
	t.Helper()
	var out []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			out = append(out, strings.TrimPrefix(line, "data: "))
		}
	}
	return out
}

func TestVoiceLLMEmitsChunkFrames(t *testing.T) {
	upstream := newDeepSeekStream(t, []string{"Cześć", "!"}, nil)
	defer upstream.Close()

	cfg := testConfig()
	cfg.DeepSeekAPIKey = "sk-test"
	handler := VoiceLLMHandler{
		Config:    cfg,
		Logger:    testLogger(),
		Providers: ProviderFactory{DeepSeekBaseURL: upstream.URL},
	}

	body := `{"model":"gpt-4o-mini","messages":[{"role":"user","content":"Hej"}],"stream":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/elevenlabs-llm", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	frames := readSSEData(t, rec.Body.String())
	// Two deltas, one stop frame, one [DONE].
	if len(frames) != 4 {
		t.Fatalf("frames = %d, want 4; body: %s", len(frames), rec.Body.String())
	}
	if frames[len(frames)-1] != "[DONE]" {
		t.Errorf("last frame = %q, want [DONE]", frames[len(frames)-1])
	}

	var first struct {
		Object  string `json:"object"`
		Model   string `json:"model"`
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
			FinishReason *string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(frames[0]), &first); err != nil {
		t.Fatalf("decode first frame: %v", err)
	}
	if first.Object != "chat.completion.chunk" {
		t.Errorf("object = %q, want chat.completion.chunk", first.Object)
	}
	if first.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want the requested model echoed", first.Model)
	}
	if len(first.Choices) != 1 || first.Choices[0].Delta.Content != "Cześć" {
		t.Errorf("first delta = %+v, want Cześć", first.Choices)
	}

	var stop struct {
		Choices []struct {
			FinishReason *string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(frames[2]), &stop); err != nil {
		t.Fatalf("decode stop frame: %v", err)
	}
	if len(stop.Choices) != 1 || stop.Choices[0].FinishReason == nil || *stop.Choices[0].FinishReason != "stop" {
		t.Errorf("stop frame = %+v, want finish_reason stop", stop.Choices)
	}
}

func TestVoiceLLMFoldsSystemMessage(t *testing.T) {
	var captured []byte
	upstream := newDeepSeekStream(t, []string{"Ok"}, &captured)
	defer upstream.Close()

	cfg := testConfig()
	cfg.DeepSeekAPIKey = "sk-test"
	handler := VoiceLLMHandler{
		Config:    cfg,
		Logger:    testLogger(),
		Providers: ProviderFactory{DeepSeekBaseURL: upstream.URL},
	}

	body := `{"messages":[{"role":"system","content":"Jesteś Foun."},{"role":"user","content":"Hej"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/elevenlabs-llm", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var wire struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(captured, &wire); err != nil {
		t.Fatalf("decode upstream request: %v", err)
	}
	if len(wire.Messages) != 2 {
		t.Fatalf("upstream messages = %d, want 2", len(wire.Messages))
	}
	if wire.Messages[0].Role != "system" || wire.Messages[0].Content != "Jesteś Foun." {
		t.Errorf("leading message = %+v, want the folded system prompt", wire.Messages[0])
	}
	if wire.Messages[1].Role != "user" {
		t.Errorf("second message role = %q, want user", wire.Messages[1].Role)
	}
}

func TestVoiceLLMCreativeUsesFastAnthropicModel(t *testing.T) {
	var captured []byte
	upstream := newAnthropicStream(t, []string{"Ok"}, &captured)
	defer upstream.Close()

	cfg := testConfig()
	cfg.DeepSeekAPIKey = "sk-ds"
	cfg.AnthropicAPIKey = "sk-ant"
	handler := VoiceLLMHandler{
		Config:    cfg,
		Logger:    testLogger(),
		Providers: ProviderFactory{AnthropicBaseURL: upstream.URL},
	}

	body := `{"messages":[{"role":"user","content":"Zaproponuj szalony pomysł na pivot"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/elevenlabs-llm", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var wire struct {
		Model string `json:"model"`
	}
	if err := json.Unmarshal(captured, &wire); err != nil {
		t.Fatalf("decode upstream request: %v", err)
	}
	if wire.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("model = %q, want the low-latency voice model", wire.Model)
	}
}

func TestVoiceLLMMissingKey(t *testing.T) {
	handler := VoiceLLMHandler{Config: testConfig(), Logger: testLogger()}

	body := `{"messages":[{"role":"user","content":"Hej"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/elevenlabs-llm", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
