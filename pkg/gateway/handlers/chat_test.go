package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/gateway/apierror"
	"github.com/foun-chat/foun/pkg/gateway/metrics"
)

func TestChatStreamsPlainText(t *testing.T) {
	upstream := newDeepSeekStream(t, []string{"Hej", ", co", " słychać?"}, nil)
	defer upstream.Close()

	cfg := testConfig()
	cfg.DeepSeekAPIKey = "sk-test"
	handler := ChatHandler{
		Config:    cfg,
		Logger:    testLogger(),
		Providers: ProviderFactory{DeepSeekBaseURL: upstream.URL},
	}

	body := `{"messages":[{"role":"user","content":"Cześć"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if got := rec.Body.String(); got != "Hej, co słychać?" {
		t.Errorf("body = %q, want %q", got, "Hej, co słychać?")
	}
}

func TestChatVisionerModeUsesAnthropic(t *testing.T) {
	var deepseekHit bool
	deepseek := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deepseekHit = true
	}))
	defer deepseek.Close()
	anthropic := newAnthropicStream(t, []string{"Szalony ", "pomysł"}, nil)
	defer anthropic.Close()

	cfg := testConfig()
	cfg.DeepSeekAPIKey = "sk-ds"
	cfg.AnthropicAPIKey = "sk-ant"
	handler := ChatHandler{
		Config: cfg,
		Logger: testLogger(),
		Providers: ProviderFactory{
			DeepSeekBaseURL:  deepseek.URL,
			AnthropicBaseURL: anthropic.URL,
		},
	}

	body := `{"messages":[{"role":"user","content":"Co dalej?"}],"visionerMode":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "Szalony pomysł" {
		t.Errorf("body = %q, want %q", got, "Szalony pomysł")
	}
	if deepseekHit {
		t.Error("deepseek upstream was called for a visioner request")
	}
}

func TestChatCreativeKeywordUsesAnthropic(t *testing.T) {
	anthropic := newAnthropicStream(t, []string{"Ok"}, nil)
	defer anthropic.Close()

	cfg := testConfig()
	cfg.DeepSeekAPIKey = "sk-ds"
	cfg.AnthropicAPIKey = "sk-ant"
	handler := ChatHandler{
		Config:    cfg,
		Logger:    testLogger(),
		Providers: ProviderFactory{AnthropicBaseURL: anthropic.URL},
	}

	body := `{"messages":[{"role":"user","content":"Zaproponuj kreatywną strategię"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
}

func TestChatUpstreamErrorBeforeStream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.DeepSeekAPIKey = "sk-test"
	handler := ChatHandler{
		Config:    cfg,
		Logger:    testLogger(),
		Providers: ProviderFactory{DeepSeekBaseURL: upstream.URL},
	}

	body := `{"messages":[{"role":"user","content":"Cześć"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429; body: %s", rec.Code, rec.Body.String())
	}
	var envelope apierror.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error == nil || envelope.Error.Type != core.ErrUpstream {
		t.Fatalf("error = %+v, want upstream error", envelope.Error)
	}
	if envelope.Error.UpstreamStatus != http.StatusTooManyRequests {
		t.Errorf("UpstreamStatus = %d, want 429", envelope.Error.UpstreamStatus)
	}
	if !strings.Contains(envelope.Error.UpstreamBody, "rate limited") {
		t.Errorf("UpstreamBody = %q, want the upstream payload", envelope.Error.UpstreamBody)
	}
}

// A stream cut mid-response must not be counted as a clean 200.
func TestChatRecordsTruncatedStream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hej\"}}]}\n\n")
		w.(http.Flusher).Flush()
		// Drop the connection without the [DONE] marker or a chunked
		// terminator, so the client sees a read error mid-stream.
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Fatalf("hijack: %v", err)
		}
		conn.Close()
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.DeepSeekAPIKey = "sk-test"
	m := metrics.New("chattest")
	handler := ChatHandler{
		Config:    cfg,
		Logger:    testLogger(),
		Metrics:   m,
		Providers: ProviderFactory{DeepSeekBaseURL: upstream.URL},
	}

	body := `{"messages":[{"role":"user","content":"Cześć"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (headers were already sent)", rec.Code)
	}
	if got := rec.Body.String(); got != "Hej" {
		t.Errorf("body = %q, want the relayed prefix", got)
	}

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(scrape.Body.String(), `status="truncated"`) {
		t.Error("truncated stream was not recorded as truncated")
	}
	if strings.Contains(scrape.Body.String(), `status="200"`) {
		t.Error("truncated stream was recorded as a clean 200")
	}
}

func TestChatClientKeyOverridesServerKey(t *testing.T) {
	var auth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.DeepSeekAPIKey = "sk-server"
	handler := ChatHandler{
		Config:    cfg,
		Logger:    testLogger(),
		Providers: ProviderFactory{DeepSeekBaseURL: upstream.URL},
	}

	body := `{"messages":[{"role":"user","content":"Cześć"}],"deepseekApiKey":"sk-client"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if auth != "Bearer sk-client" {
		t.Errorf("Authorization = %q, want the client-supplied key", auth)
	}
}

func TestChatMissingKey(t *testing.T) {
	handler := ChatHandler{Config: testConfig(), Logger: testLogger()}

	body := `{"messages":[{"role":"user","content":"Cześć"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401; body: %s", rec.Code, rec.Body.String())
	}
	var envelope apierror.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error == nil || envelope.Error.Type != core.ErrConfiguration {
		t.Fatalf("error = %+v, want configuration error", envelope.Error)
	}
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	cfg := testConfig()
	cfg.DeepSeekAPIKey = "sk-test"
	handler := ChatHandler{Config: cfg, Logger: testLogger()}

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[]}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	handler := ChatHandler{Config: testConfig(), Logger: testLogger()}

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("Allow = %q, want POST", allow)
	}
}
