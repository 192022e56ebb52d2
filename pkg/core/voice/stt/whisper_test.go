package stt

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foun-chat/foun/pkg/core"
)

func TestTranscribe(t *testing.T) {
	var gotAuth, gotModel, gotLanguage, gotFilename, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("read file part: %v", err)
		} else {
			defer file.Close()
			gotFilename = header.Filename
			var sb bytes.Buffer
			if _, err := sb.ReadFrom(file); err == nil {
				gotBody = sb.String()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"Cześć, jak się masz?"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	text, err := client.Transcribe(context.Background(), strings.NewReader("fake-webm-bytes"), "audio.webm")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "Cześć, jak się masz?" {
		t.Errorf("text = %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotModel != DefaultModel {
		t.Errorf("model = %q, want %q", gotModel, DefaultModel)
	}
	if gotLanguage != DefaultLanguage {
		t.Errorf("language = %q, want %q", gotLanguage, DefaultLanguage)
	}
	if gotFilename != "audio.webm" {
		t.Errorf("filename = %q", gotFilename)
	}
	if gotBody != "fake-webm-bytes" {
		t.Errorf("uploaded body = %q", gotBody)
	}
}

func TestTranscribeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid file format"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.Transcribe(context.Background(), strings.NewReader("not-audio"), "audio.webm")
	if err == nil {
		t.Fatal("expected error")
	}
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		t.Fatalf("error type = %T, want *core.Error", err)
	}
	if coreErr.UpstreamStatus != http.StatusBadRequest {
		t.Errorf("UpstreamStatus = %d, want %d", coreErr.UpstreamStatus, http.StatusBadRequest)
	}
}

func TestTranscribeLanguageOverride(t *testing.T) {
	var gotLanguage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		gotLanguage = r.FormValue("language")
		w.Write([]byte(`{"text":"hello"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL), WithLanguage("en"))
	if _, err := client.Transcribe(context.Background(), strings.NewReader("x"), "audio.wav"); err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if gotLanguage != "en" {
		t.Errorf("language = %q, want %q", gotLanguage, "en")
	}
}
