// Package sse writes OpenAI chat-completion chunk frames over
// server-sent events. The voice-agent relay speaks this dialect
// regardless of which provider produced the text.
package sse

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

type chunkDelta struct {
	Content string `json:"content,omitempty"`
	Role    string `json:"role,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type chunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
}

// Writer emits one chat-completion stream. All frames of a stream share
// one completion id and model name.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex

	id      string
	model   string
	created int64
}

// New prepares an SSE stream on w and writes the event-stream headers.
func New(w http.ResponseWriter, model string) (*Writer, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &Writer{
		w:       w,
		flusher: f,
		id:      "chatcmpl-" + randHex(12),
		model:   model,
		created: time.Now().Unix(),
	}, nil
}

// SendDelta writes one content delta frame and flushes it.
func (sw *Writer) SendDelta(delta string) error {
	return sw.send(chunk{
		ID:      sw.id,
		Object:  "chat.completion.chunk",
		Created: sw.created,
		Model:   sw.model,
		Choices: []chunkChoice{{Index: 0, Delta: chunkDelta{Content: delta}}},
	})
}

// SendStop writes the final frame carrying finish_reason "stop".
func (sw *Writer) SendStop() error {
	stop := "stop"
	return sw.send(chunk{
		ID:      sw.id,
		Object:  "chat.completion.chunk",
		Created: sw.created,
		Model:   sw.model,
		Choices: []chunkChoice{{Index: 0, Delta: chunkDelta{}, FinishReason: &stop}},
	})
}

// SendDone writes the literal [DONE] sentinel that ends the stream.
func (sw *Writer) SendDone() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if _, err := fmt.Fprint(sw.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}

func (sw *Writer) send(c chunk) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", b); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}

func randHex(nbytes int) string {
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format("150405.000000000")))
	}
	return hex.EncodeToString(b)
}
