// Package core defines the provider abstraction shared by every upstream
// text-generation service. Callers select a provider once (via routing)
// and consume a uniform delta stream; nothing downstream branches on
// provider identity again.
package core

import (
	"context"

	"github.com/foun-chat/foun/pkg/core/types"
)

// Provider is the interface implemented by all LLM providers.
type Provider interface {
	// Name returns the provider identifier (e.g. "deepseek", "anthropic").
	Name() string

	// Complete sends a non-streaming request and returns the full response text.
	Complete(ctx context.Context, req *types.ChatRequest) (string, error)

	// Stream sends a streaming request and returns an iterator over text deltas.
	Stream(ctx context.Context, req *types.ChatRequest) (DeltaStream, error)
}

// DeltaStream is a lazy, finite, non-restartable iterator over incremental
// text fragments from one upstream response.
type DeltaStream interface {
	// Next returns the next text delta. Returns "", io.EOF when the
	// upstream emits its terminal marker or closes the response body.
	Next() (string, error)

	// Close releases the underlying response body. Safe to call more than once.
	Close() error
}
