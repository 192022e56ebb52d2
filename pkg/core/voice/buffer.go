// Package voice implements the streaming voice pipeline: sentence
// segmentation of streamed text deltas, markdown stripping, and an
// order-preserving synthesis/playback queue driven by a small state
// machine.
package voice

import (
	"strings"
)

// SentenceBuffer accumulates streamed text and extracts complete
// sentences. Feeding the same text in one chunk or character by
// character yields the same sentence sequence: a terminator at the very
// end of the buffer is not treated as a boundary until the following
// byte (or Flush) confirms it.
type SentenceBuffer struct {
	buffer strings.Builder
}

// NewSentenceBuffer creates a new sentence buffer.
func NewSentenceBuffer() *SentenceBuffer {
	return &SentenceBuffer{}
}

// Add appends streamed text and returns any sentences completed by it.
// Unmatched trailing text stays buffered for the next delta.
func (b *SentenceBuffer) Add(text string) []string {
	b.buffer.WriteString(text)

	content := []rune(b.buffer.String())
	var sentences []string

	lastEnd := 0
	for i := 0; i < len(content); i++ {
		switch {
		case content[i] == '\n':
			if s := strings.TrimSpace(string(content[lastEnd:i])); s != "" {
				sentences = append(sentences, s)
			}
			lastEnd = i + 1
		case isTerminal(content[i]) && i+1 < len(content) && isSpace(content[i+1]):
			if s := strings.TrimSpace(string(content[lastEnd : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			lastEnd = i + 1
		}
	}

	if lastEnd > 0 {
		remainder := string(content[lastEnd:])
		b.buffer.Reset()
		b.buffer.WriteString(remainder)
	}

	return sentences
}

// Flush returns any remaining buffered text and clears the buffer.
func (b *SentenceBuffer) Flush() string {
	result := strings.TrimSpace(b.buffer.String())
	b.buffer.Reset()
	return result
}

// Pending returns the buffered text without clearing it.
func (b *SentenceBuffer) Pending() string {
	return b.buffer.String()
}

// isTerminal reports whether r ends a sentence. The Unicode ellipsis
// counts; an ASCII "..." resolves at its final period, so the run is
// never split in the middle.
func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
