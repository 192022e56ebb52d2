package deepseek

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// deltaStream implements core.DeltaStream for OpenAI-compatible SSE bodies.
// Incoming bytes are decoded incrementally; only complete newline-terminated
// lines are parsed, so frames split across network reads reassemble cleanly.
type deltaStream struct {
	reader *bufio.Reader
	closer io.Closer
	err    error
	done   bool
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// newDeltaStream creates a delta stream from an HTTP response body.
func newDeltaStream(body io.ReadCloser) *deltaStream {
	return &deltaStream{
		reader: bufio.NewReader(body),
		closer: body,
	}
}

// Next returns the next text delta.
// Returns "", io.EOF after the [DONE] marker or when the body closes.
func (s *deltaStream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.done {
		return "", io.EOF
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				s.done = true
				return "", io.EOF
			}
			s.err = err
			return "", err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // skip malformed chunks without aborting the stream
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

// Close releases the underlying response body.
func (s *deltaStream) Close() error {
	return s.closer.Close()
}
