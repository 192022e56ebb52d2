package anthropic

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// deltaStream implements core.DeltaStream for Anthropic SSE responses.
// Frames arrive as "event: <type>" / "data: <json>" pairs; only
// content_block_delta events whose delta type is text_delta carry
// response text. Everything else (ping, message_start, content block
// boundaries) is skipped, as are malformed frames.
type deltaStream struct {
	reader *bufio.Reader
	closer io.Closer
	err    error
	done   bool
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// newDeltaStream creates a delta stream from an HTTP response body.
func newDeltaStream(body io.ReadCloser) *deltaStream {
	return &deltaStream{
		reader: bufio.NewReader(body),
		closer: body,
	}
}

// Next returns the next text delta.
// Returns "", io.EOF after message_stop or when the body closes.
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
		if line == "" || strings.HasPrefix(line, "event: ") {
			// The data line carries its own type field; event lines are
			// redundant and some SSE relays omit them entirely.
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue // skip malformed frames without aborting the stream
		}

		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				return ev.Delta.Text, nil
			}
		case "message_stop":
			s.done = true
			return "", io.EOF
		}
	}
}

// Close releases the underlying response body.
func (s *deltaStream) Close() error {
	return s.closer.Close()
}
