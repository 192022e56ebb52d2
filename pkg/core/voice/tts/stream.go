package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/foun-chat/foun/pkg/core"
)

// DefaultWSBaseURL is the ElevenLabs stream-input websocket endpoint.
// {voice_id} is substituted with the requested voice.
const DefaultWSBaseURL = "wss://api.elevenlabs.io/v1/text-to-speech/{voice_id}/stream-input"

const writeDeadline = 5 * time.Second

// ErrStreamClosed is returned when writing to a closed stream.
var ErrStreamClosed = errors.New("tts stream closed")

// StreamOptions configures a websocket synthesis stream.
type StreamOptions struct {
	VoiceID      string
	ModelID      string    // defaults to StreamModelID
	OutputFormat string    // defaults to pcm_24000
	Settings     *Settings // defaults to DefaultSettings
}

// Stream is an incremental synthesis session: text goes in sentence by
// sentence, raw audio chunks come back on Audio() as they are generated.
type Stream struct {
	conn  *websocket.Conn
	audio chan []byte
	done  chan struct{}

	closeOnce sync.Once
	closed    bool

	errMu sync.Mutex
	err   error
}

// OpenStream dials the stream-input websocket for one voice.
func (c *Client) OpenStream(ctx context.Context, opts StreamOptions) (*Stream, error) {
	if c.apiKey == "" {
		return nil, core.NewConfigurationError("missing ElevenLabs API key", "ELEVENLABS_API_KEY")
	}
	if strings.TrimSpace(opts.VoiceID) == "" {
		return nil, core.NewInvalidRequestError("voiceId is required")
	}

	wsURL, err := buildStreamURL(c.wsBaseURL, opts)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("xi-api-key", c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, core.NewTransportError("elevenlabs", err)
	}

	settings := DefaultSettings
	if opts.Settings != nil {
		settings = *opts.Settings
	}

	s := &Stream{
		conn:  conn,
		audio: make(chan []byte, 64),
		done:  make(chan struct{}),
	}

	// The opening frame carries the voice settings; its single space
	// primes generation without producing speech.
	if err := s.writeJSON(map[string]any{
		"text":           " ",
		"voice_settings": settings,
	}); err != nil {
		s.Close()
		return nil, core.NewTransportError("elevenlabs", err)
	}

	go s.readLoop(ctx)
	return s, nil
}

// SendText queues one text fragment for synthesis. ElevenLabs expects a
// trailing space on every fragment.
func (s *Stream) SendText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.writeJSON(map[string]any{"text": text + " "})
}

// Flush tells the server that all text has been sent; remaining audio is
// generated and the server ends the stream.
func (s *Stream) Flush() error {
	return s.writeJSON(map[string]any{"text": "", "flush": true})
}

// Audio returns the channel of raw audio chunks. It is closed when the
// server finishes or the stream fails; check Err afterwards.
func (s *Stream) Audio() <-chan []byte {
	return s.audio
}

// Err returns the terminal stream error, if any.
func (s *Stream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close tears down the websocket. Safe to call repeatedly.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed = true
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *Stream) writeJSON(v any) error {
	select {
	case <-s.done:
		return ErrStreamClosed
	default:
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return s.conn.WriteJSON(v)
}

type streamFrame struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
}

// readLoop decodes server frames until the final marker, the context
// ends, or the connection drops. Frames without audio (alignment
// metadata, keepalives) are skipped.
func (s *Stream) readLoop(ctx context.Context) {
	defer close(s.audio)
	for {
		select {
		case <-ctx.Done():
			s.setErr(ctx.Err())
			s.Close()
			return
		case <-s.done:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// Local close, not a failure.
			default:
				s.setErr(core.NewTransportError("elevenlabs", err))
			}
			return
		}

		var frame streamFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(frame.Audio)
			if err == nil && len(chunk) > 0 {
				select {
				case s.audio <- chunk:
				case <-s.done:
					return
				}
			}
		}
		if frame.IsFinal {
			return
		}
	}
}

func (s *Stream) setErr(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

func buildStreamURL(base string, opts StreamOptions) (string, error) {
	if strings.TrimSpace(base) == "" {
		base = DefaultWSBaseURL
	}
	base = strings.ReplaceAll(base, "{voice_id}", url.PathEscape(opts.VoiceID))
	u, err := url.Parse(base)
	if err != nil {
		return "", core.NewInvalidRequestError("invalid stream URL: " + err.Error())
	}
	if u.Scheme == "" {
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/v1/text-to-speech/" + url.PathEscape(opts.VoiceID) + "/stream-input"
	}

	q := u.Query()
	model := opts.ModelID
	if model == "" {
		model = StreamModelID
	}
	format := opts.OutputFormat
	if format == "" {
		format = "pcm_24000"
	}
	q.Set("model_id", model)
	q.Set("output_format", format)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
