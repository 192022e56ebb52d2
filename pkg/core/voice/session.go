package voice

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/foun-chat/foun/pkg/core"
)

// DefaultMinSentenceRunes is the minimum stripped-sentence length worth
// synthesizing. Anything shorter (a stray "..." or lone punctuation) is
// dropped rather than spoken.
const DefaultMinSentenceRunes = 4

// Synthesizer converts one sentence to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Player plays one audio clip to completion. Stop interrupts the clip
// currently playing, if any.
type Player interface {
	Play(ctx context.Context, audio []byte) error
	Stop()
}

// SessionOptions configures a voice session.
type SessionOptions struct {
	Synthesizer Synthesizer
	Player      Player

	// Continuous re-opens the microphone after the playback queue drains
	// instead of returning to idle.
	Continuous bool

	// MinSentenceRunes overrides DefaultMinSentenceRunes when positive.
	MinSentenceRunes int

	// OnState is invoked (without internal locks held) whenever the
	// session state changes.
	OnState func(State)

	// OnEffect receives capture effects (start/stop microphone) that the
	// session cannot perform itself.
	OnEffect func(Effect)

	// OnError receives terminal playback errors (synthesis failures).
	OnError func(error)
}

// Session couples the sentence buffer, the playback queue and the state
// machine into one voice conversation turn loop. Text deltas go in via
// OnDelta; audio comes out through the configured Synthesizer and Player,
// one sentence at a time, in arrival order.
type Session struct {
	opts     SessionOptions
	minRunes int

	mu         sync.Mutex
	state      State
	continuous bool
	buf        *SentenceBuffer
	queue      *Queue
	voiceID    string
	cancel     context.CancelFunc
}

// NewSession creates an idle voice session.
func NewSession(opts SessionOptions) *Session {
	minRunes := opts.MinSentenceRunes
	if minRunes <= 0 {
		minRunes = DefaultMinSentenceRunes
	}
	return &Session{
		opts:       opts,
		minRunes:   minRunes,
		state:      StateIdle,
		continuous: opts.Continuous,
		buf:        NewSentenceBuffer(),
	}
}

// State returns the current playback state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetContinuous toggles auto-resume of listening after playback drains.
func (s *Session) SetContinuous(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.continuous = on
}

// StartListening opens the microphone phase of a turn.
func (s *Session) StartListening() {
	s.Dispatch(EventMicOpen)
}

// BeginResponse resets the pipeline for a new response stream: empty
// sentence queue, empty accumulation buffer, state thinking. The voiceID
// tags every sentence of this response. A previous in-flight response is
// superseded.
func (s *Session) BeginResponse(ctx context.Context, voiceID string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.queue != nil {
		s.queue.Close()
	}
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.buf = NewSentenceBuffer()
	q := NewQueue()
	s.queue = q
	s.voiceID = voiceID
	prev := s.state
	s.state = StateThinking
	onState := s.opts.OnState
	s.mu.Unlock()

	if prev != StateThinking && onState != nil {
		onState(StateThinking)
	}
	go s.drive(rctx, q)
}

// OnDelta consumes one streamed text delta: it is appended to the
// accumulation buffer, and every sentence it completes is stripped of
// markdown, length-filtered and enqueued for playback.
func (s *Session) OnDelta(text string) {
	s.mu.Lock()
	buf, q, voiceID := s.buf, s.queue, s.voiceID
	s.mu.Unlock()
	if q == nil {
		return
	}
	for _, raw := range buf.Add(text) {
		if sentence, ok := s.speakable(raw); ok {
			q.Enqueue(Entry{Text: sentence, VoiceID: voiceID})
		}
	}
}

// FinishResponse flushes the trailing buffered text as a final queue
// entry and marks the upstream stream finished.
func (s *Session) FinishResponse() {
	s.mu.Lock()
	buf, q, voiceID := s.buf, s.queue, s.voiceID
	s.mu.Unlock()
	if q == nil {
		return
	}
	if sentence, ok := s.speakable(buf.Flush()); ok {
		q.Enqueue(Entry{Text: sentence, VoiceID: voiceID})
	}
	q.Finish()
}

// Abort cancels the session from any state: in-flight synthesis and
// playback stop immediately, queued sentences are discarded, buffers
// reset, state returns to idle. Safe to call repeatedly.
func (s *Session) Abort() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.Dispatch(EventAbort)
}

// Dispatch applies one event to the state machine and performs the
// resulting effects.
func (s *Session) Dispatch(ev Event) {
	s.mu.Lock()
	next, effects := Transition(s.state, ev, s.continuous)
	changed := next != s.state
	s.state = next
	q := s.queue
	onState := s.opts.OnState
	onEffect := s.opts.OnEffect
	s.mu.Unlock()

	for _, ef := range effects {
		switch ef {
		case EffectStopPlayback:
			if s.opts.Player != nil {
				s.opts.Player.Stop()
			}
		case EffectClearQueue:
			if q != nil {
				q.Close()
			}
			s.mu.Lock()
			s.buf = NewSentenceBuffer()
			s.mu.Unlock()
		case EffectStartCapture, EffectStopCapture:
			if onEffect != nil {
				onEffect(ef)
			}
		}
	}
	if changed && onState != nil {
		onState(next)
	}
}

// drive is the playback loop for one response: it dequeues the head
// sentence, synthesizes it, and plays the audio to completion before
// touching the next entry. At most one sentence is ever in flight.
func (s *Session) drive(ctx context.Context, q *Queue) {
	first := true
	for {
		entry, ok := q.Next()
		if !ok {
			break
		}
		if first {
			s.Dispatch(EventSpeechStarted)
			first = false
		}

		audio, err := s.opts.Synthesizer.Synthesize(ctx, entry.Text, entry.VoiceID)
		if err != nil {
			s.fail(ctx, err)
			return
		}
		if err := s.opts.Player.Play(ctx, audio); err != nil {
			s.fail(ctx, err)
			return
		}
	}
	if ctx.Err() != nil {
		// Aborted or superseded; the abort path already reset the state.
		return
	}
	s.Dispatch(EventQueueDrained)
}

// fail terminates the remaining queue after a synthesis or playback
// error and surfaces it, unless the response was simply aborted.
func (s *Session) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	s.Dispatch(EventSynthFailed)
	if s.opts.OnError != nil {
		s.opts.OnError(core.NewSynthesisError(err.Error()))
	}
}

// speakable strips markdown from a raw sentence and applies the minimum
// length threshold.
func (s *Session) speakable(raw string) (string, bool) {
	text := StripMarkdown(raw)
	if utf8.RuneCountInString(text) < s.minRunes {
		return "", false
	}
	return text, true
}
