package voice

// State is the voice-session playback state. Exactly one state is active
// at a time; the machine cycles for the lifetime of a session.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateThinking  State = "thinking"
	StateSpeaking  State = "speaking"
)

// Event drives state transitions. Events come from the microphone, the
// response stream lifecycle, and the playback queue.
type Event string

const (
	// EventMicOpen fires when the user activates the microphone.
	EventMicOpen Event = "mic_open"
	// EventTranscript fires when captured speech has been transcribed
	// and sent for response generation.
	EventTranscript Event = "transcript"
	// EventSpeechStarted fires when the first sentence of a response is
	// ready to play.
	EventSpeechStarted Event = "speech_started"
	// EventQueueDrained fires when the playback queue empties and the
	// upstream text stream has completed.
	EventQueueDrained Event = "queue_drained"
	// EventSynthFailed fires when text-to-speech fails for a sentence.
	EventSynthFailed Event = "synth_failed"
	// EventAbort fires on explicit user cancellation.
	EventAbort Event = "abort"
)

// Effect is a side effect the session driver must perform after a
// transition. The machine itself performs no I/O.
type Effect string

const (
	EffectStartCapture Effect = "start_capture"
	EffectStopCapture  Effect = "stop_capture"
	EffectStopPlayback Effect = "stop_playback"
	EffectClearQueue   Effect = "clear_queue"
)

// Transition is the pure state-transition function. Unknown combinations
// keep the current state and emit no effects. continuous enables the
// auto-resume path where a drained queue returns the session to
// listening instead of idle.
func Transition(state State, ev Event, continuous bool) (State, []Effect) {
	switch ev {
	case EventAbort:
		// Safe from any state, including repeated calls from idle.
		return StateIdle, []Effect{EffectStopPlayback, EffectClearQueue, EffectStopCapture}
	case EventSynthFailed:
		return StateIdle, []Effect{EffectStopPlayback, EffectClearQueue}
	}

	switch state {
	case StateIdle:
		switch ev {
		case EventMicOpen:
			return StateListening, []Effect{EffectStartCapture}
		case EventTranscript:
			// Typed input inside a voice session skips the listening phase.
			return StateThinking, nil
		}
	case StateListening:
		if ev == EventTranscript {
			return StateThinking, []Effect{EffectStopCapture}
		}
	case StateThinking:
		switch ev {
		case EventSpeechStarted:
			return StateSpeaking, nil
		case EventQueueDrained:
			// A response whose every sentence was filtered out drains
			// without ever starting speech.
			return drained(continuous)
		}
	case StateSpeaking:
		if ev == EventQueueDrained {
			return drained(continuous)
		}
	}
	return state, nil
}

func drained(continuous bool) (State, []Effect) {
	if continuous {
		return StateListening, []Effect{EffectStartCapture}
	}
	return StateIdle, nil
}
