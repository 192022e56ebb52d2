package voice

import (
	"reflect"
	"testing"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name        string
		state       State
		ev          Event
		continuous  bool
		wantState   State
		wantEffects []Effect
	}{
		{
			name:        "idle mic open",
			state:       StateIdle,
			ev:          EventMicOpen,
			wantState:   StateListening,
			wantEffects: []Effect{EffectStartCapture},
		},
		{
			name:      "idle typed input skips listening",
			state:     StateIdle,
			ev:        EventTranscript,
			wantState: StateThinking,
		},
		{
			name:        "listening transcript",
			state:       StateListening,
			ev:          EventTranscript,
			wantState:   StateThinking,
			wantEffects: []Effect{EffectStopCapture},
		},
		{
			name:      "thinking speech started",
			state:     StateThinking,
			ev:        EventSpeechStarted,
			wantState: StateSpeaking,
		},
		{
			name:      "speaking drained",
			state:     StateSpeaking,
			ev:        EventQueueDrained,
			wantState: StateIdle,
		},
		{
			name:        "speaking drained continuous",
			state:       StateSpeaking,
			ev:          EventQueueDrained,
			continuous:  true,
			wantState:   StateListening,
			wantEffects: []Effect{EffectStartCapture},
		},
		{
			name:      "thinking drained without speech",
			state:     StateThinking,
			ev:        EventQueueDrained,
			wantState: StateIdle,
		},
		{
			name:        "thinking drained without speech continuous",
			state:       StateThinking,
			ev:          EventQueueDrained,
			continuous:  true,
			wantState:   StateListening,
			wantEffects: []Effect{EffectStartCapture},
		},
		{
			name:        "abort from speaking",
			state:       StateSpeaking,
			ev:          EventAbort,
			wantState:   StateIdle,
			wantEffects: []Effect{EffectStopPlayback, EffectClearQueue, EffectStopCapture},
		},
		{
			name:        "abort from idle",
			state:       StateIdle,
			ev:          EventAbort,
			wantState:   StateIdle,
			wantEffects: []Effect{EffectStopPlayback, EffectClearQueue, EffectStopCapture},
		},
		{
			name:        "synth failure",
			state:       StateSpeaking,
			ev:          EventSynthFailed,
			wantState:   StateIdle,
			wantEffects: []Effect{EffectStopPlayback, EffectClearQueue},
		},
		{
			name:      "ignored event keeps state",
			state:     StateThinking,
			ev:        EventMicOpen,
			wantState: StateThinking,
		},
		{
			name:      "drained outside speaking ignored",
			state:     StateIdle,
			ev:        EventQueueDrained,
			wantState: StateIdle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotState, gotEffects := Transition(tt.state, tt.ev, tt.continuous)
			if gotState != tt.wantState {
				t.Errorf("state = %q, want %q", gotState, tt.wantState)
			}
			if !reflect.DeepEqual(gotEffects, tt.wantEffects) {
				t.Errorf("effects = %v, want %v", gotEffects, tt.wantEffects)
			}
		})
	}
}

// Transition must be pure: the same inputs always yield the same outputs.
func TestTransitionDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		state, effects := Transition(StateSpeaking, EventAbort, false)
		if state != StateIdle {
			t.Fatalf("run %d: state = %q, want %q", i, state, StateIdle)
		}
		want := []Effect{EffectStopPlayback, EffectClearQueue, EffectStopCapture}
		if !reflect.DeepEqual(effects, want) {
			t.Fatalf("run %d: effects = %v, want %v", i, effects, want)
		}
	}
}
