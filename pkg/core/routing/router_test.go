package routing

import (
	"testing"

	"github.com/foun-chat/foun/pkg/core/types"
)

var bothKeys = Credentials{DeepSeekKey: "ds-key", AnthropicKey: "an-key"}

func TestRoute_KeywordMatching(t *testing.T) {
	tests := []struct {
		name     string
		messages []types.Message
		force    bool
		creds    Credentials
		want     ProviderID
	}{
		{
			name:     "plain question goes to default",
			messages: []types.Message{{Role: types.RoleUser, Content: "Jak policzyć runway?"}},
			creds:    bothKeys,
			want:     ProviderDefault,
		},
		{
			name:     "polish creative keyword selects creative",
			messages: []types.Message{{Role: types.RoleUser, Content: "Wymyśl nową nazwę produktu"}},
			creds:    bothKeys,
			want:     ProviderCreative,
		},
		{
			name:     "english keyword matches case-insensitively",
			messages: []types.Message{{Role: types.RoleUser, Content: "Let's BRAINSTORM pricing"}},
			creds:    bothKeys,
			want:     ProviderCreative,
		},
		{
			name: "only the latest user message is inspected",
			messages: []types.Message{
				{Role: types.RoleUser, Content: "zaproponuj pivot"},
				{Role: types.RoleAssistant, Content: "ok"},
				{Role: types.RoleUser, Content: "a ile to kosztuje?"},
			},
			creds: bothKeys,
			want:  ProviderDefault,
		},
		{
			name: "assistant text never triggers creative routing",
			messages: []types.Message{
				{Role: types.RoleUser, Content: "dzień dobry"},
				{Role: types.RoleAssistant, Content: "może brainstorm?"},
			},
			creds: bothKeys,
			want:  ProviderDefault,
		},
		{
			name:     "visioner override forces creative",
			messages: []types.Message{{Role: types.RoleUser, Content: "zwykłe pytanie"}},
			force:    true,
			creds:    bothKeys,
			want:     ProviderCreative,
		},
		{
			name:     "creative falls back to default without a credential",
			messages: []types.Message{{Role: types.RoleUser, Content: "wymyśl coś"}},
			creds:    Credentials{DeepSeekKey: "ds-key"},
			want:     ProviderDefault,
		},
		{
			name:  "empty history selects default",
			creds: bothKeys,
			want:  ProviderDefault,
		},
		{
			name:     "system-only history selects default",
			messages: []types.Message{{Role: types.RoleSystem, Content: "wymyśl"}},
			creds:    bothKeys,
			want:     ProviderDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Route(tt.messages, tt.force, tt.creds)
			if got.Provider != tt.want {
				t.Fatalf("Route() provider = %q, want %q", got.Provider, tt.want)
			}
			switch tt.want {
			case ProviderCreative:
				if got.APIKey != tt.creds.AnthropicKey {
					t.Fatalf("Route() key = %q, want anthropic key", got.APIKey)
				}
			case ProviderDefault:
				if got.APIKey != tt.creds.DeepSeekKey {
					t.Fatalf("Route() key = %q, want deepseek key", got.APIKey)
				}
			}
		})
	}
}

func TestRoute_IsDeterministic(t *testing.T) {
	messages := []types.Message{{Role: types.RoleUser, Content: "a co gdybyśmy to odwrócili?"}}
	first := Route(messages, false, bothKeys)
	for i := 0; i < 10; i++ {
		if got := Route(messages, false, bothKeys); got != first {
			t.Fatalf("Route() call %d = %+v, want %+v", i, got, first)
		}
	}
}
