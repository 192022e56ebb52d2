// Package routing decides which text-generation provider serves a request
// before any network call is made. Creative-intent requests go to the
// creative provider (Anthropic), everything else to the default provider
// (DeepSeek).
package routing

import (
	"strings"

	"github.com/foun-chat/foun/pkg/core/types"
)

// ProviderID names the two provider roles the router chooses between.
type ProviderID string

const (
	ProviderDefault  ProviderID = "deepseek"
	ProviderCreative ProviderID = "anthropic"
)

// Credentials holds the API keys available to a request. Either may be
// empty; the default key's absence is the caller's configuration error,
// not the router's concern.
type Credentials struct {
	DeepSeekKey  string
	AnthropicKey string
}

// Decision is the routing outcome: the selected provider role and the
// credential to use with it.
type Decision struct {
	Provider ProviderID
	APIKey   string
}

// creativeKeywords are the trigger phrases (Polish and English) that mark
// a brainstorm/creative/pivot intent in the latest user message.
var creativeKeywords = []string{
	"wymyśl", "wymyślmy", "wymyślcie", "zaproponuj", "zaproponujmy",
	"brainstorm", "kreatywnie", "kreatywny", "out of the box", "nieszablonowo",
	"coś szalonego", "szalony pomysł", "wild idea", "a co gdyby", "co gdybym",
	"co gdybyśmy", "innowacyjnie", "innowacyjny", "od zera", "od nowa",
	"zdumiej mnie", "zaskocz mnie", "nieoczywisty", "pivotuj", "pivot",
	"odwróćmy", "wywróćmy", "jakie masz pomysły", "jakie pomysły",
	"daj mi pomysły", "kreatywna strategia",
}

// IsCreativeRequest reports whether the transcript's most recent user
// message matches a creative trigger phrase, or the override is set.
// Pure and deterministic; kept separate from Route so the heuristic can
// be swapped for a real intent classifier later.
func IsCreativeRequest(messages []types.Message, forceCreative bool) bool {
	if forceCreative {
		return true
	}
	last, ok := types.LastUserMessage(messages)
	if !ok {
		return false
	}
	text := strings.ToLower(last.Content)
	for _, kw := range creativeKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Route selects the provider for a request. Creative selection is only
// honored when the creative credential is present; otherwise the default
// provider is used.
func Route(messages []types.Message, forceCreative bool, creds Credentials) Decision {
	if creds.AnthropicKey != "" && IsCreativeRequest(messages, forceCreative) {
		return Decision{Provider: ProviderCreative, APIKey: creds.AnthropicKey}
	}
	return Decision{Provider: ProviderDefault, APIKey: creds.DeepSeekKey}
}
