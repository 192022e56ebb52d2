package recap

import (
	"context"
	"encoding/json"
	"time"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/core/types"
)

const maxRecapTokens = 1024

// Generator produces recaps through whichever provider is configured.
// Anthropic is preferred when present; it is more reliable at emitting
// strict JSON.
type Generator struct {
	anthropic core.Provider
	deepseek  core.Provider
	now       func() time.Time
}

// NewGenerator creates a recap generator. Either provider may be nil,
// but not both.
func NewGenerator(anthropic, deepseek core.Provider) *Generator {
	return &Generator{
		anthropic: anthropic,
		deepseek:  deepseek,
		now:       time.Now,
	}
}

// Generate runs one non-streaming completion over the transcript and
// parses the JSON recap out of the response text.
func (g *Generator) Generate(ctx context.Context, messages []types.Message, profile types.Profile, folderLabel string) (*Recap, error) {
	provider := g.anthropic
	if provider == nil {
		provider = g.deepseek
	}
	if provider == nil {
		return nil, core.NewConfigurationError("no provider configured for recap generation", "ANTHROPIC_API_KEY")
	}

	prompt := BuildPrompt(messages, profile, folderLabel)
	text, err := provider.Complete(ctx, &types.ChatRequest{
		Messages:  []types.Message{{Role: types.RoleUser, Content: prompt}},
		MaxTokens: maxRecapTokens,
	})
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var recap Recap
	if err := json.Unmarshal([]byte(raw), &recap); err != nil {
		return nil, core.NewRecapParseError("recap JSON did not parse: " + err.Error())
	}
	recap.CreatedAt = g.now().UTC().Format(time.RFC3339)
	return &recap, nil
}
