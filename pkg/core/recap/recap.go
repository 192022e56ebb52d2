// Package recap generates structured session summaries from a finished
// conversation via a single non-streaming model call.
package recap

import (
	"fmt"
	"strings"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/core/types"
	"github.com/foun-chat/foun/pkg/core/voice"
)

// Recap is the structured summary of one session. CreatedAt is set
// server-side at generation time.
type Recap struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	KeyDecisions []string `json:"keyDecisions"`
	ActionItems  []string `json:"actionItems"`
	Tags         []string `json:"tags"`
	CreatedAt    string   `json:"createdAt,omitempty"`
}

// BuildPrompt renders the conversation transcript and session metadata
// into the recap instruction. The model is asked for bare JSON; the
// response still gets scanned with ExtractJSON because models wrap
// output in prose or code fences anyway.
func BuildPrompt(messages []types.Message, profile types.Profile, folderLabel string) string {
	founName := voice.IdentityForVoice(profile.FounVoice).Name

	var transcript strings.Builder
	for i, m := range messages {
		if i > 0 {
			transcript.WriteString("\n\n")
		}
		speaker := founName
		if m.Role == types.RoleUser {
			speaker = profile.Name
		}
		transcript.WriteString(speaker)
		transcript.WriteString(": ")
		transcript.WriteString(m.Content)
	}

	return fmt.Sprintf(`Przeanalizuj tę rozmowę biznesową i wygeneruj podsumowanie sesji.

Rozmowa (temat: %s, firma: %s):
---
%s
---

Wygeneruj JSON (bez markdown, tylko czysty JSON) w następującym formacie:
{
  "title": "krótki tytuł sesji (max 6 słów, po polsku)",
  "summary": "2-3 zdania opisujące o czym była rozmowa i główny wniosek (po polsku)",
  "keyDecisions": ["decyzja 1", "decyzja 2", "..."],
  "actionItems": ["następny krok 1", "następny krok 2", "..."],
  "tags": ["tag1", "tag2", "tag3", "tag4"]
}

Zasady:
- keyDecisions: tylko rzeczywiste decyzje podjęte w rozmowie (0-4 punkty)
- actionItems: konkretne następne kroki z czasownikami (2-5 punktów)
- tags: 3-5 krótkich tagów tematycznych po polsku
- Wszystko po polsku`, folderLabel, profile.CompanyName, transcript.String())
}

// ExtractJSON returns the substring from the first '{' to the last '}'
// of text. Everything around it (prose, code fences) is discarded.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end < start {
		return "", core.NewRecapParseError("response contained no JSON object")
	}
	return text[start : end+1], nil
}
