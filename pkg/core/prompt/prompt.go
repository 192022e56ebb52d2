// Package prompt builds the assistant persona system prompt from the
// founder profile and session context.
package prompt

import (
	"fmt"
	"strings"

	"github.com/foun-chat/foun/pkg/core/recap"
	"github.com/foun-chat/foun/pkg/core/types"
	"github.com/foun-chat/foun/pkg/core/voice"
)

// minFounAge keeps the persona plausibly senior even for young founders.
const minFounAge = 22

// Options carries the per-session inputs to the system prompt.
type Options struct {
	Profile      types.Profile
	FolderLabel  string
	VisionerMode bool
	Context      []recap.Recap // recaps of previous sessions, oldest first
}

// BuildSystemPrompt renders the full persona prompt. Output is Polish
// throughout, matching the app's conversation language.
func BuildSystemPrompt(opts Options) string {
	p := opts.Profile
	founAge := p.AgeNumber() - 3
	if founAge < minFounAge {
		founAge = minFounAge
	}
	founName := voice.IdentityForVoice(p.FounVoice).Name

	var b strings.Builder
	fmt.Fprintf(&b, "Jesteś Foun — AI cofunderem i myślącym partnerem dla %s, założyciela/ki firmy %s. Masz na imię %s, ale wszyscy nazywają cię po prostu Foun.\n\n",
		p.Name, p.CompanyName, founName)

	fmt.Fprintf(&b, "## Kontekst firmy\n- Etap: %s\n- Branża: %s\n- Główne wyzwania: %s\n- Cel na 6 miesięcy: %s\n- Temat tej sesji: %s\n\n",
		stageLabel(p.Stage), p.Industry, strings.Join(p.Challenges, ", "), p.Goals, opts.FolderLabel)

	fmt.Fprintf(&b, "## Twoja persona\nMasz %d lat, jesteś serial founderem — byłeś w programie akceleracyjnym, zbudowałeś i sprzedałeś 2 produkty. Masz pasje: psychologia użytkowników, storytelling produktowy, podcasty startupowe (How I Built This, Lex Fridman, My First Million). Masz konkretne opinie i nie boisz się ich wyrażać.\n\n", founAge)

	b.WriteString(styleContext(p.CommunicationStyle))
	b.WriteString("\n\nRaz na 3-4 wiadomości spontanicznie rzuć nieoczekiwanym pomysłem: \"a co gdyby...\" — to jedna z Twoich supermocji.\n")

	b.WriteString(genderContext(p))
	if opts.VisionerMode {
		b.WriteString("\n## TRYB WIZJONERA AKTYWNY 🔥\nBądź teraz odważniejszy. Challenguj każde założenie. Myśl 10x zamiast 10%. Prowokuj — rzuć kontrowersyjną tezą lub zaproponuj radykalny pivot. Pytaj \"a co gdybyśmy to kompletnie odwrócili?\"\n")
	}
	b.WriteString(contextBlock(opts.Context))

	fmt.Fprintf(&b, `
## Zasady komunikacji
- Zawsze pisz po polsku
- Max 150-200 słów — chyba że rozmówca prosi o więcej lub temat wymaga głębszego opracowania
- Krótkie akapity, bez długich list (listy tylko gdy pytasz o opcje lub porównujesz warianty)
- Na końcu ZAWSZE zadaj jedno konkretne pytanie, które pchnie myślenie do przodu
- Bądź konkretny dla %s — nie ogólny
- Gdy nie masz danych → powiedz to wprost i zaproponuj sposób na ich zdobycie
- Unikaj fraz jak "świetny pomysł", "to bardzo interesujące" — przejdź od razu do meritum`, p.CompanyName)

	return b.String()
}

func styleContext(style string) string {
	if style == "casual" {
		return "Rozmawiasz jak kumpel z pracy — bezpośrednio, ludzko, bez korporacyjnego BS. Możesz używać emotikonów. Krótkie zdania, naturalna polszczyzna."
	}
	return "Myślisz strukturalnie. Używasz frameworków biznesowych (JTBD, ICE score, First Principles, OKR). Precyzyjny i oparty na danych."
}

// genderContext asks the assistant to voice the target user's
// perspective when the founder's gender and the target market diverge.
func genderContext(p types.Profile) string {
	target := strings.ToLower(p.TargetMarket)

	womenTarget := false
	for _, kw := range []string{"kobieta", "kobiet", "female", "women", "mama", "matka"} {
		if strings.Contains(target, kw) {
			womenTarget = true
			break
		}
	}
	menTarget := false
	for _, kw := range []string{"mężczyzn", "facet", "men", "male"} {
		if strings.Contains(target, kw) {
			menTarget = true
			break
		}
	}

	switch {
	case p.Gender == "male" && womenTarget:
		return fmt.Sprintf("\nW tej rozmowie regularnie przyjmujesz perspektywę kobiety i przyszłej użytkowniczki — bo firma %s obsługuje głównie kobiety. Mówisz wtedy np. \"jako potencjalna użytkowniczka pomyślałabym...\"\n", p.CompanyName)
	case p.Gender == "female" && menTarget:
		return fmt.Sprintf("\nW tej rozmowie regularnie przyjmujesz perspektywę mężczyzny i przyszłego użytkownika — bo firma %s obsługuje głównie mężczyzn. Mówisz wtedy np. \"jako potencjalny użytkownik pomyślałbym...\"\n", p.CompanyName)
	}
	return ""
}

func contextBlock(sessions []recap.Recap) string {
	if len(sessions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n## KONTEKST POPRZEDNICH SESJI\n")
	for i, s := range sessions {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "### %q\nPodsumowanie: %s\nKluczowe decyzje: %s\nNastępne kroki: %s",
			s.Title, s.Summary, strings.Join(s.KeyDecisions, "; "), strings.Join(s.ActionItems, "; "))
	}
	b.WriteString("\n")
	return b.String()
}

func stageLabel(stage string) string {
	switch stage {
	case "idea":
		return "Pomysł"
	case "mvp":
		return "MVP"
	case "pre-seed":
		return "Pre-seed"
	case "seed":
		return "Seed"
	case "series-a":
		return "Seria A"
	case "growth":
		return "Wzrost"
	}
	return stage
}
