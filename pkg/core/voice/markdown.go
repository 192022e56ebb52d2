package voice

import (
	"regexp"
	"strings"
)

// Markdown syntax that sounds wrong when spoken aloud. Stripping removes
// presentation markup only; the wording is left untouched.
var (
	mdBold     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	mdItalic   = regexp.MustCompile(`\*(.+?)\*`)
	mdHeading  = regexp.MustCompile(`#+\s+`)
	mdCode     = regexp.MustCompile("`[^`]*`")
	mdLink     = regexp.MustCompile(`\[(.+?)\]\([^)]*\)`)
	mdBullet   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdNumbered = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	mdBlank    = regexp.MustCompile(`\n{2,}`)
)

// StripMarkdown removes markdown markup from text destined for speech
// synthesis: bold/italic markers, heading prefixes, inline code spans,
// link syntax (keeping the link text), list prefixes. Blank lines become
// sentence pauses and remaining newlines become spaces.
func StripMarkdown(text string) string {
	text = mdBold.ReplaceAllString(text, "$1")
	text = mdItalic.ReplaceAllString(text, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdCode.ReplaceAllString(text, "")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdBullet.ReplaceAllString(text, "")
	text = mdNumbered.ReplaceAllString(text, "")
	text = mdBlank.ReplaceAllString(text, ". ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}
