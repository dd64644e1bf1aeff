// Package enhance post-processes model answers so they point at on-page
// navigation and offer further guidance.
package enhance

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const GuideOffer = "Si quieres, puedo guiarte paso a paso."

const menuLead = "abre el menú superior y "

var (
	// navigationCue matches the start of an instruction to go somewhere on
	// the page ("ve a", "dirígete al", ...).
	navigationCue = regexp.MustCompile(`(?i)\b(ve|dirígete|dirigete|entra|accede)\s+(a|al)\b`)
	menuMention   = regexp.MustCompile(`(?i)men[úu]`)
	guidePhrases  = []string{"paso a paso", "puedo guiarte"}
)

// Enhance rewrites the first navigation cue to mention the top menu when the
// answer never names the menu, then appends GuideOffer unless the answer
// already offers guidance. Applying it twice changes nothing more.
func Enhance(text, _ string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return GuideOffer
	}

	if !menuMention.MatchString(text) {
		if loc := navigationCue.FindStringIndex(text); loc != nil {
			text = text[:loc[0]] + leadFor(text[loc[0]:]) + text[loc[0]:loc[1]] + text[loc[1]:]
			text = lowerFirstAfterLead(text, loc[0])
		}
	}

	lower := strings.ToLower(text)
	for _, phrase := range guidePhrases {
		if strings.Contains(lower, phrase) {
			return text
		}
	}
	return text + "\n\n" + GuideOffer
}

// leadFor returns the menu lead, capitalized when the cue starts a sentence.
func leadFor(cue string) string {
	r, _ := utf8.DecodeRuneInString(cue)
	if unicode.IsUpper(r) {
		return "Abre el menú superior y "
	}
	return menuLead
}

// lowerFirstAfterLead lower-cases the cue's first letter once the lead has
// been inserted at offset, so "Ve a" reads "Abre el menú superior y ve a".
func lowerFirstAfterLead(text string, offset int) string {
	i := offset + len(menuLead)
	r, size := utf8.DecodeRuneInString(text[i:])
	if !unicode.IsUpper(r) {
		return text
	}
	return text[:i] + string(unicode.ToLower(r)) + text[i+size:]
}
