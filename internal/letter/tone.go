package letter

import (
	"fmt"
	"strings"
)

// Tone selects the addendum appended to the billing paragraph.
type Tone string

const (
	ToneFormal Tone = "Formal"
	ToneFirm   Tone = "Firm & Legalistic"
	TonePolite Tone = "Polite & Friendly"
	ToneDirect Tone = "Direct & Concise"
)

var tones = []Tone{ToneFormal, ToneFirm, TonePolite, ToneDirect}

var toneAddenda = map[Tone]string{
	ToneFormal: "",
	ToneFirm: "I require written confirmation that this cancellation has been processed, " +
		"together with your assurance that no further charges will be applied to my account. " +
		"Any charge made after the effective date will be treated as unauthorized, and I will " +
		"escalate the matter to my bank and the relevant consumer protection authorities if necessary.",
	TonePolite: "Thank you for the service you have provided. I have genuinely appreciated it, " +
		"but I have decided to cancel my subscription at this time.",
	ToneDirect: "Process this cancellation immediately. I do not wish to receive any further " +
		"communication beyond confirmation that it has been completed.",
}

var toneSlugs = map[Tone]string{
	ToneFormal: "formal",
	ToneFirm:   "firm",
	TonePolite: "polite",
	ToneDirect: "direct",
}

// Tones returns every tone in display order.
func Tones() []Tone {
	out := make([]Tone, len(tones))
	copy(out, tones)
	return out
}

// Addendum returns the tone-specific paragraph. Formal and unknown tones have none.
func (t Tone) Addendum() string {
	return toneAddenda[t]
}

// Slug returns a short identifier suitable for flags and query strings.
func (t Tone) Slug() string {
	return toneSlugs[t]
}

// Valid reports whether t is one of the four known tones.
func (t Tone) Valid() bool {
	_, ok := toneAddenda[t]
	return ok
}

func (t Tone) String() string { return string(t) }

// ParseTone accepts a display label (case-insensitive) or a slug.
func ParseTone(s string) (Tone, error) {
	s = strings.TrimSpace(s)
	for _, t := range tones {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, t.Slug()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q", s)
}
