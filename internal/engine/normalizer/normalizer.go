package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares chat text for rule matching: control characters are
// removed, every run of whitespace collapses to a single space, the text is
// lower-cased, and combining diacritical marks are stripped after NFD
// decomposition. Punctuation and symbols pass through unchanged, so cues
// like "?" survive.
//
// Normalize is total: any input, including invalid UTF-8, produces a valid
// result. Its behavior is part of the versioned rule-table contract.
func Normalize(text string) string {
	text = cleanText(text)
	text = Fold(text)
	return strings.Join(strings.Fields(text), " ")
}

// Fold lower-cases text and strips accents without touching its spacing.
// Rule cues are folded with this so they compare byte-for-byte against
// Normalize output; a cue like "how " keeps its trailing space.
func Fold(text string) string {
	return stripAccents(strings.ToLower(text))
}

// cleanText removes control characters and replacement runes, mapping all
// whitespace to plain spaces.
func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if isWhitespace(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripAccents removes combining diacritical marks after NFD normalization.
func stripAccents(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFD.String(text) {
		if unicode.In(r, unicode.Mn) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}
