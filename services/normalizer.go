package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases text, strips diacritics and quote characters, turns
// any other punctuation into a space and collapses whitespace.
// Normalize(Normalize(x)) == Normalize(x) for every x.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lowered := cases.Lower(language.Und).String(text)

	// Transformers keep state, so build a fresh chain per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		stripped = lowered
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case isQuoteRune(r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the whitespace separated tokens of the normalized text
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}

// containsWords reports whether needle occurs in haystack on word
// boundaries. Both arguments must already be normalized.
func containsWords(haystack, needle string) bool {
	if haystack == "" || needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

func isQuoteRune(r rune) bool {
	switch r {
	case '\'', '"', '`', '‘', '’', '‚', '‛',
		'“', '”', '„', '‟', '´', 'ʼ', '′', '″':
		return true
	}
	return false
}
