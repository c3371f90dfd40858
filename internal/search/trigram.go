package search

import (
	"strings"
	"unicode"
)

// Trigrams extracts the 3-character substring set of text, pg_trgm style:
// lowercased, non-alphanumeric runs collapsed to word boundaries, each word
// padded with two leading and one trailing space so short words and word
// starts still produce trigrams.
func Trigrams(text string) map[string]struct{} {
	set := make(map[string]struct{})

	for _, word := range splitWords(text) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = struct{}{}
		}
	}

	return set
}

// TrigramSimilarity returns the Jaccard similarity of two trigram sets:
// shared trigrams over total distinct trigrams, in [0, 1].
func TrigramSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Iterate the smaller set.
	if len(b) < len(a) {
		a, b = b, a
	}

	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}

	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

// splitWords lowercases text and splits it on anything that is not a letter
// or digit.
func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
