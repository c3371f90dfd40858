package search

import "strings"

// Stop words filtered out during lexical tokenization.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// Tokenize splits text into normalized lexical tokens: lowercased, punctuation
// trimmed, stop words removed, common suffixes stripped. A query whose every
// token is a stop word or symbol yields an empty slice; callers fall back to
// trigram scoring in that case.
func Tokenize(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned == "" || stopWords[cleaned] {
			continue
		}
		tokens = append(tokens, stem(cleaned))
	}

	return tokens
}

// TokenSet returns the tokens of text as a set.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// LexicalRank scores token overlap between a document and a query: the
// fraction of distinct query tokens present in the document, in [0, 1].
// Zero when the query has no lexical tokens.
func LexicalRank(docTokens map[string]struct{}, queryTokens []string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(queryTokens))
	matched := 0
	for _, tok := range queryTokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := docTokens[tok]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(seen))
}

// stem strips common English suffixes. Deliberately crude: it only needs to
// make "cats"/"cat" and "sleeping"/"sleeps" collide, not be linguistically
// correct.
func stem(word string) string {
	switch {
	case strings.HasSuffix(word, "'s"):
		word = word[:len(word)-2]
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	}

	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 3 {
			return word[:len(word)-len(suffix)]
		}
	}
	return word
}
