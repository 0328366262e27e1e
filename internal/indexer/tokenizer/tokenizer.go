// Package tokenizer provides text normalisation for the keyword index.
// It lower-cases input, strips every character that is neither
// alphanumeric nor whitespace, splits on whitespace runs, and collapses
// duplicate terms.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize breaks text into its set of normalised keywords. Duplicates
// within the input collapse to a single entry, preserving first-occurrence
// order. Empty input yields no tokens.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	words := strings.Fields(b.String())
	if len(words) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(words))
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		tokens = append(tokens, word)
	}
	return tokens
}

// Normalize lower-cases a single query keyword so lookups match terms
// the way Tokenize indexed them. It applies no character stripping: a
// keyword that still carries punctuation can never match an indexed term
// and resolves to an empty result instead.
func Normalize(keyword string) string {
	return strings.ToLower(keyword)
}
