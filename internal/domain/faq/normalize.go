package faq

import (
	"strings"
	"unicode"
)

// normalizeQuery folds case and collapses punctuation and whitespace so that
// trivially different searches share one statistics key.
func normalizeQuery(q string) string {
	words := strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, " ")
}
