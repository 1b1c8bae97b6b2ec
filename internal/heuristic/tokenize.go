package heuristic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizer strips diacritics so "café" and "cafe" count as one token.
var normalizer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases text and removes combining marks.
func normalize(text string) string {
	out, _, err := transform.String(normalizer, strings.ToLower(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return out
}

// tokenize splits normalized text into word tokens, dropping anything that
// is not letters or digits.
func tokenize(text string) []string {
	return strings.FieldsFunc(normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
