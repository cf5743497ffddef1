// Package textnorm folds free-form statement text into a comparable key.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold trims, lowercases, strips diacritics and collapses runs of whitespace,
// so "  Padaria  São João " becomes "padaria sao joao".
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		stripped = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(stripped), " ")
}
