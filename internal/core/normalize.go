// Normalization utilities shared by the project resolver, the movement
// classifier and the cache-key builders. The upstream ledger and the
// spreadsheet disagree on accents, casing and tax-id punctuation, so every
// comparison in the aggregation core goes through these helpers.
package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName strips diacritics, lower-cases and trims surrounding
// whitespace. "Casa Corações" and " casa coracoes " normalize equal.
func NormalizeName(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Malformed UTF-8: fall back to the raw string so comparisons stay
		// deterministic instead of failing the whole aggregation.
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// DigitsOnly keeps only the decimal digits of a tax id, so
// "123.456.789-00" and "12345678900" compare equal.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
