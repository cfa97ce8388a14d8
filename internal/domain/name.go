package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nameSeparators are removed from names before indexing and scoring, so that
// "O'Brien", "O’Brien" and "OBrien" share one normalized form
var nameSeparators = runes.Predicate(func(r rune) bool {
	switch r {
	case '\'', '’', 'ʼ', '`', '-', '‐', '‑', '–', '—':
		return true
	}
	return false
})

// NormalizeName folds case, drops diacritics, strips hyphens and apostrophes and
// collapses whitespace
func NormalizeName(name string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(nameSeparators),
		norm.NFC,
		cases.Fold(),
	)
	out, _, err := transform.String(t, name)
	if err != nil {
		out = strings.ToLower(name)
	}
	return strings.Join(strings.Fields(out), " ")
}

// NormalizeOptionalName normalizes a nullable name
func NormalizeOptionalName(name *string) string {
	if name == nil {
		return ""
	}
	return NormalizeName(*name)
}
