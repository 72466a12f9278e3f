package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugStripper = strings.NewReplacer(" ", "", "-", "")

// Normalize folds text to a canonical slug: compatibility-decomposed, non-ASCII
// runes (diacritics included) dropped, lowercased, spaces and hyphens removed.
// It never fails and is idempotent.
func Normalize(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return slugStripper.Replace(strings.ToLower(folded))
}
