package ledger

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CanonicalName trims and upper-cases a product name.
func CanonicalName(name string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(name))
}

// Fold returns the case-folded form of s for case-insensitive matching.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Matches reports whether the product's SKU or name contains query, ignoring case.
// An empty query matches every product.
func (p Product) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := Fold(query)
	return strings.Contains(Fold(p.SKU), q) || strings.Contains(Fold(p.Name), q)
}
