// Package catalog holds the fixed procedure catalog and the slug normalizer
// used to join user input, stored rows and catalog entries.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Procedure is a catalog entry.
type Procedure struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// procedures is kept in menu display order.
var procedures = []Procedure{
	{Slug: "radiofrequencia", Name: "Radiofrequência"},
	{Slug: "limpezadepele", Name: "Limpeza de Pele"},
	{Slug: "bodyshape", Name: "Body Shape"},
	{Slug: "hiperslim", Name: "Hiper Slim"},
	{Slug: "massagem", Name: "Massagem"},
	{Slug: "spa", Name: "SPA"},
	{Slug: "posoperatorio", Name: "Pós Operatório"},
	{Slug: "ultrassom", Name: "Ultrassom"},
	{Slug: "detox", Name: "Detox"},
	{Slug: "3mh", Name: "3MH"},
	{Slug: "compex", Name: "Compex"},
	{Slug: "drenagem", Name: "Drenagem"},
	{Slug: "hybrius", Name: "Hybrius"},
}

var bySlug = func() map[string]Procedure {
	m := make(map[string]Procedure, len(procedures))
	for _, p := range procedures {
		m[p.Slug] = p
	}
	return m
}()

// AllowedPrices is the price allow-list offered by the registration flow.
var AllowedPrices = []int64{5, 10, 15, 20}

// All returns the catalog in display order.
func All() []Procedure {
	out := make([]Procedure, len(procedures))
	copy(out, procedures)
	return out
}

// Lookup returns the entry for an exact canonical slug.
func Lookup(slug string) (Procedure, bool) {
	p, ok := bySlug[slug]
	return p, ok
}

// Resolve maps free text (slug, upper-cased slug or display name, with or
// without accents) to a catalog entry.
func Resolve(text string) (Procedure, bool) {
	return Lookup(Normalize(text))
}

// Known reports whether slug is a catalog entry.
func Known(slug string) bool {
	_, ok := bySlug[slug]
	return ok
}

// DisplayName returns the catalog name for slug, or the slug upper-cased when
// it is not in the catalog.
func DisplayName(slug string) string {
	if p, ok := bySlug[slug]; ok {
		return p.Name
	}
	return strings.ToUpper(slug)
}

// IsAllowedPrice reports whether price is one of AllowedPrices.
func IsAllowedPrice(price decimal.Decimal) bool {
	for _, p := range AllowedPrices {
		if price.Equal(decimal.NewFromInt(p)) {
			return true
		}
	}
	return false
}
