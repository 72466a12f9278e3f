package records

import (
	"sort"
	"strings"

	"github.com/wolfman30/spa-ledger/internal/catalog"
)

const procedureSeparator = ", "

// EncodeProcedures writes the canonical on-disk form: lowercase catalog slugs,
// sorted and de-duplicated, joined by ", ".
func EncodeProcedures(slugs []string) string {
	seen := make(map[string]struct{}, len(slugs))
	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return strings.Join(out, procedureSeparator)
}

// DecodeProcedures reads any historical form of the Procedures column:
// canonical slugs, upper-cased slugs or display names. Tokens that resolve to
// the catalog come back as their slug; others are kept lowercased verbatim.
func DecodeProcedures(column string) []string {
	var out []string
	for _, token := range strings.Split(column, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if p, ok := catalog.Resolve(token); ok {
			out = append(out, p.Slug)
			continue
		}
		out = append(out, strings.ToLower(token))
	}
	return out
}

// DisplayProcedures joins display names for the given slugs.
func DisplayProcedures(slugs []string) string {
	if len(slugs) == 0 {
		return "N/A"
	}
	names := make([]string, 0, len(slugs))
	for _, s := range slugs {
		names = append(names, catalog.DisplayName(s))
	}
	return strings.Join(names, ", ")
}
