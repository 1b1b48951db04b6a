// Package candidates produces the ordered search-query variants tried for
// each author against a provider.
package candidates

import (
	"net/url"
	"strings"
)

// Template placeholders.
const (
	PlaceholderFirst       = "{first}"
	PlaceholderLast        = "{last}"
	PlaceholderAffiliation = "{affiliation}"
)

// Template is a provider query with name and affiliation placeholders, e.g.
// "authfirst({first})authlast({last})+AND+affil({affiliation})".
type Template struct {
	// Pattern contains any of the three placeholders.
	Pattern string
	// Escape query-escapes substituted values.
	Escape bool
	// OmitAffiliation drops the affiliation for providers with no
	// affiliation filter.
	OmitAffiliation bool
}

// Render substitutes the placeholders. It is the only place query text is
// built from author data.
func (t Template) Render(first, last, affiliation string) string {
	if t.Escape {
		first, last, affiliation = url.QueryEscape(first), url.QueryEscape(last), url.QueryEscape(affiliation)
	}
	if t.OmitAffiliation {
		affiliation = ""
	}
	r := strings.NewReplacer(
		PlaceholderFirst, first,
		PlaceholderLast, last,
		PlaceholderAffiliation, affiliation,
	)
	return strings.TrimSpace(r.Replace(t.Pattern))
}
