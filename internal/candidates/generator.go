package candidates

import (
	"strings"

	"github.com/helixir/author-reconciliation-service/internal/domain"
)

// Default affiliation values.
const (
	DefaultRegion  = "Ecuador"
	AnyAffiliation = "all"
)

// Generator builds candidate queries. The zero value uses DefaultRegion and
// AnyAffiliation.
type Generator struct {
	Region   string
	Wildcard string
}

// NewGenerator returns a Generator for the given affiliation values. Blank
// values fall back to the defaults.
func NewGenerator(region, wildcard string) *Generator {
	return &Generator{Region: region, Wildcard: wildcard}
}

// Generate returns the three candidates for author, most specific first:
//  1. first given name + first surname, scoped to the home region;
//  2. first given name + both surnames, any affiliation;
//  3. first given name + first surname, any affiliation.
//
// When the last name has a single token, candidates 2 and 3 coincide.
func (g *Generator) Generate(author domain.InternalAuthor, tmpl Template) []domain.CandidateQuery {
	first := firstToken(author.FirstName)
	last := firstToken(author.LastName)
	compound := compoundSurname(author.LastName)

	region, wildcard := g.region(), g.wildcard()

	return []domain.CandidateQuery{
		{Query: tmpl.Render(first, last, region), Priority: 1, Affiliation: region},
		{Query: tmpl.Render(first, compound, wildcard), Priority: 2, Affiliation: wildcard},
		{Query: tmpl.Render(first, last, wildcard), Priority: 3, Affiliation: wildcard},
	}
}

func (g *Generator) region() string {
	if g == nil || strings.TrimSpace(g.Region) == "" {
		return DefaultRegion
	}
	return g.Region
}

func (g *Generator) wildcard() string {
	if g == nil || strings.TrimSpace(g.Wildcard) == "" {
		return AnyAffiliation
	}
	return g.Wildcard
}

// firstToken returns the first whitespace-separated token, or the trimmed
// name when it cannot be split.
func firstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return strings.TrimSpace(name)
	}
	return fields[0]
}

// compoundSurname returns the first two tokens of a last name, or the single
// token when there is only one.
func compoundSurname(name string) string {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return firstToken(name)
	}
	return fields[0] + " " + fields[1]
}
