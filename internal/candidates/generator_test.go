package candidates

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/author-reconciliation-service/internal/domain"
)

var plain = Template{Pattern: "{first}|{last}|{affiliation}"}

func TestTemplate_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tmpl Template
		want string
	}{
		{
			name: "scopus style",
			tmpl: Template{Pattern: "authfirst({first})authlast({last})+AND+affil({affiliation})"},
			want: "authfirst(Maria)authlast(Saquicela Galarza)+AND+affil(all)",
		},
		{
			name: "escaped",
			tmpl: Template{Pattern: "authfirst({first})authlast({last})+AND+affil({affiliation})", Escape: true},
			want: "authfirst(Maria)authlast(Saquicela+Galarza)+AND+affil(all)",
		},
		{
			name: "affiliation omitted",
			tmpl: Template{Pattern: "{first} {last} {affiliation}", OmitAffiliation: true},
			want: "Maria Saquicela Galarza",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.tmpl.Render("Maria", "Saquicela Galarza", "all"))
		})
	}
}

func TestGenerator_CompoundNames(t *testing.T) {
	t.Parallel()

	author := domain.InternalAuthor{ID: "a1", FirstName: "Maria Jose", LastName: "Saquicela Galarza"}
	got := NewGenerator("Ecuador", "all").Generate(author, plain)

	want := []domain.CandidateQuery{
		{Query: "Maria|Saquicela|Ecuador", Priority: 1, Affiliation: "Ecuador"},
		{Query: "Maria|Saquicela Galarza|all", Priority: 2, Affiliation: "all"},
		{Query: "Maria|Saquicela|all", Priority: 3, Affiliation: "all"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerator_SingleTokenNames(t *testing.T) {
	t.Parallel()

	author := domain.InternalAuthor{ID: "a2", FirstName: "Victor", LastName: "Saquicela"}
	got := (&Generator{}).Generate(author, plain)

	require.Len(t, got, 3)
	assert.Equal(t, "Victor|Saquicela|Ecuador", got[0].Query)
	// Without a second surname the two wildcard candidates coincide.
	assert.Equal(t, got[1].Query, got[2].Query)
	assert.Equal(t, "Victor|Saquicela|all", got[2].Query)
}

func TestGenerator_ThreeSurnameTokens(t *testing.T) {
	t.Parallel()

	author := domain.InternalAuthor{ID: "a3", FirstName: "Ana", LastName: "de la Cruz"}
	got := NewGenerator("", "").Generate(author, plain)

	assert.Equal(t, "Ana|de|Ecuador", got[0].Query)
	assert.Equal(t, "Ana|de la|all", got[1].Query)
}

// The wildcard affiliation widens the search last. A namesake elsewhere can
// then be the only member and gets accepted. This ordering is the intended
// policy and is kept as is.
func TestGenerator_WildcardFallbackIsLast(t *testing.T) {
	t.Parallel()

	author := domain.InternalAuthor{ID: "a4", FirstName: "Luis", LastName: "Espinoza"}
	got := NewGenerator("Ecuador", "all").Generate(author, plain)

	assert.Equal(t, "Ecuador", got[0].Affiliation)
	for _, c := range got[1:] {
		assert.Equal(t, "all", c.Affiliation)
	}
	for i, c := range got {
		assert.Equal(t, i+1, c.Priority)
	}
}

func TestFirstToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Maria", firstToken("  Maria Jose "))
	assert.Equal(t, "Saquicela", firstToken("Saquicela"))
	assert.Equal(t, "", firstToken("   "))
	assert.Equal(t, "Saquicela", compoundSurname("Saquicela"))
}
