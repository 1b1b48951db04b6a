package rdf

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	search = "https://dblp.org/search/author/api?q=victor+saquicela"
	author = "https://dblp.org/pid/11/1234"
	pub1   = "https://dblp.org/rec/journals/ws/Saquicela15"
	pub2   = "https://dblp.org/rec/conf/esws/Saquicela12"
	venue  = "https://dblp.org/streams/journals/ws"
)

func fixture() *Graph {
	return NewGraph(
		NewTriple(search, FOAFMember, IRI(author)),
		NewTriple(author, FOAFName, Literal("Víctor Saquicela")),
		NewTriple(author, FOAFPublications, IRI(pub1)),
		NewTriple(author, FOAFPublications, IRI(pub2)),
		NewTriple(pub1, DCTTitle, Literal("Semantic annotation of sensor data")),
		NewTriple(pub1, DCTIsPartOf, IRI(venue)),
		NewTriple(pub2, DCTTitle, Literal("Linked data in Ecuador")),
		NewTriple(venue, DCTTitle, Literal("J. Web Semant.")),
	)
}

func TestGraph_AddIsIdempotent(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	tr := NewTriple(author, FOAFName, Literal("Víctor Saquicela"))

	assert.True(t, g.Add(tr))
	assert.False(t, g.Add(tr))
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.Contains(tr))
}

func TestGraph_AddRejectsMalformed(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	assert.False(t, g.Add(Triple{Subject: Literal("x"), Predicate: IRI(FOAFName), Object: Literal("y")}))
	assert.False(t, g.Add(Triple{Subject: IRI(author), Predicate: Literal("p"), Object: Literal("y")}))
	assert.False(t, g.Add(Triple{Subject: IRI(author), Predicate: IRI(FOAFName)}))
	assert.Zero(t, g.Len())
}

func TestGraph_Merge(t *testing.T) {
	t.Parallel()

	g := fixture()
	other := NewGraph(
		NewTriple(author, FOAFName, Literal("Víctor Saquicela")),
		NewTriple(pub2, BIBODOI, Literal("10.1007/978-3-642-30284-8_1")),
	)

	assert.Equal(t, 1, g.Merge(other))
	assert.Equal(t, 0, g.Merge(nil))
	assert.Equal(t, 9, g.Len())
}

func TestGraph_NilIsEmpty(t *testing.T) {
	t.Parallel()

	var g *Graph
	assert.Zero(t, g.Len())
	assert.Nil(t, g.Triples())
	assert.Nil(t, g.Objects(IRI(author), IRI(FOAFName)))

	rows, err := g.Evaluate(Query{Name: "members", Select: []string{"m"}, Where: []Pattern{{Var("s"), Resource(FOAFMember), Var("m")}}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGraph_Objects(t *testing.T) {
	t.Parallel()

	got := fixture().Objects(IRI(author), IRI(FOAFPublications))
	assert.Equal(t, []Term{IRI(pub1), IRI(pub2)}, got)
}

func TestEvaluate_JoinPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	q := Query{
		Name:   "publications",
		Select: []string{"author", "pub"},
		Where: []Pattern{
			{Var("s"), Resource(FOAFMember), Var("author")},
			{Var("author"), Resource(FOAFPublications), Var("pub")},
		},
	}

	rows, err := fixture().Evaluate(q)
	require.NoError(t, err)

	want := []Binding{
		{"author": IRI(author), "pub": IRI(pub1)},
		{"author": IRI(author), "pub": IRI(pub2)},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_SecondLevelResources(t *testing.T) {
	t.Parallel()

	q := Query{
		Name:   "nested",
		Select: []string{"res", "p", "v"},
		Where: []Pattern{
			{Var("a"), Resource(FOAFPublications), Var("pub")},
			{Var("pub"), Var("link"), Var("res")},
			{Var("res"), Var("p"), Var("v")},
		},
	}

	rows, err := fixture().Evaluate(q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, IRI(venue), rows[0]["res"])
	assert.Equal(t, Literal("J. Web Semant."), rows[0]["v"])
}

func TestEvaluate_DistinctAndFilters(t *testing.T) {
	t.Parallel()

	q := Query{
		Name:     "authors",
		Select:   []string{"author"},
		Distinct: true,
		Where: []Pattern{
			{Var("author"), Resource(FOAFPublications), Var("pub")},
		},
	}
	rows, err := fixture().Evaluate(q)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	q.Distinct = false
	q.Filters = []Filter{func(b Binding) bool { return b["pub"] == IRI(pub2) }}
	rows, err = fixture().Evaluate(q)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestEvaluate_RepeatedVariable(t *testing.T) {
	t.Parallel()

	g := NewGraph(
		NewTriple(author, OWLSameAs, IRI(author)),
		NewTriple(author, OWLSameAs, IRI(pub1)),
	)
	rows, err := g.Evaluate(Query{Name: "self", Where: []Pattern{{Var("x"), Resource(OWLSameAs), Var("x")}}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, IRI(author), rows[0]["x"])
}

func TestEvaluate_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    Query
	}{
		{"no patterns", Query{Name: "empty"}},
		{"unbound projection", Query{Name: "unbound", Select: []string{"missing"}, Where: []Pattern{{Var("s"), Var("p"), Var("o")}}}},
		{"zero term", Query{Name: "zero", Where: []Pattern{{Var("s"), Node{}, Var("o")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixture().Evaluate(tt.q)
			assert.ErrorIs(t, err, ErrMalformedQuery)
		})
	}
}

func TestTerm_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<"+author+">", IRI(author).String())
	assert.Equal(t, `"2015"^^<`+XSDGYear+`>`, TypedLiteral("2015", XSDGYear).String())
	assert.Equal(t, `"datos"@es`, LangLiteral("datos", "ES").String())
	assert.Equal(t, "_:b0", Blank("b0").String())

	kind, ok := ParseTermKind(KindLiteral.String())
	require.True(t, ok)
	assert.Equal(t, KindLiteral, kind)
}
