package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/observability"
	"github.com/helixir/author-reconciliation-service/internal/queries"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

const (
	prefix = "http://ucuenca.edu.ec/wkhuska/provider/"
	search = "https://dblp.org/search/author/api?q=victor+saquicela"
	member = "https://dblp.org/pid/22/999"
	pub    = "https://dblp.org/rec/journals/ws/Saquicela15"
	venue  = "https://dblp.org/streams/journals/ws"
)

var author = domain.InternalAuthor{ID: "urn:author:1", FirstName: "Victor", LastName: "Saquicela"}

// memWriter is an idempotent in-memory Writer that can fail after a number
// of inserts.
type memWriter struct {
	graphs  map[string]*rdf.Graph
	failAt  int
	inserts int
}

func newMemWriter() *memWriter {
	return &memWriter{graphs: make(map[string]*rdf.Graph)}
}

func (w *memWriter) Insert(_ context.Context, graph string, t rdf.Triple) (bool, error) {
	w.inserts++
	if w.failAt > 0 && w.inserts >= w.failAt {
		return false, errors.New("connection lost")
	}
	g, ok := w.graphs[graph]
	if !ok {
		g = rdf.NewGraph()
		w.graphs[graph] = g
	}
	return g.Add(t), nil
}

func matchFor(g *rdf.Graph) *domain.MatchResult {
	return &domain.MatchResult{MemberCount: 1, EndpointName: "DBLP Provider", Graph: g}
}

func providerGraph() *rdf.Graph {
	return rdf.NewGraph(
		rdf.NewTriple(search, rdf.FOAFMember, rdf.IRI(member)),
		rdf.NewTriple(member, rdf.FOAFName, rdf.Literal("Victor Saquicela")),
		rdf.NewTriple(member, rdf.FOAFPublications, rdf.IRI(pub)),
		rdf.NewTriple(pub, rdf.DCTTitle, rdf.Literal("Linked sensor data")),
		rdf.NewTriple(pub, rdf.DCTCreator, rdf.IRI(member)),
		rdf.NewTriple(pub, rdf.DCTIsPartOf, rdf.IRI(venue)),
		rdf.NewTriple(venue, rdf.DCTTitle, rdf.Literal("J. Web Semant.")),
		rdf.NewTriple(venue, rdf.BIBOISSN, rdf.Literal("1570-8268")),
	)
}

func newEngine(w Writer, m *observability.Metrics) *Engine {
	return NewEngine(queries.NewBuilder(), w, prefix, zerolog.Nop(), m)
}

func TestPartitionKey(t *testing.T) {
	e := newEngine(newMemWriter(), nil)
	assert.Equal(t, prefix+"DBLPProvider", e.PartitionKey("DBLP Provider"))
	assert.Equal(t, prefix+"ScopusProvider", e.PartitionKey(" Scopus  Provider "))
}

func TestReconcile_WritesAllPasses(t *testing.T) {
	w := newMemWriter()
	m := observability.NewMetrics("test_reconcile_passes")

	sum, err := newEngine(w, m).Reconcile(context.Background(), author, matchFor(providerGraph()))
	require.NoError(t, err)

	graph := prefix + "DBLPProvider"
	assert.Equal(t, graph, sum.Graph)
	assert.Equal(t, 1, sum.Publications)
	assert.Equal(t, 1, sum.SameAs)
	assert.Equal(t, 3, sum.Properties)
	assert.Equal(t, 2, sum.Resources)
	assert.Equal(t, 0, sum.Duplicates)
	assert.Equal(t, 7, sum.Written())
	assert.Equal(t, []string{member}, sum.ExternalIDs)

	g := w.graphs[graph]
	require.NotNil(t, g)
	assert.True(t, g.Contains(rdf.NewTriple(author.ID, rdf.OWLSameAs, rdf.IRI(member))))
	assert.True(t, g.Contains(rdf.NewTriple(member, rdf.FOAFPublications, rdf.IRI(pub))))
	assert.True(t, g.Contains(rdf.NewTriple(pub, rdf.DCTIsPartOf, rdf.IRI(venue))))
	assert.True(t, g.Contains(rdf.NewTriple(venue, rdf.BIBOISSN, rdf.Literal("1570-8268"))))
	// The member's own name is not publication data.
	assert.False(t, g.Contains(rdf.NewTriple(member, rdf.FOAFName, rdf.Literal("Victor Saquicela"))))

	assert.Equal(t, float64(3), testutil.ToFloat64(m.TriplesWritten.WithLabelValues("DBLPProvider", observability.TripleKindProperty)))
}

func TestReconcile_Idempotent(t *testing.T) {
	w := newMemWriter()
	e := newEngine(w, nil)

	first, err := e.Reconcile(context.Background(), author, matchFor(providerGraph()))
	require.NoError(t, err)
	before := w.graphs[first.Graph].Len()

	second, err := e.Reconcile(context.Background(), author, matchFor(providerGraph()))
	require.NoError(t, err)

	assert.Equal(t, before, w.graphs[first.Graph].Len())
	assert.Equal(t, 0, second.Written())
	assert.Equal(t, first.Written(), second.Duplicates)
}

func TestReconcile_SameAsOncePerMember(t *testing.T) {
	g := providerGraph()
	second := "https://dblp.org/rec/conf/esws/Saquicela14"
	g.Add(rdf.NewTriple(member, rdf.FOAFPublications, rdf.IRI(second)))
	g.Add(rdf.NewTriple(second, rdf.DCTTitle, rdf.Literal("Semantic annotation")))

	w := newMemWriter()
	sum, err := newEngine(w, nil).Reconcile(context.Background(), author, matchFor(g))
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Publications)
	assert.Equal(t, 1, sum.SameAs)
	assert.Equal(t, 0, sum.Duplicates)
}

func TestReconcile_NoPublicationsStillLinks(t *testing.T) {
	g := rdf.NewGraph(rdf.NewTriple(search, rdf.FOAFMember, rdf.IRI(member)))
	w := newMemWriter()

	sum, err := newEngine(w, nil).Reconcile(context.Background(), author, matchFor(g))
	require.NoError(t, err)

	assert.Equal(t, 1, sum.SameAs)
	assert.Equal(t, 1, sum.Written())
	assert.True(t, w.graphs[sum.Graph].Contains(rdf.NewTriple(author.ID, rdf.OWLSameAs, rdf.IRI(member))))
}

func TestReconcile_NoPublicationsSeveralMembers(t *testing.T) {
	g := rdf.NewGraph(
		rdf.NewTriple(search, rdf.FOAFMember, rdf.IRI(member)),
		rdf.NewTriple(search, rdf.FOAFMember, rdf.IRI("https://dblp.org/pid/1/2")),
	)

	sum, err := newEngine(newMemWriter(), nil).Reconcile(context.Background(), author, matchFor(g))
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Written())
}

func TestReconcile_StoreFailureKeepsPartialWrites(t *testing.T) {
	w := newMemWriter()
	w.failAt = 4
	m := observability.NewMetrics("test_reconcile_failure")

	sum, err := newEngine(w, m).Reconcile(context.Background(), author, matchFor(providerGraph()))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreQuery)
	var serr *domain.StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "insert", serr.Op)
	assert.Equal(t, sum.Graph, serr.Graph)

	// Publication, same-as and the first property were written before the failure.
	assert.Equal(t, 3, sum.Written())
	assert.Equal(t, 3, w.graphs[sum.Graph].Len())
	assert.Equal(t, 0, sum.Resources)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StoreErrors.WithLabelValues("insert")))
}

func TestReconcile_EmptyGraph(t *testing.T) {
	sum, err := newEngine(newMemWriter(), nil).Reconcile(context.Background(), author, matchFor(rdf.NewGraph()))
	require.NoError(t, err)
	assert.Equal(t, Summary{Graph: prefix + "DBLPProvider"}, sum)
}
