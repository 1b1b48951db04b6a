package matching

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/observability"
	"github.com/helixir/author-reconciliation-service/internal/providers"
	"github.com/helixir/author-reconciliation-service/internal/queries"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
	"github.com/helixir/author-reconciliation-service/internal/similarity"
)

const searchIRI = "https://dblp.org/search/author/api?q=x"

type reply struct {
	status  int
	members []string
	name    string
	err     error
}

// fakeProvider answers each query with a scripted reply and records the
// queries it received.
type fakeProvider struct {
	replies map[string]reply
	calls   []string
}

func (f *fakeProvider) Name() string         { return "fake" }
func (f *fakeProvider) EndpointName() string { return "Fake Provider" }

func (f *fakeProvider) Lookup(_ context.Context, query string) (*providers.LookupResult, error) {
	f.calls = append(f.calls, query)
	r, ok := f.replies[query]
	if !ok {
		r = reply{status: http.StatusOK}
	}
	if r.err != nil {
		return nil, r.err
	}
	g := rdf.NewGraph()
	for _, m := range r.members {
		g.Add(rdf.NewTriple(searchIRI, rdf.FOAFMember, rdf.IRI(m)))
		if r.name != "" {
			g.Add(rdf.NewTriple(m, rdf.FOAFName, rdf.Literal(r.name)))
		}
	}
	return &providers.LookupResult{StatusCode: r.status, Graph: g}, nil
}

func candidates(qs ...string) []domain.CandidateQuery {
	out := make([]domain.CandidateQuery, len(qs))
	for i, q := range qs {
		out[i] = domain.CandidateQuery{Query: q, Priority: i + 1}
	}
	return out
}

var author = domain.InternalAuthor{ID: "urn:author:1", FirstName: "Victor", LastName: "Saquicela"}

func newVerifier(buf *bytes.Buffer, m *observability.Metrics) *Verifier {
	logger := zerolog.Nop()
	if buf != nil {
		logger = zerolog.New(buf)
	}
	cmp := similarity.NewComparator(similarity.Thresholds{SyntacticNames: 0.25})
	return NewVerifier(queries.NewBuilder(), cmp, logger, m)
}

func TestFindUnambiguousMatch_FirstCandidate(t *testing.T) {
	p := &fakeProvider{replies: map[string]reply{
		"q1": {status: 200, members: []string{"https://dblp.org/pid/1"}, name: "Victor Saquicela"},
	}}

	out := newVerifier(nil, nil).FindUnambiguousMatch(context.Background(), p, author, candidates("q1", "q2", "q3"))

	require.Equal(t, domain.OutcomeMatched, out.Kind)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, []string{"q1"}, p.calls)
	assert.Equal(t, "Fake Provider", out.Match.EndpointName)
	assert.Equal(t, 1, out.Match.MemberCount)
	assert.Equal(t, "q1", out.Match.SourceQuery.Query)
}

func TestFindUnambiguousMatch_KthCandidate(t *testing.T) {
	p := &fakeProvider{replies: map[string]reply{
		"q1": {status: 200},
		"q2": {status: 200, members: []string{"a", "b"}},
		"q3": {status: 200, members: []string{"https://dblp.org/pid/3"}},
	}}

	out := newVerifier(nil, nil).FindUnambiguousMatch(context.Background(), p, author, candidates("q1", "q2", "q3"))

	require.Equal(t, domain.OutcomeMatched, out.Kind)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, "q3", out.Match.SourceQuery.Query)
}

func TestFindUnambiguousMatch_AlwaysAmbiguous(t *testing.T) {
	two := reply{status: 200, members: []string{"https://dblp.org/pid/1", "https://dblp.org/pid/2"}}
	p := &fakeProvider{replies: map[string]reply{"q1": two, "q2": two, "q3": two}}

	out := newVerifier(nil, nil).FindUnambiguousMatch(context.Background(), p, author, candidates("q1", "q2", "q3"))

	assert.Equal(t, domain.OutcomeUnmatched, out.Kind)
	assert.Equal(t, 3, out.Attempts)
	assert.Nil(t, out.Match)
	assert.Len(t, p.calls, 3)
}

func TestFindUnambiguousMatch_RepeatedQueryIsSentOnce(t *testing.T) {
	two := reply{status: 200, members: []string{"https://dblp.org/pid/1", "https://dblp.org/pid/2"}}
	p := &fakeProvider{replies: map[string]reply{"Victor Saquicela": two}}

	// Templates without an affiliation render the first and third candidate alike.
	cands := candidates("Victor Saquicela", "Victor Saquicela", "Victor Saquicela")
	cands[1].Affiliation = "all"

	out := newVerifier(nil, nil).FindUnambiguousMatch(context.Background(), p, author, cands)

	assert.Equal(t, domain.OutcomeUnmatched, out.Kind)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, []string{"Victor Saquicela"}, p.calls)
}

func TestFindUnambiguousMatch_RepeatKeepsOrder(t *testing.T) {
	one := reply{status: 200, members: []string{"https://dblp.org/pid/9"}}
	p := &fakeProvider{replies: map[string]reply{"q3": one}}

	out := newVerifier(nil, nil).FindUnambiguousMatch(context.Background(), p, author, candidates("q1", "q1", "q3"))

	require.Equal(t, domain.OutcomeMatched, out.Kind)
	assert.Equal(t, []string{"q1", "q3"}, p.calls)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, 3, out.Match.SourceQuery.Priority)
}

func TestFindUnambiguousMatch_TransportErrorContinues(t *testing.T) {
	m := observability.NewMetrics("test_verifier_transport")
	p := &fakeProvider{replies: map[string]reply{
		"q1": {err: errors.New("connection reset")},
		"q2": {status: 200, members: []string{"https://dblp.org/pid/2"}},
	}}

	out := newVerifier(nil, m).FindUnambiguousMatch(context.Background(), p, author, candidates("q1", "q2", "q3"))

	require.Equal(t, domain.OutcomeMatched, out.Kind)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LookupFailures.WithLabelValues("fake", reasonTransport)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CandidatesSubmitted.WithLabelValues("fake")))
}

func TestFindUnambiguousMatch_UnavailableStops(t *testing.T) {
	p := &fakeProvider{replies: map[string]reply{
		"q1": {status: http.StatusServiceUnavailable},
		"q2": {status: 200, members: []string{"https://dblp.org/pid/2"}},
	}}

	out := newVerifier(nil, nil).FindUnambiguousMatch(context.Background(), p, author, candidates("q1", "q2", "q3"))

	require.Equal(t, domain.OutcomeProviderUnavailable, out.Kind)
	assert.Equal(t, []string{"q1"}, p.calls)
	assert.ErrorIs(t, out.Reason, domain.ErrProviderUnavailable)

	var unavailable *domain.ProviderUnavailableError
	require.ErrorAs(t, out.Reason, &unavailable)
	assert.Equal(t, "q1", unavailable.Query)
	assert.Equal(t, http.StatusServiceUnavailable, unavailable.StatusCode)
}

func TestFindUnambiguousMatch_OtherStatusContinues(t *testing.T) {
	m := observability.NewMetrics("test_verifier_status")
	p := &fakeProvider{replies: map[string]reply{
		"q1": {status: http.StatusNotFound, members: []string{"https://dblp.org/pid/1"}},
		"q2": {status: http.StatusInternalServerError},
	}}

	out := newVerifier(nil, m).FindUnambiguousMatch(context.Background(), p, author, candidates("q1", "q2", "q3"))

	assert.Equal(t, domain.OutcomeUnmatched, out.Kind)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.LookupFailures.WithLabelValues("fake", reasonStatus)))
}

func TestFindUnambiguousMatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeProvider{}

	out := newVerifier(nil, nil).FindUnambiguousMatch(ctx, p, author, candidates("q1", "q2", "q3"))

	assert.Equal(t, domain.OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Reason, context.Canceled)
	assert.Equal(t, 0, out.Attempts)
	assert.Empty(t, p.calls)
}

func TestFindUnambiguousMatch_NoCandidates(t *testing.T) {
	out := newVerifier(nil, nil).FindUnambiguousMatch(context.Background(), &fakeProvider{}, author, nil)

	assert.Equal(t, domain.OutcomeUnmatched, out.Kind)
	assert.Equal(t, 0, out.Attempts)
}

func TestFindUnambiguousMatch_NameMismatchIsAdvisory(t *testing.T) {
	var buf bytes.Buffer
	m := observability.NewMetrics("test_verifier_names")
	p := &fakeProvider{replies: map[string]reply{
		"q1": {status: 200, members: []string{"https://dblp.org/pid/9"}, name: "Wolfgang Amadeus Mozart"},
	}}

	out := newVerifier(&buf, m).FindUnambiguousMatch(context.Background(), p, author, candidates("q1"))

	assert.Equal(t, domain.OutcomeMatched, out.Kind)
	assert.Contains(t, buf.String(), "matched member name differs from author name")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NameMismatches.WithLabelValues("fake")))
}

func TestFindUnambiguousMatch_SameNameNotFlagged(t *testing.T) {
	var buf bytes.Buffer
	p := &fakeProvider{replies: map[string]reply{
		"q1": {status: 200, members: []string{"https://dblp.org/pid/1"}, name: "Victor Saquicela"},
	}}

	newVerifier(&buf, nil).FindUnambiguousMatch(context.Background(), p, author, candidates("q1"))

	assert.NotContains(t, buf.String(), "differs from author name")
}
