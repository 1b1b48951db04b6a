// Package matching decides whether a provider knows exactly one researcher
// for an internal author.
package matching

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/observability"
	"github.com/helixir/author-reconciliation-service/internal/providers"
	"github.com/helixir/author-reconciliation-service/internal/queries"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
	"github.com/helixir/author-reconciliation-service/internal/similarity"
)

// Lookup failure reasons reported to metrics.
const (
	reasonTransport = "transport"
	reasonStatus    = "status"
	reasonQuery     = "query"
)

// Searcher is the part of a provider the verifier needs.
type Searcher interface {
	Name() string
	EndpointName() string
	Lookup(ctx context.Context, query string) (*providers.LookupResult, error)
}

// Verifier submits candidate queries in order and stops at the first one
// that yields a single member.
type Verifier struct {
	builder    queries.Builder
	comparator *similarity.Comparator
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// NewVerifier creates a Verifier. comparator and metrics may be nil.
func NewVerifier(builder queries.Builder, comparator *similarity.Comparator, logger zerolog.Logger, metrics *observability.Metrics) *Verifier {
	return &Verifier{
		builder:    builder,
		comparator: comparator,
		logger:     logger.With().Str("component", "verifier").Logger(),
		metrics:    metrics,
	}
}

// FindUnambiguousMatch tries each candidate until one returns exactly one
// member. A 503 from the provider ends the search for this author. A
// candidate whose query repeats an earlier one is skipped, since the
// provider would give the same answer.
func (v *Verifier) FindUnambiguousMatch(ctx context.Context, p Searcher, author domain.InternalAuthor, cands []domain.CandidateQuery) domain.Outcome {
	logger := observability.WithAuthorContext(v.logger, author.ID, author.FullName()).
		With().Str("provider", p.Name()).Logger()

	attempts := 0
	tried := make(map[string]struct{}, len(cands))
	for _, cand := range cands {
		if err := ctx.Err(); err != nil {
			return domain.Failed(err, attempts)
		}
		if _, dup := tried[cand.Query]; dup {
			continue
		}
		tried[cand.Query] = struct{}{}

		attempts++
		clog := observability.WithCandidateContext(logger, cand.Query, cand.Priority)

		start := time.Now()
		res, err := p.Lookup(ctx, cand.Query)
		v.metrics.RecordLookup(p.Name(), time.Since(start).Seconds())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.Failed(ctxErr, attempts)
			}
			terr := &domain.TransportError{Provider: p.Name(), Query: cand.Query, Cause: err}
			clog.Warn().Err(terr).Msg("candidate lookup failed")
			v.metrics.RecordLookupFailure(p.Name(), reasonTransport)
			continue
		}

		if res.Unavailable() {
			clog.Warn().Int("status", res.StatusCode).Msg("provider unavailable")
			return domain.ProviderUnavailable(&domain.ProviderUnavailableError{
				Provider:   p.Name(),
				Query:      cand.Query,
				StatusCode: res.StatusCode,
			}, attempts)
		}
		if !res.OK() {
			terr := &domain.TransportError{Provider: p.Name(), Query: cand.Query, StatusCode: res.StatusCode}
			clog.Warn().Err(terr).Msg("candidate lookup rejected")
			v.metrics.RecordLookupFailure(p.Name(), reasonStatus)
			continue
		}

		rows, err := res.Graph.Evaluate(v.builder.Members())
		if err != nil {
			clog.Error().Err(err).Msg("members query failed")
			v.metrics.RecordLookupFailure(p.Name(), reasonQuery)
			continue
		}
		if len(rows) != 1 {
			clog.Debug().Int("members", len(rows)).Msg("candidate not unambiguous")
			continue
		}

		member := rows[0][queries.VarMember]
		v.checkName(clog, p.Name(), res.Graph, member, author)

		endpoint := res.EndpointName
		if endpoint == "" {
			endpoint = p.EndpointName()
		}
		clog.Info().Str("member", member.Value).Msg("unambiguous match")
		return domain.Matched(&domain.MatchResult{
			SourceQuery:  cand,
			MemberCount:  1,
			EndpointName: endpoint,
			Graph:        res.Graph,
		}, attempts)
	}

	logger.Info().Int("attempts", attempts).Msg("no unambiguous match")
	return domain.Unmatched(attempts)
}

// checkName logs a match whose provider name is far from the internal name.
// It never changes the outcome.
func (v *Verifier) checkName(logger zerolog.Logger, provider string, g *rdf.Graph, member rdf.Term, author domain.InternalAuthor) {
	names := g.Objects(member, rdf.IRI(rdf.FOAFName))
	if v.comparator == nil || len(names) == 0 {
		return
	}
	for _, name := range names {
		if v.comparator.SameName(name.Value, author.FullName()) {
			return
		}
	}
	logger.Warn().
		Str("member", member.Value).
		Str("provider_name", names[0].Value).
		Msg("matched member name differs from author name")
	v.metrics.RecordNameMismatch(provider)
}
