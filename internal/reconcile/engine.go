// Package reconcile copies a matched provider result into the provider's
// partition of the graph store and links it to the internal author.
package reconcile

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/observability"
	"github.com/helixir/author-reconciliation-service/internal/providers"
	"github.com/helixir/author-reconciliation-service/internal/queries"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

// Writer stores one triple in one graph and reports whether it was new.
// Inserting an existing triple must succeed without effect.
type Writer interface {
	Insert(ctx context.Context, graph string, t rdf.Triple) (bool, error)
}

// Summary counts the triples one reconciliation wrote.
type Summary struct {
	Graph        string `json:"graph"`
	Publications int    `json:"publications"`
	SameAs       int    `json:"same_as"`
	Properties   int    `json:"properties"`
	Resources    int    `json:"resources"`
	// Duplicates counts inserts that were already present.
	Duplicates int `json:"duplicates"`
	// ExternalIDs are the provider identifiers linked to the author.
	ExternalIDs []string `json:"external_ids,omitempty"`
}

// Written returns the number of new triples.
func (s Summary) Written() int {
	return s.Publications + s.SameAs + s.Properties + s.Resources
}

// Engine merges match results into the store.
type Engine struct {
	builder queries.Builder
	writer  Writer
	prefix  string
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewEngine creates an Engine writing provider data under graphPrefix.
func NewEngine(builder queries.Builder, writer Writer, graphPrefix string, logger zerolog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		builder: builder,
		writer:  writer,
		prefix:  graphPrefix,
		logger:  logger.With().Str("component", "reconcile").Logger(),
		metrics: metrics,
	}
}

// PartitionKey returns the graph holding data from the named endpoint.
func (e *Engine) PartitionKey(endpointName string) string {
	return e.prefix + providers.Slug(endpointName)
}

// Reconcile writes the publications, the same-as link, the publication
// properties and the properties of resources publications point to, in that
// order. The first failure stops the author; triples already written stay.
func (e *Engine) Reconcile(ctx context.Context, author domain.InternalAuthor, match *domain.MatchResult) (Summary, error) {
	sum := Summary{Graph: e.PartitionKey(match.EndpointName)}
	logger := observability.WithAuthorContext(e.logger, author.ID, author.FullName()).
		With().Str("graph", sum.Graph).Logger()

	provider := providers.Slug(match.EndpointName)
	defer func() {
		e.metrics.RecordTriplesWritten(provider, observability.TripleKindPublication, sum.Publications)
		e.metrics.RecordTriplesWritten(provider, observability.TripleKindSameAs, sum.SameAs)
		e.metrics.RecordTriplesWritten(provider, observability.TripleKindProperty, sum.Properties)
		e.metrics.RecordTriplesWritten(provider, observability.TripleKindResource, sum.Resources)
	}()

	if err := e.linkPublications(ctx, author, match.Graph, &sum); err != nil {
		return sum, e.fail(logger, err)
	}
	if err := e.copyProperties(ctx, match.Graph, e.builder.PublicationProperties(), &sum, &sum.Properties); err != nil {
		return sum, e.fail(logger, err)
	}
	if err := e.copyProperties(ctx, match.Graph, e.builder.PublicationPropertiesAsResources(), &sum, &sum.Resources); err != nil {
		return sum, e.fail(logger, err)
	}

	logger.Info().
		Int("publications", sum.Publications).
		Int("properties", sum.Properties).
		Int("resources", sum.Resources).
		Int("duplicates", sum.Duplicates).
		Msg("author reconciled")
	return sum, nil
}

func (e *Engine) linkPublications(ctx context.Context, author domain.InternalAuthor, g *rdf.Graph, sum *Summary) error {
	rows, err := e.evaluate(g, e.builder.PublicationsFromProvider(), sum.Graph)
	if err != nil {
		return err
	}

	linked := make(map[string]struct{})
	for _, row := range rows {
		native := row[queries.VarAuthorResource].Value
		pub := queries.Build(e.builder, sum.Graph, native, rdf.FOAFPublications, row[queries.VarPublicationResource])
		if err := e.write(ctx, pub, sum, &sum.Publications); err != nil {
			return err
		}
		if _, ok := linked[native]; ok {
			continue
		}
		linked[native] = struct{}{}
		sum.ExternalIDs = append(sum.ExternalIDs, native)
		if err := e.write(ctx, e.builder.InsertURI(sum.Graph, author.ID, rdf.OWLSameAs, native), sum, &sum.SameAs); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		return nil
	}

	// No publications: the single member is still linked.
	members, err := e.evaluate(g, e.builder.Members(), sum.Graph)
	if err != nil {
		return err
	}
	if len(members) != 1 {
		return nil
	}
	native := members[0][queries.VarMember].Value
	sum.ExternalIDs = append(sum.ExternalIDs, native)
	return e.write(ctx, e.builder.InsertURI(sum.Graph, author.ID, rdf.OWLSameAs, native), sum, &sum.SameAs)
}

func (e *Engine) copyProperties(ctx context.Context, g *rdf.Graph, q rdf.Query, sum *Summary, counter *int) error {
	rows, err := e.evaluate(g, q, sum.Graph)
	if err != nil {
		return err
	}
	for _, row := range rows {
		ins := queries.Build(e.builder, sum.Graph,
			row[queries.VarPublicationResource].Value,
			row[queries.VarPropertyName].Value,
			row[queries.VarPropertyValue])
		if err := e.write(ctx, ins, sum, counter); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) evaluate(g *rdf.Graph, q rdf.Query, graph string) ([]rdf.Binding, error) {
	rows, err := g.Evaluate(q)
	if err != nil {
		return nil, domain.NewStoreError(q.Name, graph, err)
	}
	return rows, nil
}

func (e *Engine) write(ctx context.Context, ins queries.Insert, sum *Summary, counter *int) error {
	created, err := e.writer.Insert(ctx, ins.Graph, ins.Triple)
	if err != nil {
		return domain.NewStoreError("insert", ins.Graph, err)
	}
	if created {
		*counter++
	} else {
		sum.Duplicates++
	}
	return nil
}

func (e *Engine) fail(logger zerolog.Logger, err error) error {
	op := "unknown"
	var serr *domain.StoreError
	if errors.As(err, &serr) {
		op = serr.Op
	}
	e.metrics.RecordStoreError(op)
	logger.Error().Err(err).Msg("reconciliation stopped")
	return err
}
