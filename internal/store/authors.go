package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/queries"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

// AuthorRegistry reads and writes the internal authors graph.
type AuthorRegistry struct {
	store   TripleStore
	builder queries.Builder
	graph   string
	logger  zerolog.Logger
}

// NewAuthorRegistry creates a registry over graph.
func NewAuthorRegistry(store TripleStore, builder queries.Builder, graph string, logger zerolog.Logger) *AuthorRegistry {
	return &AuthorRegistry{
		store:   store,
		builder: builder,
		graph:   graph,
		logger:  logger.With().Str("component", "author_registry").Logger(),
	}
}

// Graph returns the authors graph name.
func (r *AuthorRegistry) Graph() string {
	return r.graph
}

// Authors returns every author with a first and last name, in registry
// order. Incomplete entries are skipped.
func (r *AuthorRegistry) Authors(ctx context.Context) ([]domain.InternalAuthor, error) {
	g, err := r.store.Load(ctx, r.graph)
	if err != nil {
		return nil, fmt.Errorf("failed to read author registry: %w", err)
	}
	rows, err := g.Evaluate(r.builder.AuthorsData())
	if err != nil {
		return nil, fmt.Errorf("failed to query author registry: %w", err)
	}

	authors := make([]domain.InternalAuthor, 0, len(rows))
	for _, row := range rows {
		a := domain.InternalAuthor{
			ID:        row[queries.VarSubject].Value,
			FirstName: row[queries.VarFirstName].Value,
			LastName:  row[queries.VarLastName].Value,
		}
		if err := a.Validate(); err != nil {
			r.logger.Warn().Err(err).Str("author_id", a.ID).Msg("skipping incomplete author")
			continue
		}
		authors = append(authors, a)
	}
	return authors, nil
}

// Add writes a as a foaf:Person and reports whether anything was new.
func (r *AuthorRegistry) Add(ctx context.Context, a domain.InternalAuthor) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}
	created, err := r.store.InsertAll(ctx, r.graph, []rdf.Triple{
		rdf.NewTriple(a.ID, rdf.RDFType, rdf.IRI(rdf.FOAFPerson)),
		rdf.NewTriple(a.ID, rdf.FOAFFirstName, rdf.Literal(a.FirstName)),
		rdf.NewTriple(a.ID, rdf.FOAFLastName, rdf.Literal(a.LastName)),
	})
	if err != nil {
		return false, fmt.Errorf("failed to add author: %w", err)
	}
	return created > 0, nil
}
