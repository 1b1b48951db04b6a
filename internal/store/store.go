// Package store persists triples into named graphs. Inserts are idempotent:
// writing a triple that is already present succeeds and reports false.
package store

import (
	"context"
	"fmt"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

// TripleStore is a set of named graphs.
type TripleStore interface {
	// Insert adds t to graph and reports whether it was new.
	Insert(ctx context.Context, graph string, t rdf.Triple) (bool, error)
	// InsertAll adds triples to graph in order and returns how many were new.
	InsertAll(ctx context.Context, graph string, triples []rdf.Triple) (int, error)
	// Load returns every triple of graph in insertion order.
	Load(ctx context.Context, graph string) (*rdf.Graph, error)
	// Count returns the number of triples in graph.
	Count(ctx context.Context, graph string) (int, error)
}

var (
	_ TripleStore = (*PostgresStore)(nil)
	_ TripleStore = (*Neo4jStore)(nil)
	_ TripleStore = (*MemoryStore)(nil)
)

func checkTriple(t rdf.Triple) error {
	if !t.Valid() {
		return fmt.Errorf("%w: malformed triple %s", domain.ErrInvalidInput, t)
	}
	return nil
}
