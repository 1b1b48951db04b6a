package store

import (
	"context"
	"sync"

	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

// MemoryStore is a TripleStore held in process memory. It is safe for
// concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	graphs map[string]*rdf.Graph
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graphs: make(map[string]*rdf.Graph)}
}

// Insert implements TripleStore.
func (s *MemoryStore) Insert(ctx context.Context, graph string, t rdf.Triple) (bool, error) {
	if err := checkTriple(t); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[graph]
	if !ok {
		g = rdf.NewGraph()
		s.graphs[graph] = g
	}
	return g.Add(t), nil
}

// InsertAll implements TripleStore. Nothing is written if any triple is
// malformed.
func (s *MemoryStore) InsertAll(ctx context.Context, graph string, triples []rdf.Triple) (int, error) {
	for _, t := range triples {
		if err := checkTriple(t); err != nil {
			return 0, err
		}
	}
	created := 0
	for _, t := range triples {
		ok, err := s.Insert(ctx, graph, t)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// Load implements TripleStore. The returned graph is a copy.
func (s *MemoryStore) Load(ctx context.Context, graph string) (*rdf.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rdf.NewGraph(s.graphs[graph].Triples()...), nil
}

// Count implements TripleStore.
func (s *MemoryStore) Count(_ context.Context, graph string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graphs[graph].Len(), nil
}
