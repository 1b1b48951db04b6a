package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/author-reconciliation-service/internal/domain"
	"github.com/helixir/author-reconciliation-service/internal/queries"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

const authorsGraph = "http://ucuenca.edu.ec/wkhuska/authors"

type failingStore struct {
	TripleStore
	err error
}

func (f failingStore) Load(context.Context, string) (*rdf.Graph, error) { return nil, f.err }

func newRegistry(s TripleStore) *AuthorRegistry {
	return NewAuthorRegistry(s, queries.NewBuilder(), authorsGraph, zerolog.Nop())
}

func TestAuthorRegistry_AddAndList(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(NewMemoryStore())

	authors := []domain.InternalAuthor{
		{ID: "urn:author:1", FirstName: "Maria Jose", LastName: "Saquicela Galarza"},
		{ID: "urn:author:2", FirstName: "Victor", LastName: "Saquicela"},
	}
	for _, a := range authors {
		created, err := r.Add(ctx, a)
		require.NoError(t, err)
		assert.True(t, created)
	}

	created, err := r.Add(ctx, authors[0])
	require.NoError(t, err)
	assert.False(t, created)

	got, err := r.Authors(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(authors, got); diff != "" {
		t.Errorf("authors mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, authorsGraph, r.Graph())
}

func TestAuthorRegistry_SkipsIncompleteAuthors(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.InsertAll(ctx, authorsGraph, []rdf.Triple{
		rdf.NewTriple("urn:author:3", rdf.RDFType, rdf.IRI(rdf.FOAFPerson)),
		rdf.NewTriple("urn:author:3", rdf.FOAFFirstName, rdf.Literal("Luis")),
	})
	require.NoError(t, err)

	got, err := newRegistry(s).Authors(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAuthorRegistry_AddValidates(t *testing.T) {
	_, err := newRegistry(NewMemoryStore()).Add(context.Background(), domain.InternalAuthor{ID: "urn:author:4", FirstName: "Ana"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuthorRegistry_LoadFailure(t *testing.T) {
	cause := errors.New("connection refused")
	_, err := newRegistry(failingStore{err: cause}).Authors(context.Background())
	assert.ErrorIs(t, err, cause)
}
