package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/author-reconciliation-service/internal/database"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

// Conn is a DBTX that can also open transactions. *database.DB and
// pgxmock pools satisfy it.
type Conn interface {
	database.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	insertTripleSQL = `INSERT INTO triples (graph, subject, subject_kind, predicate, object, object_kind, datatype, lang)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (graph, triple_hash) DO NOTHING`

	loadGraphSQL = `SELECT subject, subject_kind, predicate, object, object_kind, datatype, lang
		FROM triples WHERE graph = $1 ORDER BY id`

	countGraphSQL = `SELECT COUNT(*) FROM triples WHERE graph = $1`
)

// PostgresStore keeps every graph in one triples table.
type PostgresStore struct {
	db Conn
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db Conn) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert implements TripleStore.
func (s *PostgresStore) Insert(ctx context.Context, graph string, t rdf.Triple) (bool, error) {
	return insertTriple(ctx, s.db, graph, t)
}

// InsertAll implements TripleStore. The triples are written in one
// transaction.
func (s *PostgresStore) InsertAll(ctx context.Context, graph string, triples []rdf.Triple) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	created := 0
	for _, t := range triples {
		ok, err := insertTriple(ctx, tx, graph, t)
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				return 0, fmt.Errorf("%w (rollback error: %v)", err, rbErr)
			}
			return 0, err
		}
		if ok {
			created++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

func insertTriple(ctx context.Context, db database.DBTX, graph string, t rdf.Triple) (bool, error) {
	if err := checkTriple(t); err != nil {
		return false, err
	}
	tag, err := db.Exec(ctx, insertTripleSQL,
		graph,
		t.Subject.Value, t.Subject.Kind.String(),
		t.Predicate.Value,
		t.Object.Value, t.Object.Kind.String(),
		t.Object.Datatype, t.Object.Lang,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert triple: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Load implements TripleStore.
func (s *PostgresStore) Load(ctx context.Context, graph string) (*rdf.Graph, error) {
	rows, err := s.db.Query(ctx, loadGraphSQL, graph)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	defer rows.Close()

	g := rdf.NewGraph()
	for rows.Next() {
		var subject, subjectKind, predicate, object, objectKind, datatype, lang string
		if err := rows.Scan(&subject, &subjectKind, &predicate, &object, &objectKind, &datatype, &lang); err != nil {
			return nil, fmt.Errorf("failed to scan triple: %w", err)
		}
		subjKind, ok := rdf.ParseTermKind(subjectKind)
		if !ok {
			return nil, fmt.Errorf("unknown subject kind %q", subjectKind)
		}
		objKind, ok := rdf.ParseTermKind(objectKind)
		if !ok {
			return nil, fmt.Errorf("unknown object kind %q", objectKind)
		}
		g.Add(rdf.Triple{
			Subject:   rdf.Term{Kind: subjKind, Value: subject},
			Predicate: rdf.IRI(predicate),
			Object:    rdf.Term{Kind: objKind, Value: object, Datatype: datatype, Lang: lang},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating triples: %w", err)
	}
	return g, nil
}

// Count implements TripleStore.
func (s *PostgresStore) Count(ctx context.Context, graph string) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, countGraphSQL, graph).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count triples: %w", err)
	}
	return n, nil
}
