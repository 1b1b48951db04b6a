package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"

	"github.com/helixir/author-reconciliation-service/internal/config"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

// GraphDriver runs Cypher statements.
type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}

// Neo4jDriver is the GraphDriver backed by the official driver.
type Neo4jDriver struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver connects to cfg.URI and verifies connectivity.
func NewNeo4jDriver(ctx context.Context, cfg config.Neo4jConfig, logger zerolog.Logger) (*Neo4jDriver, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}
	logger.Info().Str("uri", cfg.URI).Str("database", cfg.Database).Msg("connected to neo4j")
	return &Neo4jDriver{driver: driver, database: cfg.Database}, nil
}

// ExecuteQuery implements GraphDriver.
func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(d.database))
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

// BuildIndices implements GraphDriver. Existing indexes are left alone.
func (d *Neo4jDriver) BuildIndices(ctx context.Context) error {
	for _, q := range schemaStatements {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			return err
		}
	}
	return nil
}

// Close implements GraphDriver.
func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

var schemaStatements = []string{
	"CREATE CONSTRAINT resource_iri IF NOT EXISTS FOR (n:Resource) REQUIRE n.iri IS UNIQUE",
	"CREATE INDEX literal_value IF NOT EXISTS FOR (n:Literal) ON (n.value)",
	"CREATE INDEX statement_graph IF NOT EXISTS FOR ()-[r:STATEMENT]-() ON (r.graph)",
}

// Resources are (:Resource {iri}) nodes, literals are shared
// (:Literal {value, datatype, lang}) nodes, and each triple is a
// [:STATEMENT {graph, predicate}] relationship.
const (
	mergeResourceObjectCypher = `
MERGE (s:Resource {iri: $subject})
  ON CREATE SET s.kind = $subjectKind
MERGE (o:Resource {iri: $object})
  ON CREATE SET o.kind = $objectKind
MERGE (s)-[r:STATEMENT {graph: $graph, predicate: $predicate}]->(o)
  ON CREATE SET r.seq = timestamp(), r.created = true
  ON MATCH SET r.created = false
RETURN r.created AS created`

	mergeLiteralObjectCypher = `
MERGE (s:Resource {iri: $subject})
  ON CREATE SET s.kind = $subjectKind
MERGE (o:Literal {value: $object, datatype: $datatype, lang: $lang})
MERGE (s)-[r:STATEMENT {graph: $graph, predicate: $predicate}]->(o)
  ON CREATE SET r.seq = timestamp(), r.created = true
  ON MATCH SET r.created = false
RETURN r.created AS created`

	loadGraphCypher = `
MATCH (s:Resource)-[r:STATEMENT {graph: $graph}]->(o)
RETURN s.iri AS subject,
       coalesce(s.kind, 'iri') AS subjectKind,
       r.predicate AS predicate,
       CASE WHEN o:Literal THEN o.value ELSE o.iri END AS object,
       CASE WHEN o:Literal THEN 'literal' ELSE coalesce(o.kind, 'iri') END AS objectKind,
       coalesce(o.datatype, '') AS datatype,
       coalesce(o.lang, '') AS lang
ORDER BY r.seq, elementId(r)`

	countGraphCypher = `
MATCH ()-[r:STATEMENT {graph: $graph}]->()
RETURN count(r) AS total`
)

// Neo4jStore keeps graphs as labelled relationships in a property graph.
type Neo4jStore struct {
	driver GraphDriver
}

// NewNeo4jStore creates a Neo4jStore.
func NewNeo4jStore(driver GraphDriver) *Neo4jStore {
	return &Neo4jStore{driver: driver}
}

// Insert implements TripleStore.
func (s *Neo4jStore) Insert(ctx context.Context, graph string, t rdf.Triple) (bool, error) {
	if err := checkTriple(t); err != nil {
		return false, err
	}
	query := mergeResourceObjectCypher
	if t.Object.IsLiteral() {
		query = mergeLiteralObjectCypher
	}
	res, err := s.driver.ExecuteQuery(ctx, query, map[string]interface{}{
		"graph":       graph,
		"subject":     t.Subject.Value,
		"subjectKind": t.Subject.Kind.String(),
		"predicate":   t.Predicate.Value,
		"object":      t.Object.Value,
		"objectKind":  t.Object.Kind.String(),
		"datatype":    t.Object.Datatype,
		"lang":        t.Object.Lang,
	})
	if err != nil {
		return false, fmt.Errorf("failed to merge triple: %w", err)
	}
	if len(res.Records) == 0 {
		return false, fmt.Errorf("merge returned no record")
	}
	created, _ := res.Records[0].Get("created")
	ok, _ := created.(bool)
	return ok, nil
}

// InsertAll implements TripleStore.
func (s *Neo4jStore) InsertAll(ctx context.Context, graph string, triples []rdf.Triple) (int, error) {
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

// Load implements TripleStore.
func (s *Neo4jStore) Load(ctx context.Context, graph string) (*rdf.Graph, error) {
	res, err := s.driver.ExecuteQuery(ctx, loadGraphCypher, map[string]interface{}{"graph": graph})
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	g := rdf.NewGraph()
	for _, rec := range res.Records {
		t, err := recordTriple(rec)
		if err != nil {
			return nil, err
		}
		g.Add(t)
	}
	return g, nil
}

// Count implements TripleStore.
func (s *Neo4jStore) Count(ctx context.Context, graph string) (int, error) {
	res, err := s.driver.ExecuteQuery(ctx, countGraphCypher, map[string]interface{}{"graph": graph})
	if err != nil {
		return 0, fmt.Errorf("failed to count triples: %w", err)
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	total, _ := res.Records[0].Get("total")
	n, ok := total.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", total)
	}
	return int(n), nil
}

func recordTriple(rec *neo4j.Record) (rdf.Triple, error) {
	str := func(key string) string {
		v, _ := rec.Get(key)
		s, _ := v.(string)
		return s
	}
	subjKind, ok := rdf.ParseTermKind(str("subjectKind"))
	if !ok {
		return rdf.Triple{}, fmt.Errorf("unknown subject kind %q", str("subjectKind"))
	}
	objKind, ok := rdf.ParseTermKind(str("objectKind"))
	if !ok {
		return rdf.Triple{}, fmt.Errorf("unknown object kind %q", str("objectKind"))
	}
	return rdf.Triple{
		Subject:   rdf.Term{Kind: subjKind, Value: str("subject")},
		Predicate: rdf.IRI(str("predicate")),
		Object:    rdf.Term{Kind: objKind, Value: str("object"), Datatype: str("datatype"), Lang: str("lang")},
	}, nil
}
