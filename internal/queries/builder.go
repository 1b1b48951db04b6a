// Package queries is the typed query builder the reconciliation core calls.
// Callers never assemble query text; they ask for a named query and read the
// bindings by the variable constants below.
package queries

import (
	"regexp"

	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

// Binding variables.
const (
	VarSubject   = "subject"
	VarFirstName = "fname"
	VarLastName  = "lname"

	VarMember = "member"

	VarAuthorResource      = "authorResource"
	VarPublicationResource = "publicationResource"
	VarPropertyName        = "publicationProperties"
	VarPropertyValue       = "publicationPropertiesValue"
)

// Builder produces the queries and insert statements used by the registry,
// the verifier and the merge engine.
type Builder interface {
	// AuthorsData lists every internal author with first and last name.
	AuthorsData() rdf.Query
	// Members lists the members of a provider search result.
	Members() rdf.Query
	// PublicationsFromProvider pairs each member with its publications.
	PublicationsFromProvider() rdf.Query
	// PublicationProperties lists every property of every publication.
	PublicationProperties() rdf.Query
	// PublicationPropertiesAsResources lists the properties of resources
	// that publications point to, such as venues.
	PublicationPropertiesAsResources() rdf.Query
	// IsURI reports whether value should be inserted as a resource.
	IsURI(value string) bool
	// InsertURI builds an insert whose object is a resource.
	InsertURI(graph, subject, predicate, object string) Insert
	// InsertLiteral builds an insert whose object is a literal.
	InsertLiteral(graph, subject, predicate string, object rdf.Term) Insert
}

// Insert is a single idempotent write of one triple into one graph.
type Insert struct {
	Graph  string
	Triple rdf.Triple
}

// uriPattern matches absolute identifiers in the schemes providers return.
var uriPattern = regexp.MustCompile(`^(?i:https?|ftp|urn|mailto|doi|info):[^\s<>"{}|\\^` + "`" + `]+$`)

// Default is the Builder over the FOAF/BIBO vocabulary.
type Default struct{}

// NewBuilder returns the default Builder.
func NewBuilder() *Default {
	return &Default{}
}

var _ Builder = (*Default)(nil)

// AuthorsData implements Builder.
func (*Default) AuthorsData() rdf.Query {
	return rdf.Query{
		Name:     "authors_data",
		Select:   []string{VarSubject, VarFirstName, VarLastName},
		Distinct: true,
		Where: []rdf.Pattern{
			{S: rdf.Var(VarSubject), P: rdf.Resource(rdf.RDFType), O: rdf.Resource(rdf.FOAFPerson)},
			{S: rdf.Var(VarSubject), P: rdf.Resource(rdf.FOAFFirstName), O: rdf.Var(VarFirstName)},
			{S: rdf.Var(VarSubject), P: rdf.Resource(rdf.FOAFLastName), O: rdf.Var(VarLastName)},
		},
	}
}

// Members implements Builder.
func (*Default) Members() rdf.Query {
	return rdf.Query{
		Name:     "members",
		Select:   []string{VarMember},
		Distinct: true,
		Where: []rdf.Pattern{
			{S: rdf.Var("search"), P: rdf.Resource(rdf.FOAFMember), O: rdf.Var(VarMember)},
		},
	}
}

// PublicationsFromProvider implements Builder.
func (*Default) PublicationsFromProvider() rdf.Query {
	return rdf.Query{
		Name:     "publications_from_provider",
		Select:   []string{VarAuthorResource, VarPublicationResource},
		Distinct: true,
		Where: []rdf.Pattern{
			{S: rdf.Var("search"), P: rdf.Resource(rdf.FOAFMember), O: rdf.Var(VarAuthorResource)},
			{S: rdf.Var(VarAuthorResource), P: rdf.Resource(rdf.FOAFPublications), O: rdf.Var(VarPublicationResource)},
		},
	}
}

// PublicationProperties implements Builder.
func (*Default) PublicationProperties() rdf.Query {
	return rdf.Query{
		Name:     "publication_properties",
		Select:   []string{VarPublicationResource, VarPropertyName, VarPropertyValue},
		Distinct: true,
		Where: []rdf.Pattern{
			{S: rdf.Var(VarAuthorResource), P: rdf.Resource(rdf.FOAFPublications), O: rdf.Var(VarPublicationResource)},
			{S: rdf.Var(VarPublicationResource), P: rdf.Var(VarPropertyName), O: rdf.Var(VarPropertyValue)},
		},
	}
}

// PublicationPropertiesAsResources implements Builder. The nested resource
// is reported under VarPublicationResource so both property passes are
// written the same way.
func (*Default) PublicationPropertiesAsResources() rdf.Query {
	return rdf.Query{
		Name:     "publication_properties_as_resources",
		Select:   []string{VarPublicationResource, VarPropertyName, VarPropertyValue},
		Distinct: true,
		Where: []rdf.Pattern{
			{S: rdf.Var(VarAuthorResource), P: rdf.Resource(rdf.FOAFPublications), O: rdf.Var("publication")},
			{S: rdf.Var("publication"), P: rdf.Var("link"), O: rdf.Var(VarPublicationResource)},
			{S: rdf.Var(VarPublicationResource), P: rdf.Var(VarPropertyName), O: rdf.Var(VarPropertyValue)},
		},
		Filters: []rdf.Filter{
			// Back-links to the author are not venue data.
			func(b rdf.Binding) bool { return b[VarPublicationResource] != b[VarAuthorResource] },
		},
	}
}

// IsURI implements Builder.
func (*Default) IsURI(value string) bool {
	return uriPattern.MatchString(value)
}

// InsertURI implements Builder.
func (*Default) InsertURI(graph, subject, predicate, object string) Insert {
	return Insert{Graph: graph, Triple: rdf.NewTriple(subject, predicate, rdf.IRI(object))}
}

// InsertLiteral implements Builder. A resource object is demoted to a plain
// literal of its value.
func (*Default) InsertLiteral(graph, subject, predicate string, object rdf.Term) Insert {
	if !object.IsLiteral() {
		object = rdf.Literal(object.Value)
	}
	return Insert{Graph: graph, Triple: rdf.NewTriple(subject, predicate, object)}
}

// Build chooses between InsertURI and InsertLiteral by looking at the
// object's value.
func Build(b Builder, graph, subject, predicate string, object rdf.Term) Insert {
	if b.IsURI(object.Value) {
		return b.InsertURI(graph, subject, predicate, object.Value)
	}
	return b.InsertLiteral(graph, subject, predicate, object)
}
