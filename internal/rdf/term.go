// Package rdf holds the in-memory graph model that provider result sets are
// lifted into, and the basic-graph-pattern evaluator the reconciliation
// queries run against.
package rdf

import (
	"strconv"
	"strings"
)

// TermKind distinguishes resources from literal values.
type TermKind uint8

const (
	// KindIRI is a resource identified by an IRI.
	KindIRI TermKind = iota + 1
	// KindLiteral is a plain, typed or language-tagged literal.
	KindLiteral
	// KindBlank is a blank node scoped to one graph.
	KindBlank
)

// String implements fmt.Stringer.
func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindLiteral:
		return "literal"
	case KindBlank:
		return "blank"
	default:
		return "unknown"
	}
}

// ParseTermKind is the inverse of TermKind.String.
func ParseTermKind(s string) (TermKind, bool) {
	switch s {
	case "iri":
		return KindIRI, true
	case "literal":
		return KindLiteral, true
	case "blank":
		return KindBlank, true
	default:
		return 0, false
	}
}

// Term is a node or value in a graph. Terms are comparable and can be used
// as map keys.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

// IRI returns a resource term.
func IRI(value string) Term {
	return Term{Kind: KindIRI, Value: value}
}

// Literal returns a plain literal.
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// TypedLiteral returns a literal with an explicit datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Lang: strings.ToLower(lang)}
}

// Blank returns a blank node term.
func Blank(id string) Term {
	return Term{Kind: KindBlank, Value: id}
}

// IsZero reports whether t is the zero Term.
func (t Term) IsZero() bool {
	return t.Kind == 0 && t.Value == ""
}

// IsIRI reports whether t is a resource.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// IsLiteral reports whether t is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// IsResource reports whether t can appear in subject position.
func (t Term) IsResource() bool { return t.Kind == KindIRI || t.Kind == KindBlank }

// String renders the term in N-Triples form.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := strconv.Quote(t.Value)
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return ""
	}
}

// Triple is a single subject-predicate-object statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NewTriple builds a triple whose subject and predicate are IRIs.
func NewTriple(subject, predicate string, object Term) Triple {
	return Triple{Subject: IRI(subject), Predicate: IRI(predicate), Object: object}
}

// Valid reports whether the triple is well formed: a resource subject, an
// IRI predicate and a non-zero object.
func (t Triple) Valid() bool {
	return t.Subject.IsResource() && t.Subject.Value != "" &&
		t.Predicate.IsIRI() && t.Predicate.Value != "" &&
		!t.Object.IsZero()
}

// String renders the triple as an N-Triples line.
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}
