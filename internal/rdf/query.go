package rdf

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrMalformedQuery is returned when a query cannot be evaluated.
var ErrMalformedQuery = errors.New("malformed query")

// Node is one position of a triple pattern: either a variable or a fixed
// term.
type Node struct {
	Var  string
	Term Term
}

// Var returns a variable node.
func Var(name string) Node { return Node{Var: name} }

// Fixed returns a node matching exactly term.
func Fixed(term Term) Node { return Node{Term: term} }

// Resource returns a node matching exactly the IRI.
func Resource(iri string) Node { return Node{Term: IRI(iri)} }

// IsVar reports whether n is a variable.
func (n Node) IsVar() bool { return n.Var != "" }

func (n Node) String() string {
	if n.IsVar() {
		return "?" + n.Var
	}
	return n.Term.String()
}

// Pattern is a triple pattern.
type Pattern struct {
	S, P, O Node
}

// Filter rejects solutions after all patterns have matched.
type Filter func(Binding) bool

// Query is a basic graph pattern with a projection. Solutions are returned
// in the order the matching triples were inserted.
type Query struct {
	// Name identifies the query in logs and errors.
	Name string
	// Select lists the projected variables. Empty projects every variable.
	Select []string
	// Where is the conjunction of patterns, evaluated left to right.
	Where []Pattern
	// Filters are applied to complete solutions.
	Filters []Filter
	// Distinct drops duplicate projected solutions.
	Distinct bool
}

// String renders the query in a SPARQL-like form for logging.
func (q Query) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	if len(q.Select) == 0 {
		b.WriteString("*")
	}
	for i, v := range q.Select {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("?" + v)
	}
	b.WriteString(" WHERE {")
	for _, p := range q.Where {
		fmt.Fprintf(&b, " %s %s %s .", p.S, p.P, p.O)
	}
	b.WriteString(" }")
	return b.String()
}

// Validate checks that the query has patterns and that every projected
// variable is bound by some pattern.
func (q Query) Validate() error {
	if len(q.Where) == 0 {
		return fmt.Errorf("%w: %s: no patterns", ErrMalformedQuery, q.Name)
	}
	vars := make(map[string]bool)
	for _, p := range q.Where {
		for _, n := range []Node{p.S, p.P, p.O} {
			if n.IsVar() {
				vars[n.Var] = true
			} else if n.Term.IsZero() {
				return fmt.Errorf("%w: %s: empty term in pattern", ErrMalformedQuery, q.Name)
			}
		}
	}
	for _, v := range q.Select {
		if !vars[v] {
			return fmt.Errorf("%w: %s: projected variable ?%s is not bound", ErrMalformedQuery, q.Name, v)
		}
	}
	return nil
}

// Binding maps variable names to terms.
type Binding map[string]Term

// Get returns the term bound to name.
func (b Binding) Get(name string) (Term, bool) {
	t, ok := b[name]
	return t, ok
}

func (b Binding) clone() Binding {
	out := make(Binding, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Evaluate runs q against the graph and returns the projected solutions.
func (g *Graph) Evaluate(q Query) ([]Binding, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if g.Len() == 0 {
		return nil, nil
	}

	var (
		out  []Binding
		seen map[string]struct{}
	)
	if q.Distinct {
		seen = make(map[string]struct{})
	}

	var solve func(i int, b Binding)
	solve = func(i int, b Binding) {
		if i == len(q.Where) {
			for _, f := range q.Filters {
				if !f(b) {
					return
				}
			}
			row := project(b, q.Select)
			if seen != nil {
				key := rowKey(row, q.Select)
				if _, dup := seen[key]; dup {
					return
				}
				seen[key] = struct{}{}
			}
			out = append(out, row)
			return
		}
		p := q.Where[i]
		s, sOK := resolve(p.S, b)
		pr, pOK := resolve(p.P, b)
		var sp, pp *Term
		if sOK {
			sp = &s
		}
		if pOK {
			pp = &pr
		}
		for _, idx := range g.candidates(sp, pp) {
			next, ok := unify(p, g.triples[idx], b)
			if ok {
				solve(i+1, next)
			}
		}
	}
	solve(0, Binding{})
	return out, nil
}

func resolve(n Node, b Binding) (Term, bool) {
	if !n.IsVar() {
		return n.Term, true
	}
	t, ok := b[n.Var]
	return t, ok
}

func unify(p Pattern, t Triple, b Binding) (Binding, bool) {
	next := b
	cloned := false
	for _, pair := range [3]struct {
		n Node
		v Term
	}{{p.S, t.Subject}, {p.P, t.Predicate}, {p.O, t.Object}} {
		if !pair.n.IsVar() {
			if pair.n.Term != pair.v {
				return nil, false
			}
			continue
		}
		if bound, ok := next[pair.n.Var]; ok {
			if bound != pair.v {
				return nil, false
			}
			continue
		}
		if !cloned {
			next = b.clone()
			cloned = true
		}
		next[pair.n.Var] = pair.v
	}
	return next, true
}

func project(b Binding, vars []string) Binding {
	if len(vars) == 0 {
		return b.clone()
	}
	out := make(Binding, len(vars))
	for _, v := range vars {
		out[v] = b[v]
	}
	return out
}

func rowKey(row Binding, vars []string) string {
	var sb strings.Builder
	if len(vars) == 0 {
		for k := range row {
			vars = append(vars, k)
		}
		slices.Sort(vars)
	}
	for _, v := range vars {
		sb.WriteString(row[v].String())
		sb.WriteByte(0)
	}
	return sb.String()
}
