package rdf

// Graph is an insertion-ordered set of triples. The zero value is not
// usable; call NewGraph. A nil *Graph behaves as an empty graph for reads.
type Graph struct {
	triples     []Triple
	seen        map[Triple]struct{}
	bySubject   map[Term][]int
	byPredicate map[Term][]int
}

// NewGraph returns an empty graph, optionally seeded with triples.
func NewGraph(triples ...Triple) *Graph {
	g := &Graph{
		seen:        make(map[Triple]struct{}),
		bySubject:   make(map[Term][]int),
		byPredicate: make(map[Term][]int),
	}
	for _, t := range triples {
		g.Add(t)
	}
	return g
}

// Add inserts t and reports whether it was new. Malformed triples are
// ignored.
func (g *Graph) Add(t Triple) bool {
	if !t.Valid() {
		return false
	}
	if _, ok := g.seen[t]; ok {
		return false
	}
	idx := len(g.triples)
	g.triples = append(g.triples, t)
	g.seen[t] = struct{}{}
	g.bySubject[t.Subject] = append(g.bySubject[t.Subject], idx)
	g.byPredicate[t.Predicate] = append(g.byPredicate[t.Predicate], idx)
	return true
}

// Merge adds every triple of other and returns how many were new.
func (g *Graph) Merge(other *Graph) int {
	if other == nil {
		return 0
	}
	added := 0
	for _, t := range other.triples {
		if g.Add(t) {
			added++
		}
	}
	return added
}

// Len returns the number of triples.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.triples)
}

// Contains reports whether t is in the graph.
func (g *Graph) Contains(t Triple) bool {
	if g == nil {
		return false
	}
	_, ok := g.seen[t]
	return ok
}

// Triples returns a copy of the triples in insertion order.
func (g *Graph) Triples() []Triple {
	if g == nil {
		return nil
	}
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Objects returns the objects of every (subject, predicate, *) triple.
func (g *Graph) Objects(subject, predicate Term) []Term {
	if g == nil {
		return nil
	}
	var out []Term
	for _, idx := range g.bySubject[subject] {
		if t := g.triples[idx]; t.Predicate == predicate {
			out = append(out, t.Object)
		}
	}
	return out
}

// candidates returns the indexes worth scanning for a pattern whose subject
// and predicate may already be bound.
func (g *Graph) candidates(subject, predicate *Term) []int {
	switch {
	case subject != nil:
		return g.bySubject[*subject]
	case predicate != nil:
		return g.byPredicate[*predicate]
	default:
		all := make([]int, len(g.triples))
		for i := range all {
			all[i] = i
		}
		return all
	}
}
