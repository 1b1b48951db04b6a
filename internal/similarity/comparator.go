package similarity

import "strings"

// Thresholds are the named distance thresholds a Comparator applies.
type Thresholds struct {
	// SemanticListList applies to keyword list against keyword list
	// (semanticDistanceListAListB).
	SemanticListList float64
	// SemanticWordList applies to one keyword against a list
	// (semanticDistanceWordListB).
	SemanticWordList float64
	// SyntacticNames applies to person names.
	SyntacticNames float64
}

// Comparator applies fixed thresholds to the distance functions.
type Comparator struct {
	thresholds Thresholds
}

// NewComparator returns a Comparator using t.
func NewComparator(t Thresholds) *Comparator {
	return &Comparator{thresholds: t}
}

// Thresholds returns the configured thresholds.
func (c *Comparator) Thresholds() Thresholds {
	return c.thresholds
}

// SemanticComparison reports whether two keyword lists describe the same
// topic.
func (c *Comparator) SemanticComparison(listA, listB []string) bool {
	return IsSemanticMatch(listA, listB, c.thresholds.SemanticListList)
}

// SemanticWordComparison reports whether word belongs to the topic of listB.
func (c *Comparator) SemanticWordComparison(word string, listB []string) bool {
	if strings.TrimSpace(word) == "" {
		return false
	}
	return IsSemanticMatch([]string{word}, listB, c.thresholds.SemanticWordList)
}

// SameName reports whether two names are within the syntactic threshold.
func (c *Comparator) SameName(a, b string) bool {
	return SyntacticDistance(a, b) < c.thresholds.SyntacticNames
}

// SyntacticComparisonNames reports whether every name is within the
// syntactic threshold of the first one. Fewer than two names, or any nil or
// blank name, is never a match.
func (c *Comparator) SyntacticComparisonNames(names ...*string) bool {
	if len(names) < 2 {
		return false
	}
	for _, n := range names {
		if n == nil || strings.TrimSpace(*n) == "" {
			return false
		}
	}
	for _, n := range names[1:] {
		if !c.SameName(*names[0], *n) {
			return false
		}
	}
	return true
}
