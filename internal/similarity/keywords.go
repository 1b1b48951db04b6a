package similarity

import (
	"slices"
	"strings"
	"unicode"
)

// stopWords are dropped from keyword tokens. Registry keywords are a mix
// of English and Spanish.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "for": {}, "in": {}, "of": {}, "on": {}, "the": {}, "to": {}, "with": {},
	"de": {}, "del": {}, "el": {}, "en": {}, "la": {}, "las": {}, "los": {}, "para": {}, "por": {}, "y": {},
}

// NormalizeKeyword folds case and diacritics, reduces punctuation to single
// spaces and sorts the words, so "Web, Semantic" and "semantic web" are the
// same keyword.
func NormalizeKeyword(k string) string {
	k = strings.ToLower(FoldDiacritics(k))
	var sb strings.Builder
	sb.Grow(len(k))
	prevSpace := true
	for _, r := range k {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			sb.WriteRune(' ')
			prevSpace = true
		}
	}
	words := strings.Fields(sb.String())
	slices.Sort(words)
	return strings.Join(words, " ")
}

// SemanticDistance compares two keyword collections. When they share at
// least one normalized keyword, it blends the Jaccard distance of the
// keywords with that of their content words, so "semantic web" and
// "semantic web services" are close but not identical. Sets with no keyword
// in common are MaxDistance apart even when their words overlap.
// Order and duplicates do not matter. The result is 0 only for identical
// non-empty sets.
func SemanticDistance(keywordsA, keywordsB []string) float64 {
	setA := keywordSet(keywordsA)
	setB := keywordSet(keywordsB)
	if len(setA) == 0 || len(setB) == 0 {
		return MaxDistance
	}

	kw := jaccard(setA, setB)
	if kw == 0 {
		return MaxDistance
	}
	tokA, tokB := tokenSet(setA), tokenSet(setB)
	tok := kw
	if len(tokA) > 0 && len(tokB) > 0 {
		tok = jaccard(tokA, tokB)
	}

	return MaxDistance * (1 - (kw+tok)/2)
}

// IsSemanticMatch reports whether SemanticDistance is below threshold.
func IsSemanticMatch(keywordsA, keywordsB []string, threshold float64) bool {
	if len(keywordsA) == 0 || len(keywordsB) == 0 {
		return false
	}
	return SemanticDistance(keywordsA, keywordsB) < threshold
}

func keywordSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		if n := NormalizeKeyword(k); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func tokenSet(keywords map[string]struct{}) map[string]struct{} {
	set := make(map[string]struct{})
	for k := range keywords {
		for _, tok := range strings.Fields(k) {
			if _, stop := stopWords[tok]; stop {
				continue
			}
			set[tok] = struct{}{}
		}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
