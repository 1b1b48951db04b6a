// Package similarity scores how likely two person names or two keyword
// sets describe the same real-world entity. Scores are distances: 0 means
// identical, MaxDistance means nothing in common. Thresholds are always
// supplied by the caller.
package similarity

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxDistance is returned for empty input and for completely dissimilar
// values.
const MaxDistance = 1.0

const (
	// initialDistance is the token distance between an initial and a name
	// starting with that letter.
	initialDistance = 0.1
	// phoneticCap bounds the distance of tokens sharing a Double Metaphone code.
	phoneticCap = 0.2
	// extraTokenWeight is the cost of a token with no counterpart, relative
	// to a fully mismatched pair.
	extraTokenWeight = 0.25
)

// FoldDiacritics removes combining marks, so "Víctor" becomes "Victor".
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName normalizes a person name for comparison:
//   - Folds diacritics and converts to lowercase
//   - Reorders "Last, First" to "First Last"
//   - Treats hyphens and periods as token separators ("M.J." is two initials)
//   - Drops every other non-letter character
//   - Collapses whitespace
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = strings.ToLower(FoldDiacritics(name))

	if idx := strings.Index(name, ","); idx >= 0 {
		last := strings.TrimSpace(name[:idx])
		first := strings.TrimSpace(name[idx+1:])
		if first != "" {
			name = first + " " + last
		} else {
			name = last
		}
	}

	var sb strings.Builder
	sb.Grow(len(name))
	prevSpace := false

	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			sb.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '.':
			if !prevSpace && sb.Len() > 0 {
				sb.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	return strings.TrimRight(sb.String(), " ")
}

// SyntacticDistance compares two person names. Token order does not matter,
// initials match the names they abbreviate, and diacritics are ignored.
// The result is symmetric and lies in [0, MaxDistance]; an empty name is a
// maximal mismatch.
func SyntacticDistance(a, b string) float64 {
	ta := strings.Fields(NormalizeName(a))
	tb := strings.Fields(NormalizeName(b))
	if len(ta) == 0 || len(tb) == 0 {
		return MaxDistance
	}
	return math.Min(pairTokens(ta, tb), pairTokens(tb, ta))
}

// IsSyntacticMatch reports whether the closest pair of names across the two
// lists is nearer than threshold. An empty list never matches.
func IsSyntacticMatch(namesA, namesB []string, threshold float64) bool {
	if len(namesA) == 0 || len(namesB) == 0 {
		return false
	}
	best := MaxDistance
	for _, a := range namesA {
		for _, b := range namesB {
			if d := SyntacticDistance(a, b); d < best {
				best = d
			}
		}
	}
	return best < threshold
}

// pairTokens matches each token of a with the closest unused token of b and
// returns the weighted mean distance. Tokens of b left without a partner
// (middle names, second surnames) add a reduced penalty.
func pairTokens(a, b []string) float64 {
	used := make([]bool, len(b))
	total := 0.0
	matched := 0

	for _, x := range a {
		best := MaxDistance
		bestIdx := -1
		for j, y := range b {
			if used[j] {
				continue
			}
			if d := tokenDistance(x, y); bestIdx < 0 || d < best {
				best = d
				bestIdx = j
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
			matched++
		}
		total += best
	}

	extra := float64(len(b)-matched) * extraTokenWeight
	return (total + extra) / (float64(len(a)) + extra)
}

// tokenDistance compares two normalized name tokens.
func tokenDistance(x, y string) float64 {
	if x == y {
		return 0
	}
	if isInitialMatch(x, y) {
		return initialDistance
	}

	maxLen := math.Max(float64(utf8.RuneCountInString(x)), float64(utf8.RuneCountInString(y)))
	lev := float64(levenshtein.ComputeDistance(x, y)) / maxLen
	jw := 1 - matchr.JaroWinkler(x, y, false)
	d := (lev + jw) / 2

	if d > phoneticCap && soundsAlike(x, y) {
		d = phoneticCap
	}
	return math.Max(0, math.Min(d, MaxDistance))
}

// isInitialMatch returns true if one token is a single-letter initial that
// matches the first letter of the other token.
func isInitialMatch(a, b string) bool {
	ra, _ := utf8.DecodeRuneInString(a)
	rb, _ := utf8.DecodeRuneInString(b)
	if ra != rb {
		return false
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	return (la == 1 && lb > 1) || (lb == 1 && la > 1)
}

// soundsAlike reports whether the tokens share a Double Metaphone code.
// Tokens shorter than three letters never do.
func soundsAlike(a, b string) bool {
	if utf8.RuneCountInString(a) < 3 || utf8.RuneCountInString(b) < 3 {
		return false
	}
	pa, sa := matchr.DoubleMetaphone(a)
	pb, sb := matchr.DoubleMetaphone(b)
	for _, x := range []string{pa, sa} {
		if x == "" {
			continue
		}
		if x == pb || x == sb {
			return true
		}
	}
	return false
}
