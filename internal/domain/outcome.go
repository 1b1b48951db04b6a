package domain

import (
	"fmt"

	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

// MatchResult is an unambiguous external match for one author.
type MatchResult struct {
	// SourceQuery is the candidate query that produced the match.
	SourceQuery CandidateQuery
	// MemberCount is the number of members the query returned; always 1 for
	// an admissible match.
	MemberCount int
	// EndpointName is the provider display name, used for the partition key.
	EndpointName string
	// Graph is the provider result set lifted into triples.
	Graph *rdf.Graph
}

// OutcomeKind tags the result of verifying or reconciling one author.
type OutcomeKind int

const (
	// OutcomeMatched means exactly one external member was found.
	OutcomeMatched OutcomeKind = iota + 1
	// OutcomeUnmatched means no candidate produced exactly one member.
	OutcomeUnmatched
	// OutcomeProviderUnavailable means the provider signalled 503.
	OutcomeProviderUnavailable
	// OutcomeFailed means the author could not be processed.
	OutcomeFailed
)

// String implements fmt.Stringer. The values double as metric labels.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeMatched:
		return "matched"
	case OutcomeUnmatched:
		return "unmatched"
	case OutcomeProviderUnavailable:
		return "provider_unavailable"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the tagged result of processing one author.
type Outcome struct {
	Kind OutcomeKind
	// Match is set when Kind is OutcomeMatched.
	Match *MatchResult
	// Attempts is the number of candidates submitted.
	Attempts int
	// Reason is set when Kind is OutcomeProviderUnavailable or OutcomeFailed.
	Reason error
}

// Matched builds a matched outcome.
func Matched(m *MatchResult, attempts int) Outcome {
	return Outcome{Kind: OutcomeMatched, Match: m, Attempts: attempts}
}

// Unmatched builds an unmatched outcome.
func Unmatched(attempts int) Outcome {
	return Outcome{Kind: OutcomeUnmatched, Attempts: attempts}
}

// ProviderUnavailable builds a provider-unavailable outcome.
func ProviderUnavailable(reason error, attempts int) Outcome {
	return Outcome{Kind: OutcomeProviderUnavailable, Reason: reason, Attempts: attempts}
}

// Failed builds a failed outcome.
func Failed(reason error, attempts int) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason, Attempts: attempts}
}
