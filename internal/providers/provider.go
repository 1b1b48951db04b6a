// Package providers defines the external bibliographic sources an author is
// looked up in.
//
// Each provider turns a rendered candidate query into an RDF graph whose
// search resource lists the matching people through foaf:member. When the
// search yields exactly one member the provider also lifts that member's
// publications and venues into the same graph, so the merge engine can copy
// them without a second round trip.
//
// Example usage:
//
//	p := dblp.New(cfg)
//	res, err := p.Lookup(ctx, "Victor Saquicela")
//	if err == nil && res.OK() {
//		rows, _ := res.Graph.Evaluate(queries.NewBuilder().Members())
//	}
package providers

import (
	"context"
	"net/http"
	"strings"

	"github.com/helixir/author-reconciliation-service/internal/candidates"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

// Provider is one external bibliographic source.
type Provider interface {
	// Name is the registry key, e.g. "dblp".
	Name() string

	// EndpointName is the display name written into the partition name.
	EndpointName() string

	// Template is the query template candidates are rendered with.
	Template() candidates.Template

	// Lookup submits query to the provider. Transport failures are returned
	// as the error. HTTP failures are reported through LookupResult.StatusCode
	// with a nil error, so callers can tell a 503 from other statuses.
	Lookup(ctx context.Context, query string) (*LookupResult, error)

	// IsEnabled reports whether the provider is configured for use.
	IsEnabled() bool
}

// LookupResult is the provider's answer to one query.
type LookupResult struct {
	// StatusCode is the HTTP status of the search request.
	StatusCode int

	// EndpointName is the display name of the provider that answered.
	EndpointName string

	// RequestURL is the search resource the members hang off.
	RequestURL string

	// Graph holds the returned triples. Empty when StatusCode is not 2xx.
	Graph *rdf.Graph
}

// OK reports a 2xx status.
func (r *LookupResult) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Unavailable reports the provider-level refusal status.
func (r *LookupResult) Unavailable() bool {
	return r != nil && r.StatusCode == http.StatusServiceUnavailable
}

// Slug removes all whitespace from an endpoint name.
func Slug(endpointName string) string {
	return strings.Join(strings.Fields(endpointName), "")
}
