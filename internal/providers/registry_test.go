package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/author-reconciliation-service/internal/candidates"
)

type stubProvider struct {
	name    string
	enabled bool
}

func (s stubProvider) Name() string                  { return s.name }
func (s stubProvider) EndpointName() string          { return s.name + " Provider" }
func (s stubProvider) Template() candidates.Template { return candidates.Template{} }
func (s stubProvider) IsEnabled() bool               { return s.enabled }
func (s stubProvider) Lookup(context.Context, string) (*LookupResult, error) {
	return &LookupResult{StatusCode: 200}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(
		stubProvider{name: "scopus", enabled: true},
		stubProvider{name: "dblp", enabled: true},
		stubProvider{name: "orcid", enabled: false},
	)

	assert.Equal(t, []string{"dblp", "orcid", "scopus"}, r.Names())

	enabled := r.Enabled()
	require.Len(t, enabled, 2)
	assert.Equal(t, "dblp", enabled[0].Name())
	assert.Equal(t, "scopus", enabled[1].Name())

	p, ok := r.Get("scopus")
	require.True(t, ok)
	assert.Equal(t, "scopus Provider", p.EndpointName())

	_, ok = r.Get("missing")
	assert.False(t, ok)

	r.Register(stubProvider{name: "orcid", enabled: true})
	assert.Len(t, r.Enabled(), 3)
}

func TestLookupResult_Status(t *testing.T) {
	assert.True(t, (&LookupResult{StatusCode: 200}).OK())
	assert.False(t, (&LookupResult{StatusCode: 404}).OK())
	assert.True(t, (&LookupResult{StatusCode: 503}).Unavailable())
	assert.False(t, (*LookupResult)(nil).OK())
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "DBLPProvider", Slug("DBLP Provider"))
	assert.Equal(t, "ScopusProvider", Slug(" Scopus\tProvider \n"))
	assert.Equal(t, "", Slug(""))
}
