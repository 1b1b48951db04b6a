// Package scopus looks authors up in the Elsevier Scopus author search API.
package scopus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/author-reconciliation-service/internal/candidates"
	"github.com/helixir/author-reconciliation-service/internal/providers"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

const (
	// DefaultBaseURL is the default Scopus API base URL.
	DefaultBaseURL = "https://api.elsevier.com/content"

	// DefaultRateLimit is the default rate limit (5 requests per second).
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPublications caps the documents fetched for a matched author.
	DefaultMaxPublications = 200

	// VenueNamespace prefixes Scopus source ids to form venue resources.
	VenueNamespace = "https://www.scopus.com/sourceid/"

	apiKeyHeader = "X-ELS-APIKey"

	// maxPageSize is the largest COMPLETE-view page Scopus serves.
	maxPageSize = 25

	providerName = "scopus"
	endpointName = "Scopus Provider"
)

// QueryTemplate renders candidates into the Scopus author search syntax.
var QueryTemplate = candidates.Template{
	Pattern: "authfirst({first})authlast({last})+AND+affil({affiliation})",
	Escape:  true,
}

// Config holds configuration for the Scopus client.
type Config struct {
	// BaseURL is the Scopus API base URL.
	BaseURL string

	// APIKey is the Elsevier API key. Required for all requests.
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the retry budget for 429 and 5xx other than 503.
	MaxRetries int

	// MaxPublications caps the documents lifted for a matched author.
	MaxPublications int

	// Enabled indicates whether this provider is enabled.
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxPublications == 0 {
		c.MaxPublications = DefaultMaxPublications
	}
}

// Client implements providers.Provider for Scopus.
type Client struct {
	config  Config
	fetcher *providers.Fetcher
}

var _ providers.Provider = (*Client)(nil)

// New creates a new Scopus client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{config: cfg, fetcher: providers.NewFetcher(fetcherConfig(cfg))}
}

// NewWithFetcher creates a Scopus client with a custom fetcher.
func NewWithFetcher(cfg Config, fetcher *providers.Fetcher) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, fetcher: fetcher}
}

func fetcherConfig(cfg Config) providers.FetcherConfig {
	return providers.FetcherConfig{
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		BurstSize:    cfg.BurstSize,
		MaxRetries:   cfg.MaxRetries,
		MaxBodyBytes: 10 << 20,
		Headers:      map[string]string{apiKeyHeader: cfg.APIKey},
	}
}

// Name implements providers.Provider.
func (c *Client) Name() string { return providerName }

// EndpointName implements providers.Provider.
func (c *Client) EndpointName() string { return endpointName }

// Template implements providers.Provider.
func (c *Client) Template() candidates.Template { return QueryTemplate }

// IsEnabled returns false when no API key is configured.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// AuthorIRI is the resource naming a Scopus author profile.
func (c *Client) AuthorIRI(authorID string) string {
	return c.config.BaseURL + "/author/author_id/" + authorID
}

// Lookup searches authors for query, which must already be rendered with
// QueryTemplate. When exactly one author matches, that author's documents
// are lifted into the returned graph.
func (c *Client) Lookup(ctx context.Context, query string) (*providers.LookupResult, error) {
	searchURL := c.config.BaseURL + "/search/author?query=" + query

	var searchResp AuthorSearchResponse
	status, err := c.getJSON(ctx, searchURL, &searchResp)
	if err != nil {
		return nil, err
	}
	result := &providers.LookupResult{
		StatusCode:   status,
		EndpointName: endpointName,
		RequestURL:   searchURL,
		Graph:        rdf.NewGraph(),
	}
	if !result.OK() {
		return result, nil
	}

	var ids []string
	for _, entry := range searchResp.SearchResults.Entries {
		id := authorID(entry.Identifier)
		if entry.Error != "" || id == "" {
			continue
		}
		ids = append(ids, id)
		c.addAuthor(result.Graph, searchURL, c.AuthorIRI(id), entry.PreferredName)
	}

	if len(ids) != 1 {
		return result, nil
	}

	status, err = c.addPublications(ctx, result.Graph, ids[0])
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		result.StatusCode = status
		result.Graph = rdf.NewGraph()
	}
	return result, nil
}

func (c *Client) addAuthor(g *rdf.Graph, searchURL, member string, name *PreferredName) {
	g.Add(rdf.NewTriple(searchURL, rdf.FOAFMember, rdf.IRI(member)))
	g.Add(rdf.NewTriple(member, rdf.RDFType, rdf.IRI(rdf.FOAFPerson)))
	if name == nil {
		return
	}
	given, surname := strings.TrimSpace(name.GivenName), strings.TrimSpace(name.Surname)
	if full := strings.TrimSpace(given + " " + surname); full != "" {
		g.Add(rdf.NewTriple(member, rdf.FOAFName, rdf.Literal(full)))
	}
	if given != "" {
		g.Add(rdf.NewTriple(member, rdf.FOAFFirstName, rdf.Literal(given)))
	}
	if surname != "" {
		g.Add(rdf.NewTriple(member, rdf.FOAFLastName, rdf.Literal(surname)))
	}
}

// addPublications pages through the author's documents. It returns the
// first non-2xx status it meets.
func (c *Client) addPublications(ctx context.Context, g *rdf.Graph, id string) (int, error) {
	member := c.AuthorIRI(id)
	fetched := 0
	for fetched < c.config.MaxPublications {
		q := url.Values{}
		q.Set("query", fmt.Sprintf("AU-ID(%s)", id))
		q.Set("view", "COMPLETE")
		q.Set("count", strconv.Itoa(min(maxPageSize, c.config.MaxPublications-fetched)))
		if fetched > 0 {
			q.Set("start", strconv.Itoa(fetched))
		}

		var resp SearchResponse
		status, err := c.getJSON(ctx, c.config.BaseURL+"/search/scopus?"+q.Encode(), &resp)
		if err != nil || status < 200 || status >= 300 {
			return status, err
		}

		entries := resp.SearchResults.Entries
		for i := range entries {
			c.addDocument(g, member, &entries[i])
		}

		fetched += len(entries)
		total, _ := strconv.Atoi(resp.SearchResults.TotalResults)
		if len(entries) == 0 || fetched >= total {
			break
		}
	}
	return http.StatusOK, nil
}

func (c *Client) addDocument(g *rdf.Graph, member string, entry *Entry) {
	scopusID := strings.TrimSpace(strings.TrimPrefix(entry.Identifier, "SCOPUS_ID:"))
	if entry.Error != "" || scopusID == "" {
		return
	}
	pub := c.config.BaseURL + "/abstract/scopus_id/" + scopusID

	g.Add(rdf.NewTriple(member, rdf.FOAFPublications, rdf.IRI(pub)))
	g.Add(rdf.NewTriple(pub, rdf.RDFType, rdf.IRI(rdf.BIBOArticle)))
	addLiteral(g, pub, rdf.DCTTitle, entry.Title)
	addLiteral(g, pub, rdf.BIBODOI, entry.DOI)
	addLiteral(g, pub, rdf.BIBOVolume, entry.Volume)
	addLiteral(g, pub, rdf.BIBOPages, entry.PageRange)
	if len(entry.CoverDate) >= 4 {
		g.Add(rdf.NewTriple(pub, rdf.DCTIssued, rdf.TypedLiteral(entry.CoverDate[:4], rdf.XSDGYear)))
	}

	for _, a := range entry.Authors {
		if a.AuthID != "" {
			g.Add(rdf.NewTriple(pub, rdf.DCTCreator, rdf.IRI(c.AuthorIRI(a.AuthID))))
		}
	}

	if entry.SourceID == "" {
		return
	}
	venue := VenueNamespace + entry.SourceID
	g.Add(rdf.NewTriple(pub, rdf.DCTIsPartOf, rdf.IRI(venue)))
	g.Add(rdf.NewTriple(venue, rdf.RDFType, rdf.IRI(rdf.BIBOJournal)))
	addLiteral(g, venue, rdf.DCTTitle, entry.PublicationName)
	addLiteral(g, venue, rdf.BIBOISSN, entry.ISSN)
}

// getJSON decodes a 2xx body into out and returns the status. Non-2xx
// bodies are drained and discarded.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) (int, error) {
	doc, err := c.fetcher.Get(ctx, rawURL, "application/json")
	if err != nil {
		return 0, fmt.Errorf("executing request: %w", err)
	}
	if !doc.OK() {
		return doc.StatusCode, nil
	}

	if err := json.Unmarshal(doc.Body, out); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	return doc.StatusCode, nil
}

func authorID(identifier string) string {
	return strings.TrimSpace(strings.TrimPrefix(identifier, "AUTHOR_ID:"))
}

func addLiteral(g *rdf.Graph, subject, predicate, value string) {
	if value = strings.TrimSpace(value); value != "" {
		g.Add(rdf.NewTriple(subject, predicate, rdf.Literal(value)))
	}
}
