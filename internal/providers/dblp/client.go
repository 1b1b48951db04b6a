// Package dblp looks authors up in the DBLP computer science bibliography.
package dblp

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/helixir/author-reconciliation-service/internal/candidates"
	"github.com/helixir/author-reconciliation-service/internal/providers"
	"github.com/helixir/author-reconciliation-service/internal/rdf"
)

const (
	// DefaultBaseURL is the default DBLP base URL.
	DefaultBaseURL = "https://dblp.org"

	// DefaultRateLimit keeps well under DBLP's fair-use limit.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPublications caps the records lifted for a matched author.
	DefaultMaxPublications = 500

	providerName = "dblp"
	endpointName = "DBLP Provider"

	doiPrefix = "https://doi.org/"
)

// QueryTemplate renders candidates for the DBLP author search. DBLP has no
// affiliation filter.
var QueryTemplate = candidates.Template{
	Pattern:         "{first} {last}",
	OmitAffiliation: true,
}

// Config holds configuration for the DBLP client.
type Config struct {
	// BaseURL is the DBLP base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the retry budget for 429 and 5xx other than 503.
	MaxRetries int

	// MaxPublications caps the records lifted for a matched author.
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

// Client implements providers.Provider for DBLP.
type Client struct {
	config  Config
	fetcher *providers.Fetcher
}

var _ providers.Provider = (*Client)(nil)

// New creates a new DBLP client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{config: cfg, fetcher: providers.NewFetcher(fetcherConfig(cfg))}
}

// NewWithFetcher creates a DBLP client with a custom fetcher.
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
		MaxBodyBytes: 20 << 20,
	}
}

// Name implements providers.Provider.
func (c *Client) Name() string { return providerName }

// EndpointName implements providers.Provider.
func (c *Client) EndpointName() string { return endpointName }

// Template implements providers.Provider.
func (c *Client) Template() candidates.Template { return QueryTemplate }

// IsEnabled implements providers.Provider.
func (c *Client) IsEnabled() bool { return c.config.Enabled }

// Lookup searches DBLP persons for query. Every hit URL becomes a member of
// the search resource. A single hit has its publication list merged in.
func (c *Client) Lookup(ctx context.Context, query string) (*providers.LookupResult, error) {
	searchURL := fmt.Sprintf("%s/search/author/api?q=%s&format=xml", c.config.BaseURL, url.QueryEscape(query))

	var search SearchResult
	status, err := c.getXML(ctx, searchURL, &search)
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

	g := result.Graph
	g.Add(rdf.NewTriple(searchURL, rdf.RDFType, rdf.IRI(rdf.FOAFGroup)))

	var members []string
	for _, hit := range search.Hits.Hits {
		member := strings.TrimSpace(hit.Info.URL)
		if member == "" {
			continue
		}
		members = append(members, member)
		g.Add(rdf.NewTriple(searchURL, rdf.FOAFMember, rdf.IRI(member)))
		g.Add(rdf.NewTriple(member, rdf.RDFType, rdf.IRI(rdf.FOAFPerson)))
		addLiteral(g, member, rdf.FOAFName, hit.Info.Author)
	}

	if len(members) != 1 {
		return result, nil
	}

	var person Person
	status, err = c.getXML(ctx, members[0]+".xml", &person)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		result.StatusCode = status
		result.Graph = rdf.NewGraph()
		return result, nil
	}

	for i, r := range person.Records {
		if i >= c.config.MaxPublications {
			break
		}
		c.addPublication(g, members[0], r.Publication)
	}
	return result, nil
}

// RecordIRI is the resource naming a DBLP record.
func (c *Client) RecordIRI(key string) string {
	return c.config.BaseURL + "/rec/" + key
}

// PersonIRI is the resource naming a DBLP person.
func (c *Client) PersonIRI(pid string) string {
	return c.config.BaseURL + "/pid/" + pid
}

func (c *Client) addPublication(g *rdf.Graph, member string, p Publication) {
	if p.Key == "" {
		return
	}
	pub := c.RecordIRI(p.Key)

	g.Add(rdf.NewTriple(member, rdf.FOAFPublications, rdf.IRI(pub)))
	g.Add(rdf.NewTriple(pub, rdf.RDFType, rdf.IRI(publicationType(p.XMLName.Local))))
	addLiteral(g, pub, rdf.DCTTitle, strings.TrimSuffix(strings.TrimSpace(p.Title), "."))
	addLiteral(g, pub, rdf.BIBOPages, p.Pages)
	addLiteral(g, pub, rdf.BIBOVolume, p.Volume)
	if year := strings.TrimSpace(p.Year); year != "" {
		g.Add(rdf.NewTriple(pub, rdf.DCTIssued, rdf.TypedLiteral(year, rdf.XSDGYear)))
	}

	for _, a := range p.Authors {
		if a.PID != "" {
			g.Add(rdf.NewTriple(pub, rdf.DCTCreator, rdf.IRI(c.PersonIRI(a.PID))))
		}
	}

	for _, ee := range p.EE {
		ee = strings.TrimSpace(ee)
		switch {
		case strings.HasPrefix(ee, doiPrefix):
			addLiteral(g, pub, rdf.BIBODOI, strings.TrimPrefix(ee, doiPrefix))
		case ee != "":
			g.Add(rdf.NewTriple(pub, rdf.BIBOURI, rdf.IRI(ee)))
		}
	}

	c.addVenue(g, pub, p)
}

// addVenue links the record to its journal or proceedings stream, derived
// from the first two segments of the record key.
func (c *Client) addVenue(g *rdf.Graph, pub string, p Publication) {
	parts := strings.Split(p.Key, "/")
	if len(parts) < 3 {
		return
	}

	var kind, title string
	switch parts[0] {
	case "journals":
		kind, title = rdf.BIBOJournal, p.Journal
	case "conf":
		kind, title = rdf.BIBOProceedings, p.BookTitle
	default:
		return
	}

	venue := c.config.BaseURL + "/streams/" + parts[0] + "/" + parts[1]
	g.Add(rdf.NewTriple(pub, rdf.DCTIsPartOf, rdf.IRI(venue)))
	g.Add(rdf.NewTriple(venue, rdf.RDFType, rdf.IRI(kind)))
	addLiteral(g, venue, rdf.DCTTitle, title)
}

func publicationType(element string) string {
	if element == "article" {
		return rdf.BIBOArticle
	}
	return rdf.BIBODocument
}

// getXML decodes a 2xx body into out and returns the status.
func (c *Client) getXML(ctx context.Context, rawURL string, out any) (int, error) {
	doc, err := c.fetcher.Get(ctx, rawURL, "application/xml")
	if err != nil {
		return 0, fmt.Errorf("executing request: %w", err)
	}
	if !doc.OK() {
		return doc.StatusCode, nil
	}

	dec := xml.NewDecoder(bytes.NewReader(doc.Body))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(out); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	return doc.StatusCode, nil
}

// charsetReader handles the non-UTF-8 encodings DBLP declares.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "us-ascii", "ascii":
		return input, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}

func addLiteral(g *rdf.Graph, subject, predicate, value string) {
	if value = strings.TrimSpace(value); value != "" {
		g.Add(rdf.NewTriple(subject, predicate, rdf.Literal(value)))
	}
}
