package scopus

// AuthorSearchResponse is the top-level Scopus author search response.
type AuthorSearchResponse struct {
	SearchResults AuthorSearchResults `json:"search-results"`
}

// AuthorSearchResults contains the result metadata and author entries.
type AuthorSearchResults struct {
	TotalResults string        `json:"opensearch:totalResults"`
	Entries      []AuthorEntry `json:"entry"`
}

// AuthorEntry is one author profile. An empty result set is reported as a
// single entry carrying only Error.
type AuthorEntry struct {
	Identifier    string         `json:"dc:identifier"` // "AUTHOR_ID:7004212771"
	EID           string         `json:"eid"`
	DocumentCount string         `json:"document-count"`
	PreferredName *PreferredName `json:"preferred-name"`
	Error         string         `json:"error"`
}

// PreferredName is the author's display name split into parts.
type PreferredName struct {
	Surname   string `json:"surname"`
	GivenName string `json:"given-name"`
	Initials  string `json:"initials"`
}

// SearchResponse represents the top-level Scopus document search response.
type SearchResponse struct {
	SearchResults SearchResults `json:"search-results"`
}

// SearchResults contains the search result metadata and entries.
type SearchResults struct {
	TotalResults string  `json:"opensearch:totalResults"`
	StartIndex   string  `json:"opensearch:startIndex"`
	ItemsPerPage string  `json:"opensearch:itemsPerPage"`
	Entries      []Entry `json:"entry"`
}

// Entry represents a single document in the Scopus search results.
type Entry struct {
	Identifier      string      `json:"dc:identifier"` // "SCOPUS_ID:85012345678"
	EID             string      `json:"eid"`
	DOI             string      `json:"prism:doi"`
	Title           string      `json:"dc:title"`
	PublicationName string      `json:"prism:publicationName"`
	ISSN            string      `json:"prism:issn"`
	SourceID        string      `json:"source-id"`
	Volume          string      `json:"prism:volume"`
	PageRange       string      `json:"prism:pageRange"`
	CoverDate       string      `json:"prism:coverDate"` // "2024-01-15"
	Error           string      `json:"error"`
	Authors         []DocAuthor `json:"author"` // COMPLETE view only
	Affiliations    []DocAffil  `json:"affiliation"`
}

// DocAuthor is one author of a document in the COMPLETE view.
type DocAuthor struct {
	AuthID    string `json:"authid"`
	Name      string `json:"authname"` // "Surname G."
	GivenName string `json:"given-name"`
	Surname   string `json:"surname"`
}

// DocAffil is an affiliation listed on a document.
type DocAffil struct {
	Name    string `json:"affilname"`
	Country string `json:"affiliation-country"`
}
