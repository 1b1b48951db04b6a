package dblp

import "encoding/xml"

// SearchResult is the author search API response in XML format.
type SearchResult struct {
	XMLName xml.Name `xml:"result"`
	Query   string   `xml:"query"`
	Hits    Hits     `xml:"hits"`
}

// Hits lists the matching people.
type Hits struct {
	Total int   `xml:"total,attr"`
	Hits  []Hit `xml:"hit"`
}

// Hit is one matching person.
type Hit struct {
	ID   string  `xml:"id,attr"`
	Info HitInfo `xml:"info"`
}

// HitInfo carries the person's display name and profile URL.
type HitInfo struct {
	Author string `xml:"author"`
	URL    string `xml:"url"`
}

// Person is a person's publication list, fetched from "<profile url>.xml".
type Person struct {
	XMLName xml.Name `xml:"dblpperson"`
	Name    string   `xml:"name,attr"`
	PID     string   `xml:"pid,attr"`
	Records []Record `xml:"r"`
}

// Record wraps one publication. The element name is the publication kind,
// e.g. "article" or "inproceedings".
type Record struct {
	Publication Publication `xml:",any"`
}

// Publication is one DBLP record.
type Publication struct {
	XMLName   xml.Name
	Key       string      `xml:"key,attr"`
	Authors   []PubAuthor `xml:"author"`
	Title     string      `xml:"title"`
	Pages     string      `xml:"pages"`
	Year      string      `xml:"year"`
	Volume    string      `xml:"volume"`
	Journal   string      `xml:"journal"`
	BookTitle string      `xml:"booktitle"`
	EE        []string    `xml:"ee"`
}

// PubAuthor is an author credited on a record.
type PubAuthor struct {
	PID  string `xml:"pid,attr"`
	Name string `xml:",chardata"`
}
