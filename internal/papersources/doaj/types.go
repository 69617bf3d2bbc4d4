// Package doaj provides a client for the Directory of Open Access Journals
// article search API.
//
// API Documentation: https://doaj.org/api/docs
package doaj

import "github.com/helixir/research-paper-finder/internal/papersources"

// SearchResponse represents the DOAJ article search response.
type SearchResponse struct {
	Total   int       `json:"total"`
	Results []Article `json:"results"`
}

// Article is one search hit.
type Article struct {
	ID      string  `json:"id"`
	BibJSON BibJSON `json:"bibjson"`
}

// BibJSON carries the bibliographic record.
type BibJSON struct {
	Title    string                  `json:"title"`
	Abstract string                  `json:"abstract"`
	Year     papersources.FlexString `json:"year"`
	Month    papersources.FlexString `json:"month"`
	Authors  []Author                `json:"author"`
	Links    []Link                  `json:"link"`
}

// Author is a DOAJ author entry.
type Author struct {
	Name string `json:"name"`
}

// Link is a full-text or landing page link.
type Link struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}
