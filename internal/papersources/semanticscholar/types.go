// Package semanticscholar provides a client for the Semantic Scholar API.
//
// Semantic Scholar aggregates metadata from publishers and preprint servers
// and, unlike most providers, reports citation counts. This package implements
// papersources.Provider on top of the Graph API paper search endpoint.
//
// API Documentation: https://api.semanticscholar.org/api-docs/
package semanticscholar

// SearchResponse represents the response from the Semantic Scholar paper search endpoint.
type SearchResponse struct {
	// Total is the total number of papers matching the query.
	Total int `json:"total"`

	// Offset is the current offset in the result set.
	Offset int `json:"offset"`

	// Data contains the list of papers returned by the search.
	Data []PaperResult `json:"data"`
}

// PaperResult represents a single paper in the Semantic Scholar API response.
type PaperResult struct {
	PaperID         string         `json:"paperId"`
	Title           string         `json:"title"`
	Abstract        string         `json:"abstract"`
	Year            int            `json:"year"`
	PublicationDate string         `json:"publicationDate"`
	Authors         []Author       `json:"authors"`
	URL             string         `json:"url"`
	CitationCount   *int           `json:"citationCount"`
	OpenAccessPDF   *OpenAccessPDF `json:"openAccessPdf,omitempty"`
}

// Author represents a paper author in the Semantic Scholar API.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// OpenAccessPDF contains information about an open access PDF.
type OpenAccessPDF struct {
	URL    string `json:"url,omitempty"`
	Status string `json:"status,omitempty"`
}
