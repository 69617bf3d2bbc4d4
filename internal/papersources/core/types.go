// Package core provides a client for the CORE open access aggregator search API.
//
// API Documentation: https://core.ac.uk/documentation/api
package core

import "github.com/helixir/research-paper-finder/internal/papersources"

// SearchResponse represents the CORE search response.
type SearchResponse struct {
	Status    string   `json:"status"`
	TotalHits int      `json:"totalHits"`
	Data      []Record `json:"data"`
}

// Record is one CORE search hit.
type Record struct {
	ID            papersources.FlexString  `json:"id"`
	Title         string                   `json:"title"`
	Abstract      string                   `json:"abstract"`
	Description   string                   `json:"description"`
	Authors       papersources.FlexStrings `json:"authors"`
	PublishedDate string                   `json:"publishedDate"`
	Year          papersources.FlexString  `json:"year"`
	DownloadURL   string                   `json:"downloadUrl"`
	URI           string                   `json:"uri"`
}
