// Package base provides a client for the Bielefeld Academic Search Engine
// HTTP search interface.
package base

import "github.com/helixir/research-paper-finder/internal/papersources"

// SearchResponse represents the BASE JSON search response.
type SearchResponse struct {
	Results []Result `json:"results"`
}

// Result is one BASE search hit. BASE returns single values or lists
// depending on the record, so multi-valued fields use FlexStrings.
type Result struct {
	Title    string                   `json:"title"`
	Abstract string                   `json:"abstract"`
	Author   papersources.FlexStrings `json:"author"`
	Year     papersources.FlexString  `json:"year"`
	URL      string                   `json:"url"`
	Link     string                   `json:"link"`
}
