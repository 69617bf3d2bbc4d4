// Package pubmed provides a client for the NCBI PubMed E-utilities API.
//
// A search is two requests: esearch.fcgi (JSON) resolves the term to PMIDs
// and efetch.fcgi (XML) returns the article metadata for those PMIDs.
//
// The E-utilities API documentation is available at:
// https://www.ncbi.nlm.nih.gov/books/NBK25499/
package pubmed

import "encoding/xml"

// ESearchResponse represents the JSON response from the esearch.fcgi endpoint.
type ESearchResponse struct {
	Result ESearchResult `json:"esearchresult"`
}

// ESearchResult holds the PMIDs matching a search.
type ESearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}

// PubmedArticleSet represents the response from the efetch.fcgi endpoint.
type PubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []PubmedArticle `xml:"PubmedArticle"`
}

// PubmedArticle represents a single article in the PubMed database.
type PubmedArticle struct {
	MedlineCitation MedlineCitation `xml:"MedlineCitation"`
}

// MedlineCitation contains the core bibliographic information.
type MedlineCitation struct {
	PMID    string  `xml:"PMID"`
	Article Article `xml:"Article"`
}

// Article contains the article metadata.
type Article struct {
	Journal      Journal       `xml:"Journal"`
	ArticleTitle InnerText     `xml:"ArticleTitle"`
	Abstract     *Abstract     `xml:"Abstract,omitempty"`
	AuthorList   *AuthorList   `xml:"AuthorList,omitempty"`
	ArticleDate  []ArticleDate `xml:"ArticleDate,omitempty"`
}

// InnerText captures an element's raw inner XML, including inline markup
// such as <i> or <sup>, so it can be cleaned rather than truncated.
type InnerText struct {
	XML string `xml:",innerxml"`
}

// Journal contains journal information.
type Journal struct {
	JournalIssue JournalIssue `xml:"JournalIssue"`
}

// JournalIssue contains the publication date.
type JournalIssue struct {
	PubDate PubDate `xml:"PubDate"`
}

// PubDate represents the publication date which may have various formats.
type PubDate struct {
	Year        string `xml:"Year,omitempty"`
	Month       string `xml:"Month,omitempty"`
	Day         string `xml:"Day,omitempty"`
	MedlineDate string `xml:"MedlineDate,omitempty"`
}

// Abstract contains the article abstract, which may have multiple sections.
type Abstract struct {
	AbstractTexts []AbstractText `xml:"AbstractText"`
}

// AbstractText represents a section of the abstract.
// Structured abstracts have labeled sections (Background, Methods, Results, etc.).
type AbstractText struct {
	Label string `xml:"Label,attr,omitempty"`
	XML   string `xml:",innerxml"`
}

// AuthorList contains the list of authors.
type AuthorList struct {
	Authors []Author `xml:"Author"`
}

// Author represents a single author.
type Author struct {
	ValidYN        string `xml:"ValidYN,attr,omitempty"`
	LastName       string `xml:"LastName,omitempty"`
	ForeName       string `xml:"ForeName,omitempty"`
	CollectiveName string `xml:"CollectiveName,omitempty"`
}

// ArticleDate represents the electronic publication date.
type ArticleDate struct {
	DateType string `xml:"DateType,attr,omitempty"`
	Year     string `xml:"Year"`
	Month    string `xml:"Month,omitempty"`
	Day      string `xml:"Day,omitempty"`
}
