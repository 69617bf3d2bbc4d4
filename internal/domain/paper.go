package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar date layout used for Paper.PublishedDate.
const DateLayout = "2006-01-02"

// Fallback values substituted for missing upstream fields.
const (
	NoAbstract    = "No abstract available"
	UnknownAuthor = "Unknown Author"
	Unknown       = "Unknown"
	Untitled      = "Untitled"
)

// Paper is the canonical record every provider is normalized into.
type Paper struct {
	// Title is the paper title. Non-empty after enrichment.
	Title string `json:"title" yaml:"title" validate:"notblank"`

	// Abstract is the paper abstract or a placeholder.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors is the ordered author list. Never empty after enrichment.
	Authors []string `json:"authors" yaml:"authors" validate:"required"`

	// PublishedDate is an ISO calendar date (YYYY-MM-DD).
	PublishedDate string `json:"publishedDate" yaml:"publishedDate"`

	// URL links to the paper landing page or PDF. May be empty.
	URL string `json:"url" yaml:"url"`

	// Source is the display name of the provider that produced the record.
	Source string `json:"source" yaml:"source"`

	// Citations is the citation count, 0 when the provider does not report one.
	Citations int `json:"citations" yaml:"citations" validate:"gte=0"`

	// RelevanceScore is the primary ranking key in [0, 1].
	RelevanceScore float64 `json:"relevanceScore" yaml:"relevanceScore" validate:"gte=0,lte=1"`
}

// FirstAuthor returns the first listed author or an empty string.
func (p *Paper) FirstAuthor() string {
	if len(p.Authors) == 0 {
		return ""
	}
	return p.Authors[0]
}

// Published parses PublishedDate. Dates that cannot be parsed yield the zero time,
// which sorts as the oldest possible date.
func (p *Paper) Published() time.Time {
	return ParseDate(p.PublishedDate)
}

// Clone returns a deep copy of the paper.
func (p Paper) Clone() Paper {
	if p.Authors != nil {
		authors := make([]string, len(p.Authors))
		copy(authors, p.Authors)
		p.Authors = authors
	}
	return p
}

// ClonePapers deep-copies a paper slice. Cached slices are always handed out as clones
// so callers can never mutate a cached value.
func ClonePapers(papers []Paper) []Paper {
	if papers == nil {
		return nil
	}
	out := make([]Paper, len(papers))
	for i := range papers {
		out[i] = papers[i].Clone()
	}
	return out
}

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01",
	"2006/01/02",
	"2006",
}

// ParseDate parses the date formats providers commonly return.
// It returns the zero time for empty or unrecognized input.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FormatDate normalizes a provider date string to YYYY-MM-DD.
// Unparseable input yields an empty string.
func FormatDate(s string) string {
	t := ParseDate(s)
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// YearDate returns the first day of the given year as YYYY-MM-DD, or "" for a
// non-positive year.
func YearDate(year int) string {
	if year <= 0 {
		return ""
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}
