package results

import (
	"math"

	"github.com/helixir/research-paper-finder/internal/domain"
)

// Stats summarizes a result set.
type Stats struct {
	Total     int            `json:"total" yaml:"total"`
	Sources   map[string]int `json:"sources" yaml:"sources"`
	Citations CitationStats  `json:"citationStats" yaml:"citationStats"`
	DateRange DateRange      `json:"dateRange" yaml:"dateRange"`
}

// CitationStats aggregates citation counts. All fields are 0 for an empty set.
type CitationStats struct {
	Total   int `json:"total" yaml:"total"`
	Average int `json:"average" yaml:"average"`
	Max     int `json:"max" yaml:"max"`
	Min     int `json:"min" yaml:"min"`
}

// DateRange holds the earliest and latest parseable publication dates as
// YYYY-MM-DD, empty when none parse.
type DateRange struct {
	Earliest string `json:"earliest,omitempty" yaml:"earliest,omitempty"`
	Latest   string `json:"latest,omitempty" yaml:"latest,omitempty"`
}

// GroupBySource buckets papers by source, preserving order within each
// bucket. Papers without a source go under "Unknown".
func GroupBySource(papers []domain.Paper) map[string][]domain.Paper {
	grouped := make(map[string][]domain.Paper)
	for _, p := range papers {
		source := sourceOf(p)
		grouped[source] = append(grouped[source], p)
	}
	return grouped
}

// Statistics computes Stats for papers.
func Statistics(papers []domain.Paper) Stats {
	stats := Stats{
		Total:   len(papers),
		Sources: make(map[string]int),
	}
	if len(papers) == 0 {
		return stats
	}

	stats.Citations.Min = math.MaxInt
	var earliest, latest domain.Paper
	haveDate := false

	for _, p := range papers {
		stats.Sources[sourceOf(p)]++

		stats.Citations.Total += p.Citations
		stats.Citations.Max = max(stats.Citations.Max, p.Citations)
		stats.Citations.Min = min(stats.Citations.Min, p.Citations)

		t := p.Published()
		if t.IsZero() {
			continue
		}
		if !haveDate || t.Before(earliest.Published()) {
			earliest = p
		}
		if !haveDate || t.After(latest.Published()) {
			latest = p
		}
		haveDate = true
	}

	stats.Citations.Average = int(math.Round(float64(stats.Citations.Total) / float64(len(papers))))
	if haveDate {
		stats.DateRange.Earliest = earliest.Published().Format(domain.DateLayout)
		stats.DateRange.Latest = latest.Published().Format(domain.DateLayout)
	}
	return stats
}

func sourceOf(p domain.Paper) string {
	if p.Source == "" {
		return domain.Unknown
	}
	return p.Source
}
