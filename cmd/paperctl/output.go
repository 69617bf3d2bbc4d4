package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/research"
	"github.com/helixir/research-paper-finder/internal/results"
	"github.com/helixir/research-paper-finder/internal/search"
)

// Output formats accepted by --output.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

const abstractPreview = 240

// render writes v in the requested format. Text output is produced by text.
func render(w io.Writer, format string, v any, text func(p *printer)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		p := &printer{w: w}
		text(p)
		return p.err
	}
}

// printer writes human-readable output and keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) list(items []string) {
	for _, item := range items {
		p.printf("%s\n", item)
	}
}

func (p *printer) searchResponse(r *research.SearchResponse) {
	p.printf("Search terms: %s\n", strings.Join(r.SearchTerms, ", "))
	p.papers(r.Papers)
}

func (p *printer) chatResponse(r *research.ChatResponse) {
	p.printf("%s\n\n", r.Response)
	p.searchResponse(&research.SearchResponse{Papers: r.Papers, SearchTerms: r.SearchTerms})
}

func (p *printer) papers(papers []domain.Paper) {
	if len(papers) == 0 {
		p.printf("No papers found.\n")
		return
	}
	p.printf("Found %d papers:\n", len(papers))
	for i := range papers {
		p.paper(i+1, &papers[i])
	}
	p.summary(results.Statistics(papers))
}

// papersBySource prints papers in one section per source, sources sorted by name.
func (p *printer) papersBySource(papers []domain.Paper) {
	if len(papers) == 0 {
		p.printf("No papers found.\n")
		return
	}
	grouped := results.GroupBySource(papers)
	sources := make([]string, 0, len(grouped))
	for source := range grouped {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		group := grouped[source]
		p.printf("\n== %s (%d)\n", source, len(group))
		for i := range group {
			p.paper(i+1, &group[i])
		}
	}
	p.summary(results.Statistics(papers))
}

func (p *printer) summary(s results.Stats) {
	p.printf("\nCitations: total %d, average %d, max %d, min %d\n",
		s.Citations.Total, s.Citations.Average, s.Citations.Max, s.Citations.Min)
	if s.DateRange.Earliest != "" {
		p.printf("Published: %s to %s\n", s.DateRange.Earliest, s.DateRange.Latest)
	}
}

func (p *printer) paper(n int, paper *domain.Paper) {
	p.printf("\n%d. %s\n", n, paper.Title)
	p.printf("   %s | %s | %s | %d citations\n",
		strings.Join(paper.Authors, ", "), paper.PublishedDate, paper.Source, paper.Citations)
	if paper.URL != "" {
		p.printf("   %s\n", paper.URL)
	}
	if paper.Abstract != "" && paper.Abstract != domain.NoAbstract {
		p.printf("   %s\n", preview(paper.Abstract, abstractPreview))
	}
}

func (p *printer) health(r research.HealthReport) {
	p.printf("Status: %s\n", r.Status)
	names := make([]string, 0, len(r.Services))
	for name := range r.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		state := "ok"
		if !r.Services[name] {
			state = "unavailable"
		}
		p.printf("  %-18s %s\n", name, state)
	}
}

func (p *printer) stats(s search.Stats) {
	p.printf("Providers:               %s\n", strings.Join(s.Providers, ", "))
	p.printf("Max concurrent searches: %d\n", s.MaxConcurrentSearches)
	p.printf("Search delay:            %dms\n", s.SearchDelayMs)
	p.printf("Max papers per term:     %d\n", s.MaxPapersPerTerm)
	p.printf("Max total papers:        %d\n", s.MaxTotalPapers)
}

// preview shortens s to at most n runes, marking the cut with "...".
func preview(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
