package papersources

import (
	"strings"

	"github.com/helixir/research-paper-finder/internal/domain"
)

const (
	titleMatchWeight    = 3
	abstractMatchWeight = 1
)

// PriorScore assigns the prior relevance score for a record fetched from a
// live provider. Each term word found in the title adds 3 points and each
// word found in the abstract adds 1; the total is normalized by the best
// possible score and scaled into domain.PriorRealSource.
//
// This is a placeholder heuristic standing in for the relevance signal most
// providers do not expose. It is deterministic so repeated searches rank
// identically.
func PriorScore(term, title, abstract string) float64 {
	words := strings.Fields(strings.ToLower(term))
	if len(words) == 0 {
		return domain.PriorRealSource.Scale(0.5)
	}

	title = strings.ToLower(title)
	abstract = strings.ToLower(abstract)

	score := 0
	for _, word := range words {
		if strings.Contains(title, word) {
			score += titleMatchWeight
		}
		if strings.Contains(abstract, word) {
			score += abstractMatchWeight
		}
	}

	best := len(words) * (titleMatchWeight + abstractMatchWeight)
	return domain.PriorRealSource.Scale(float64(score) / float64(best))
}

// Normalize cleans a freshly mapped record, substitutes the defined fallbacks
// for missing fields, tags it with the provider's display name and seeds its
// prior relevance score from term.
func Normalize(p domain.Paper, source domain.SourceType, term string) domain.Paper {
	p.Title = CleanText(p.Title)
	p.Abstract = CleanText(p.Abstract)
	p.Authors = CleanAuthors(p.Authors)
	p.URL = strings.TrimSpace(p.URL)

	p.RelevanceScore = PriorScore(term, p.Title, p.Abstract)

	if p.Title == "" {
		p.Title = domain.Untitled
	}
	if p.Abstract == "" {
		p.Abstract = domain.NoAbstract
	}
	if len(p.Authors) == 0 {
		p.Authors = []string{domain.UnknownAuthor}
	}
	if p.Citations < 0 {
		p.Citations = 0
	}
	p.PublishedDate = domain.FormatDate(p.PublishedDate)
	p.Source = source.DisplayName()
	return p
}
