package results

import (
	"sort"

	"github.com/helixir/research-paper-finder/internal/domain"
)

// Rank orders papers best first and returns a new slice.
//
// Scores are grouped into tiers: walking the papers by descending score, a
// new tier starts whenever the gap to the previous paper exceeds threshold.
// Higher tiers come first. Within a tier more citations win, then the more
// recent publication date, then the higher score. Papers equal on every key
// keep their input order. The order is total and transitive, so ranking an
// already ranked list leaves it unchanged.
//
// Tiers chain, so a tier has no maximum width. Scores spaced at or below
// threshold apart (0.80, 0.85, ... 1.00 with a 0.1 threshold) all land in one
// tier, and within it a 0.81 paper with more citations outranks a 0.95 one.
// In the worst case the whole score range orders by citations alone.
func Rank(papers []domain.Paper, threshold float64) []domain.Paper {
	type ranked struct {
		paper     domain.Paper
		tier      int
		published int64
	}

	items := make([]ranked, len(papers))
	for i := range papers {
		items[i] = ranked{paper: papers[i], published: papers[i].Published().Unix()}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].paper.RelevanceScore > items[j].paper.RelevanceScore
	})

	tier := 0
	for i := 1; i < len(items); i++ {
		if items[i-1].paper.RelevanceScore-items[i].paper.RelevanceScore > threshold {
			tier++
		}
		items[i].tier = tier
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if a.tier != b.tier {
			return a.tier < b.tier
		}
		if a.paper.Citations != b.paper.Citations {
			return a.paper.Citations > b.paper.Citations
		}
		if a.published != b.published {
			return a.published > b.published
		}
		return a.paper.RelevanceScore > b.paper.RelevanceScore
	})

	out := make([]domain.Paper, len(items))
	for i := range items {
		out[i] = items[i].paper
	}
	return out
}
