package results

import (
	"strings"
	"unicode"

	"github.com/helixir/research-paper-finder/internal/domain"
)

// Key returns the identity used for deduplication: the normalized title and
// the normalized first author joined by an underscore.
func Key(p *domain.Paper) string {
	return normalizeKeyPart(p.Title) + "_" + normalizeKeyPart(p.FirstAuthor())
}

// Deduplicate keeps the first paper for every Key, preserving order, and
// reports how many were dropped. It is idempotent.
func Deduplicate(papers []domain.Paper) ([]domain.Paper, int) {
	seen := make(map[string]struct{}, len(papers))
	out := make([]domain.Paper, 0, len(papers))
	for i := range papers {
		key := Key(&papers[i])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, papers[i])
	}
	return out, len(papers) - len(out)
}

// normalizeKeyPart lower-cases s, drops punctuation and collapses whitespace.
func normalizeKeyPart(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	prevSpace := false

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			sb.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimRight(sb.String(), " ")
}
