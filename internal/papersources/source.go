// Package papersources defines the contract every academic paper provider
// implements, plus the shared plumbing the providers are built from: a
// rate-limited HTTP fetch primitive with bounded retries, the prior relevance
// score, markup cleanup, and Guarded, the never-failing cached wrapper the
// search orchestrator talks to.
//
// Each provider (arXiv, Semantic Scholar, PubMed, DOAJ, CORE, BASE) lives in
// its own subpackage, parses its native response shape into provider-local
// types and converts them to domain.Paper at the boundary.
//
// Example usage:
//
//	client := arxiv.New(arxiv.Config{MaxResults: 10})
//	guarded := papersources.NewGuarded(client, resultCache, metrics, logger)
//	papers := guarded.Search(ctx, "transformer models")
package papersources

import (
	"context"

	"github.com/helixir/research-paper-finder/internal/domain"
)

// DefaultMaxResults is the number of papers requested from a provider per term.
const DefaultMaxResults = 10

// Provider is a raw client for one upstream paper source.
type Provider interface {
	// Fetch queries the provider for term and maps every upstream record to a
	// domain.Paper, substituting the defined fallbacks for missing fields.
	// Unlike Guarded.Search it reports failures; an empty, well-formed
	// upstream reply yields an empty slice and a nil error.
	Fetch(ctx context.Context, term string) ([]domain.Paper, error)

	// SourceType returns the type identifier for this provider.
	SourceType() domain.SourceType
}
