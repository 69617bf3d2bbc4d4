package papersources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-paper-finder/internal/cache"
	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/observability"
)

const (
	statusSuccess = "success"
	statusError   = "error"
	statusCached  = "cache_hit"
)

// Guarded wraps a Provider with the result cache, logging and metrics. Its
// Search never fails: any provider error is logged and mapped to an empty
// result so one provider can never abort an aggregate search.
type Guarded struct {
	provider Provider
	cache    *cache.Cache
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// NewGuarded wraps p. A nil cache disables caching and nil metrics disable
// instrumentation.
func NewGuarded(p Provider, c *cache.Cache, metrics *observability.Metrics, logger zerolog.Logger) *Guarded {
	return &Guarded{
		provider: p,
		cache:    c,
		metrics:  metrics,
		logger:   logger.With().Str("component", "papersource").Logger(),
	}
}

// SourceType returns the wrapped provider's type.
func (g *Guarded) SourceType() domain.SourceType {
	return g.provider.SourceType()
}

// Name returns the wrapped provider's display name.
func (g *Guarded) Name() string {
	return g.provider.SourceType().DisplayName()
}

// CacheKey returns the cache key under which results for term are stored.
func (g *Guarded) CacheKey(term string) string {
	return cache.Key(string(g.provider.SourceType()), normalizeTerm(term))
}

// Search returns the provider's papers for term. Successful fetches are
// cached; failures yield an empty slice and are never cached. The returned
// slice is always a private copy.
func (g *Guarded) Search(ctx context.Context, term string) []domain.Paper {
	source := string(g.provider.SourceType())
	logger := observability.WithSearchContext(observability.LoggerFromContext(ctx, g.logger), term, source)

	key := g.CacheKey(term)
	if g.cache != nil {
		if papers, ok := cache.GetAs[[]domain.Paper](g.cache, key); ok {
			g.metrics.RecordCacheHit(source)
			g.metrics.RecordProviderRequest(source, statusCached, 0, len(papers))
			logger.Debug().Int("papers", len(papers)).Msg("provider results served from cache")
			return domain.ClonePapers(papers)
		}
		g.metrics.RecordCacheMiss(source)
	}

	start := time.Now()
	papers, err := g.fetch(ctx, term)
	duration := time.Since(start)

	if err != nil {
		g.metrics.RecordProviderRequest(source, statusError, duration, 0)
		logger.Warn().Err(err).Dur("duration", duration).Msg("provider search failed")
		return []domain.Paper{}
	}
	if papers == nil {
		papers = []domain.Paper{}
	}

	g.metrics.RecordProviderRequest(source, statusSuccess, duration, len(papers))
	logger.Info().
		Int("papers", len(papers)).
		Dur("duration", duration).
		Msg("provider search completed")

	if g.cache != nil {
		g.cache.Set(key, domain.ClonePapers(papers))
	}
	return papers
}

// HealthCheck issues a trivial query straight to the provider, bypassing the
// cache, and reports whether a well-formed (possibly empty) list came back.
func (g *Guarded) HealthCheck(ctx context.Context, term string) error {
	_, err := g.fetch(ctx, term)
	return err
}

// fetch calls the provider, turning a panic into an error.
func (g *Guarded) fetch(ctx context.Context, term string) (papers []domain.Paper, err error) {
	defer func() {
		if r := recover(); r != nil {
			papers, err = nil, fmt.Errorf("%s provider panicked: %v", g.provider.SourceType(), r)
		}
	}()
	return g.provider.Fetch(ctx, term)
}

func normalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}
