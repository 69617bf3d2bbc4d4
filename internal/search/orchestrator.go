// Package search fans derived terms out to every registered paper provider
// and merges the results into one ranked list.
package search

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/observability"
	"github.com/helixir/research-paper-finder/internal/papersources"
	"github.com/helixir/research-paper-finder/internal/results"
)

// Default orchestration bounds.
const (
	DefaultMaxConcurrentSearches = 3
	DefaultSearchDelay           = 100 * time.Millisecond
	DefaultHealthCheckTerm       = "test"
)

// Config bounds a search.
type Config struct {
	// MaxConcurrentSearches caps how many terms one search dispatches.
	MaxConcurrentSearches int
	// SearchDelay staggers the start of successive provider calls for a term.
	SearchDelay time.Duration
	// MaxPapersPerTerm is the per-provider page size; reported by Stats.
	MaxPapersPerTerm int
	// HealthCheckTerm is the trivial query issued by HealthCheck.
	HealthCheckTerm string
}

// Stats describes the orchestrator's configuration.
type Stats struct {
	MaxConcurrentSearches int      `json:"maxConcurrentSearches" yaml:"maxConcurrentSearches"`
	SearchDelayMs         int64    `json:"searchDelayMs" yaml:"searchDelayMs"`
	MaxPapersPerTerm      int      `json:"maxPapersPerTerm" yaml:"maxPapersPerTerm"`
	MaxTotalPapers        int      `json:"maxTotalPapers" yaml:"maxTotalPapers"`
	Providers             []string `json:"providers" yaml:"providers"`
}

// Orchestrator runs searches across the registry.
type Orchestrator struct {
	registry  *papersources.Registry
	processor *results.Processor
	metrics   *observability.Metrics
	logger    zerolog.Logger
	config    Config
}

// NewOrchestrator creates an Orchestrator. metrics may be nil.
func NewOrchestrator(cfg Config, registry *papersources.Registry, processor *results.Processor, metrics *observability.Metrics, logger zerolog.Logger) *Orchestrator {
	if cfg.MaxConcurrentSearches <= 0 {
		cfg.MaxConcurrentSearches = DefaultMaxConcurrentSearches
	}
	if cfg.SearchDelay < 0 {
		cfg.SearchDelay = 0
	}
	if cfg.MaxPapersPerTerm <= 0 {
		cfg.MaxPapersPerTerm = papersources.DefaultMaxResults
	}
	if cfg.HealthCheckTerm == "" {
		cfg.HealthCheckTerm = DefaultHealthCheckTerm
	}
	return &Orchestrator{
		registry:  registry,
		processor: processor,
		metrics:   metrics,
		logger:    logger.With().Str("component", "search_orchestrator").Logger(),
		config:    cfg,
	}
}

// SearchPapers searches every provider for the first MaxConcurrentSearches
// terms and returns the processed, ranked and capped result. It never fails:
// a provider that errors contributes nothing. The output order depends only
// on the gathered papers, never on which call finished first.
//
// Cancelling ctx stops calls that have not started yet; calls already in
// flight observe ctx through their HTTP requests.
func (o *Orchestrator) SearchPapers(ctx context.Context, terms []string) []domain.Paper {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx, o.logger)

	if len(terms) > o.config.MaxConcurrentSearches {
		terms = terms[:o.config.MaxConcurrentSearches]
	}
	sources := o.registry.Sources()

	// slots[t][p] holds the papers for term t from provider p, so the merge
	// order is fixed regardless of completion order.
	slots := make([][][]domain.Paper, len(terms))
	for i := range slots {
		slots[i] = make([][]domain.Paper, len(sources))
	}

	var g errgroup.Group
	for ti, term := range terms {
		for pi, source := range sources {
			delay := time.Duration(pi) * o.config.SearchDelay
			g.Go(func() error {
				if !wait(ctx, delay) {
					return nil
				}
				slots[ti][pi] = source.Search(ctx, term)
				return nil
			})
		}
	}
	// Every task returns nil: provider failures are already absorbed.
	_ = g.Wait()

	var raw []domain.Paper
	for ti := range slots {
		for pi := range slots[ti] {
			raw = append(raw, slots[ti][pi]...)
		}
	}

	papers := o.processor.Process(raw)
	duration := time.Since(start)
	o.metrics.RecordSearch(len(papers), duration)

	event := logger.Info()
	if len(raw) == 0 && len(terms) > 0 && len(sources) > 0 {
		event = logger.Warn()
	}
	event.
		Strs("terms", terms).
		Int("providers", len(sources)).
		Int("raw_papers", len(raw)).
		Int("papers", len(papers)).
		Interface("sources", results.Statistics(papers).Sources).
		Dur("duration", duration).
		Msg("search completed")

	return papers
}

// HealthCheck issues HealthCheckTerm to every provider concurrently and
// reports, by provider display name, whether a well-formed list came back.
func (o *Orchestrator) HealthCheck(ctx context.Context) map[string]bool {
	sources := o.registry.Sources()
	healthy := make([]bool, len(sources))

	var g errgroup.Group
	for i, source := range sources {
		g.Go(func() error {
			if err := source.HealthCheck(ctx, o.config.HealthCheckTerm); err != nil {
				o.logger.Warn().Err(err).Str("provider", source.Name()).Msg("provider health check failed")
				return nil
			}
			healthy[i] = true
			return nil
		})
	}
	_ = g.Wait()

	report := make(map[string]bool, len(sources))
	for i, source := range sources {
		report[source.Name()] = healthy[i]
	}
	return report
}

// Stats reports the search bounds and the enabled providers.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		MaxConcurrentSearches: o.config.MaxConcurrentSearches,
		SearchDelayMs:         o.config.SearchDelay.Milliseconds(),
		MaxPapersPerTerm:      o.config.MaxPapersPerTerm,
		MaxTotalPapers:        o.processor.MaxResults(),
		Providers:             o.registry.Names(),
	}
}

// wait sleeps for d and reports false if ctx ended first.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
