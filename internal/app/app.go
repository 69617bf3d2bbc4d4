// Package app assembles the research service from configuration. It is shared
// by the HTTP server and the command-line client.
package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/research-paper-finder/internal/cache"
	"github.com/helixir/research-paper-finder/internal/config"
	"github.com/helixir/research-paper-finder/internal/events"
	"github.com/helixir/research-paper-finder/internal/llm"
	"github.com/helixir/research-paper-finder/internal/observability"
	"github.com/helixir/research-paper-finder/internal/papersources"
	"github.com/helixir/research-paper-finder/internal/papersources/arxiv"
	"github.com/helixir/research-paper-finder/internal/papersources/base"
	"github.com/helixir/research-paper-finder/internal/papersources/core"
	"github.com/helixir/research-paper-finder/internal/papersources/doaj"
	"github.com/helixir/research-paper-finder/internal/papersources/pubmed"
	"github.com/helixir/research-paper-finder/internal/papersources/semanticscholar"
	"github.com/helixir/research-paper-finder/internal/research"
	"github.com/helixir/research-paper-finder/internal/results"
	"github.com/helixir/research-paper-finder/internal/retry"
	"github.com/helixir/research-paper-finder/internal/search"
	"github.com/helixir/research-paper-finder/internal/summary"
	"github.com/helixir/research-paper-finder/internal/terms"
)

// App holds the assembled components. Close releases them.
type App struct {
	Service   *research.Service
	Registry  *papersources.Registry
	Cache     *cache.Cache
	Completer llm.Completer

	sweeper   *cache.Sweeper
	publisher events.Publisher
	logger    zerolog.Logger
}

// Build wires every component from cfg. metrics may be nil.
func Build(cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) (*App, error) {
	c := cache.New(cache.Config{
		MaxEntries: cfg.Cache.MaxEntries,
		TTL:        cfg.Cache.TTL,
	}, cache.WithEvictionHook(func(string) { metrics.RecordCacheEviction() }))

	sweeper, err := cache.NewSweeper(c, cfg.Cache.SweepSchedule, logger)
	if err != nil {
		return nil, fmt.Errorf("create cache sweeper: %w", err)
	}

	completer, err := llm.NewCompleter(llm.FactoryConfig{
		Provider:    cfg.AI.Provider,
		Model:       cfg.AI.Model,
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		AccountID:   cfg.AI.AccountID,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create AI completer: %w", err)
	}
	if completer == nil {
		logger.Info().Msg("AI provider disabled, using keyword fallbacks")
	} else {
		logger.Info().
			Str("provider", completer.Provider()).
			Str("model", completer.Model()).
			Msg("AI provider configured")
	}

	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
	}

	registry := papersources.NewRegistry()
	for _, p := range newProviders(cfg, policy) {
		registry.Register(papersources.NewGuarded(p, c, metrics, logger))
		logger.Info().Str("provider", p.SourceType().DisplayName()).Msg("registered paper source")
	}
	if registry.Len() == 0 {
		logger.Warn().Msg("no paper sources enabled")
	}

	processor := results.NewProcessor(results.Config{
		RelevanceThreshold: cfg.Search.RelevanceThreshold,
		MaxResults:         max(cfg.Search.MaxTotalPapers, cfg.Search.MaxChatPapers),
	}, logger, results.WithMetrics(metrics))

	orchestrator := search.NewOrchestrator(search.Config{
		MaxConcurrentSearches: cfg.Search.MaxConcurrentSearches,
		SearchDelay:           cfg.Search.SearchDelay,
		MaxPapersPerTerm:      cfg.Search.MaxPapersPerTerm,
	}, registry, processor, metrics, logger)

	generator := terms.NewGenerator(terms.Config{
		MaxTerms:  cfg.Search.MaxSearchTerms,
		MaxTokens: cfg.AI.MaxTokensTerms,
		Retry:     policy,
	}, completer, c, metrics, logger)

	summarizer := summary.NewSummarizer(summary.Config{
		MaxTokens: cfg.AI.MaxTokensResponse,
		Retry:     policy,
	}, completer, c, metrics, logger)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kp, err := events.NewKafkaPublisher(events.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create event publisher: %w", err)
		}
		publisher = kp
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("search events enabled")
	}

	svc := research.NewService(research.Config{
		MaxQueryLength: cfg.Search.MaxQueryLength,
		MaxTotalPapers: cfg.Search.MaxTotalPapers,
		MaxChatPapers:  cfg.Search.MaxChatPapers,
	}, generator, orchestrator, summarizer, publisher, logger)

	return &App{
		Service:   svc,
		Registry:  registry,
		Cache:     c,
		Completer: completer,
		sweeper:   sweeper,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// StartBackground starts the cache sweeper.
func (a *App) StartBackground() {
	a.sweeper.Start()
}

// Close stops background work and flushes the event publisher.
func (a *App) Close() error {
	a.sweeper.Stop()
	var errs []error
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close event publisher: %w", err))
	}
	return errors.Join(errs...)
}

// newProviders builds the enabled providers in dispatch order.
func newProviders(cfg *config.Config, policy retry.Policy) []papersources.Provider {
	pc := cfg.Providers
	perTerm := cfg.Search.MaxPapersPerTerm
	var providers []papersources.Provider

	if pc.ArXiv.Enabled {
		providers = append(providers, arxiv.New(arxiv.Config{
			BaseURL:    pc.ArXiv.BaseURL,
			Timeout:    pc.ArXiv.Timeout,
			RateLimit:  pc.ArXiv.RateLimit,
			BurstSize:  pc.ArXiv.Burst,
			MaxResults: perTerm,
			UserAgent:  pc.ArXiv.UserAgent,
			Retry:      policy,
		}))
	}

	if pc.SemanticScholar.Enabled {
		providers = append(providers, semanticscholar.NewClient(semanticscholar.Config{
			BaseURL:    pc.SemanticScholar.BaseURL,
			APIKey:     pc.SemanticScholar.APIKey,
			Timeout:    pc.SemanticScholar.Timeout,
			RateLimit:  pc.SemanticScholar.RateLimit,
			BurstSize:  pc.SemanticScholar.Burst,
			MaxResults: perTerm,
			UserAgent:  pc.SemanticScholar.UserAgent,
			Retry:      policy,
		}, nil))
	}

	if pc.PubMed.Enabled {
		providers = append(providers, pubmed.New(pubmed.Config{
			BaseURL:    pc.PubMed.BaseURL,
			APIKey:     pc.PubMed.APIKey,
			Timeout:    pc.PubMed.Timeout,
			RateLimit:  pc.PubMed.RateLimit,
			BurstSize:  pc.PubMed.Burst,
			MaxResults: perTerm,
			UserAgent:  pc.PubMed.UserAgent,
			Retry:      policy,
		}))
	}

	if pc.DOAJ.Enabled {
		providers = append(providers, doaj.New(doaj.Config{
			BaseURL:    pc.DOAJ.BaseURL,
			Timeout:    pc.DOAJ.Timeout,
			RateLimit:  pc.DOAJ.RateLimit,
			BurstSize:  pc.DOAJ.Burst,
			MaxResults: perTerm,
			UserAgent:  pc.DOAJ.UserAgent,
			Retry:      policy,
		}))
	}

	if pc.CORE.Enabled {
		providers = append(providers, core.New(core.Config{
			BaseURL:    pc.CORE.BaseURL,
			APIKey:     pc.CORE.APIKey,
			Timeout:    pc.CORE.Timeout,
			RateLimit:  pc.CORE.RateLimit,
			BurstSize:  pc.CORE.Burst,
			MaxResults: perTerm,
			UserAgent:  pc.CORE.UserAgent,
			Retry:      policy,
		}))
	}

	if pc.BASE.Enabled {
		providers = append(providers, base.New(base.Config{
			BaseURL:    pc.BASE.BaseURL,
			Timeout:    pc.BASE.Timeout,
			RateLimit:  pc.BASE.RateLimit,
			BurstSize:  pc.BASE.Burst,
			MaxResults: perTerm,
			UserAgent:  pc.BASE.UserAgent,
			Retry:      policy,
		}))
	}

	return providers
}
