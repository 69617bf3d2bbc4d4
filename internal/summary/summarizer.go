// Package summary writes a short research-landscape summary for a set of papers.
package summary

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-paper-finder/internal/cache"
	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/llm"
	"github.com/helixir/research-paper-finder/internal/observability"
	"github.com/helixir/research-paper-finder/internal/retry"
)

const (
	// DefaultMaxTokens is the completion budget for a summary.
	DefaultMaxTokens = 500

	// CacheNamespace prefixes summary cache keys.
	CacheNamespace = "ai_response"

	// promptPapers is how many leading papers are described in the prompt.
	promptPapers = 5

	operation = "summarize"
)

// Config bounds summary generation.
type Config struct {
	MaxTokens int
	Retry     retry.Policy
}

// Summarizer produces chat replies. Without a Completer, or when the
// completion fails, a deterministic description of the result set is used.
type Summarizer struct {
	completer llm.Completer
	cache     *cache.Cache
	metrics   *observability.Metrics
	logger    zerolog.Logger
	config    Config
}

// NewSummarizer creates a Summarizer. completer, c and metrics may be nil.
func NewSummarizer(cfg Config, completer llm.Completer, c *cache.Cache, metrics *observability.Metrics, logger zerolog.Logger) *Summarizer {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Summarizer{
		completer: completer,
		cache:     c,
		metrics:   metrics,
		logger:    logger.With().Str("component", "summarizer").Logger(),
		config:    cfg,
	}
}

// CacheKey returns the cache key for a summary of n papers for query.
func CacheKey(query string, n int) string {
	return cache.Key(CacheNamespace, query, strconv.Itoa(n))
}

// Summarize returns a summary of papers for query. It never fails. A blank
// completion is treated as a failure and is never cached.
func (s *Summarizer) Summarize(ctx context.Context, query string, papers []domain.Paper) string {
	logger := observability.LoggerFromContext(ctx, s.logger)

	key := CacheKey(query, len(papers))
	if s.cache != nil {
		if text, ok := cache.GetAs[string](s.cache, key); ok {
			s.metrics.RecordCacheHit(CacheNamespace)
			return text
		}
		s.metrics.RecordCacheMiss(CacheNamespace)
	}

	if s.completer == nil {
		return Fallback(query, papers)
	}

	start := time.Now()
	text, err := retry.Do(ctx, s.config.Retry, func(ctx context.Context) (string, error) {
		text, err := s.completer.Complete(ctx, Prompt(query, papers), s.config.MaxTokens)
		if err != nil && !llm.IsTransient(err) {
			return "", retry.Permanent(err)
		}
		if err == nil && strings.TrimSpace(text) == "" {
			return "", retry.Permanent(fmt.Errorf("blank summary: %w", domain.ErrEmptyCompletion))
		}
		return text, err
	})
	if err != nil {
		s.metrics.RecordAIRequest(s.completer.Provider(), operation, "error", time.Since(start))
		logger.Warn().Err(err).Msg("summary generation failed, using fallback response")
		return Fallback(query, papers)
	}
	s.metrics.RecordAIRequest(s.completer.Provider(), operation, "success", time.Since(start))

	text = strings.TrimSpace(text)
	if s.cache != nil {
		s.cache.Set(key, text)
	}
	return text
}

// Prompt builds the summary prompt, listing the leading papers.
func Prompt(query string, papers []domain.Paper) string {
	top := papers
	if len(top) > promptPapers {
		top = top[:promptPapers]
	}

	lines := make([]string, 0, len(top))
	for i, p := range top {
		lines = append(lines, fmt.Sprintf("%d. %q by %s (%d citations, %s)",
			i+1, p.Title, strings.Join(p.Authors, ", "), p.Citations, p.Source))
	}

	return fmt.Sprintf(`Based on the research query %q, I found %d relevant research papers. Here are the top results:

%s

Please provide a brief summary of the research landscape for this topic, highlighting the most important findings and trends. Keep the response concise and informative.`,
		query, len(papers), strings.Join(lines, "\n"))
}

// Fallback describes papers without AI. Sources are listed once each in
// first-seen order.
func Fallback(query string, papers []domain.Paper) string {
	seen := make(map[string]struct{}, len(papers))
	var sources []string
	for _, p := range papers {
		if _, ok := seen[p.Source]; ok {
			continue
		}
		seen[p.Source] = struct{}{}
		sources = append(sources, p.Source)
	}

	return fmt.Sprintf("I found %d research papers related to %q. The top results include papers from %s. "+
		"These papers cover various aspects of the topic and provide valuable insights for further research.",
		len(papers), query, strings.Join(sources, ", "))
}
