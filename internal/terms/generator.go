// Package terms derives provider search terms from a free-text research query.
package terms

import (
	"context"
	"errors"
	"fmt"
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
	// DefaultMaxTerms bounds the generated term list.
	DefaultMaxTerms = 5

	// DefaultMaxTokens is the completion budget for term generation.
	DefaultMaxTokens = 200

	// CacheNamespace prefixes term list cache keys.
	CacheNamespace = "search_terms"

	operation = "generate_terms"

	// minKeywordLength is the exclusive lower bound on fallback token length.
	minKeywordLength = 2
)

// Config bounds term generation.
type Config struct {
	MaxTerms  int
	MaxTokens int
	Retry     retry.Policy
}

// Generator turns a research query into a short list of search terms. The AI
// collaborator is optional: with a nil Completer every query takes the
// deterministic keyword fallback.
type Generator struct {
	completer llm.Completer
	cache     *cache.Cache
	metrics   *observability.Metrics
	logger    zerolog.Logger
	config    Config
}

// NewGenerator creates a Generator. completer, c and metrics may be nil.
func NewGenerator(cfg Config, completer llm.Completer, c *cache.Cache, metrics *observability.Metrics, logger zerolog.Logger) *Generator {
	if cfg.MaxTerms <= 0 {
		cfg.MaxTerms = DefaultMaxTerms
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Generator{
		completer: completer,
		cache:     c,
		metrics:   metrics,
		logger:    logger.With().Str("component", "term_generator").Logger(),
		config:    cfg,
	}
}

// CacheKey returns the cache key for query.
func CacheKey(query string) string {
	return cache.Key(CacheNamespace, normalizeQuery(query))
}

// Generate returns between one and MaxTerms search terms for query. It never
// returns an empty list: AI failures fall back to keyword extraction, and an
// empty extraction falls back to the query itself.
func (g *Generator) Generate(ctx context.Context, query string) []string {
	logger := observability.LoggerFromContext(ctx, g.logger).With().
		Str("query", observability.TruncateForLog(query, 50)).
		Logger()

	key := CacheKey(query)
	if g.cache != nil {
		if cached, ok := cache.GetAs[[]string](g.cache, key); ok {
			g.metrics.RecordCacheHit(CacheNamespace)
			logger.Debug().Strs("terms", cached).Msg("search terms served from cache")
			return append([]string(nil), cached...)
		}
		g.metrics.RecordCacheMiss(CacheNamespace)
	}

	terms, err := g.generateWithAI(ctx, query)
	if err != nil {
		g.metrics.RecordTermFallback()
		if errors.Is(err, domain.ErrAIUnavailable) {
			logger.Debug().Msg("AI disabled, using keyword extraction")
		} else {
			logger.Warn().Err(err).Msg("term generation failed, using keyword extraction")
		}
		return Fallback(query, g.config.MaxTerms)
	}

	if g.cache != nil {
		g.cache.Set(key, append([]string(nil), terms...))
	}
	logger.Info().Strs("terms", terms).Msg("search terms generated")
	return terms
}

func (g *Generator) generateWithAI(ctx context.Context, query string) ([]string, error) {
	if g.completer == nil {
		return nil, domain.ErrAIUnavailable
	}

	start := time.Now()
	text, err := retry.Do(ctx, g.config.Retry, func(ctx context.Context) (string, error) {
		text, err := g.completer.Complete(ctx, Prompt(query), g.config.MaxTokens)
		if err != nil && !llm.IsTransient(err) {
			return "", retry.Permanent(err)
		}
		return text, err
	})
	if err != nil {
		g.metrics.RecordAIRequest(g.completer.Provider(), operation, "error", time.Since(start))
		return nil, err
	}
	g.metrics.RecordAIRequest(g.completer.Provider(), operation, "success", time.Since(start))

	terms := Parse(text, g.config.MaxTerms)
	if len(terms) == 0 {
		return nil, fmt.Errorf("no terms in completion: %w", domain.ErrEmptyCompletion)
	}
	return terms, nil
}

// Prompt builds the term generation prompt for query.
func Prompt(query string) string {
	return fmt.Sprintf(`Given this research query: %q

Generate 3-5 specific search terms that would help find relevant academic research papers. Focus on:
- Technical terms and keywords
- Academic terminology
- Specific methodologies or approaches
- Domain-specific vocabulary

Return only the search terms, one per line, without numbering or bullet points.`, query)
}

// Parse splits a newline-delimited completion into at most max terms.
// Models sometimes ignore the formatting instruction, so leading bullets,
// list numbers and surrounding quotes are stripped.
func Parse(text string, max int) []string {
	var terms []string
	for _, line := range strings.Split(text, "\n") {
		term := cleanLine(line)
		if term == "" {
			continue
		}
		terms = append(terms, term)
		if max > 0 && len(terms) == max {
			break
		}
	}
	return terms
}

// Fallback extracts keywords from query: lower-cased, whitespace-split tokens
// longer than two characters, capped at max. If nothing survives the
// trimmed query is returned as the only term, or the query unchanged when it
// is blank. Callers are expected to reject blank queries beforehand.
func Fallback(query string, max int) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(word)) <= minKeywordLength {
			continue
		}
		terms = append(terms, word)
		if max > 0 && len(terms) == max {
			break
		}
	}
	if len(terms) == 0 {
		if q := strings.TrimSpace(query); q != "" {
			return []string{q}
		}
		return []string{query}
	}
	return terms
}

func cleanLine(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "-*•· \t")

	// "1." or "2)" list markers
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		s = s[i+1:]
	}

	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
