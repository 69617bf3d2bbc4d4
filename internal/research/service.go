// Package research composes term generation, search and summarization into
// the two user-facing operations: search and chat.
package research

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/events"
	"github.com/helixir/research-paper-finder/internal/observability"
	"github.com/helixir/research-paper-finder/internal/results"
	"github.com/helixir/research-paper-finder/internal/search"
)

// Default service bounds.
const (
	DefaultMaxQueryLength = 500
	DefaultMaxTotalPapers = 20
	DefaultMaxChatPapers  = 10
)

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// TermGenerator derives search terms from a query.
type TermGenerator interface {
	Generate(ctx context.Context, query string) []string
}

// PaperSearcher runs searches across providers.
type PaperSearcher interface {
	SearchPapers(ctx context.Context, terms []string) []domain.Paper
	HealthCheck(ctx context.Context) map[string]bool
	Stats() search.Stats
}

// Summarizer writes a reply describing a result set.
type Summarizer interface {
	Summarize(ctx context.Context, query string, papers []domain.Paper) string
}

// Config bounds the service.
type Config struct {
	MaxQueryLength int
	MaxTotalPapers int
	MaxChatPapers  int
}

// SearchResponse is the result of Search.
type SearchResponse struct {
	SearchID    uuid.UUID      `json:"searchId" yaml:"searchId"`
	Query       string         `json:"query" yaml:"query"`
	Papers      []domain.Paper `json:"papers" yaml:"papers"`
	SearchTerms []string       `json:"searchTerms" yaml:"searchTerms"`
}

// ChatResponse is the result of Chat.
type ChatResponse struct {
	SearchID    uuid.UUID      `json:"searchId" yaml:"searchId"`
	Response    string         `json:"response" yaml:"response"`
	Papers      []domain.Paper `json:"papers" yaml:"papers"`
	SearchTerms []string       `json:"searchTerms" yaml:"searchTerms"`
}

// HealthReport is the result of Health.
type HealthReport struct {
	Status    string          `json:"status" yaml:"status"`
	Services  map[string]bool `json:"services" yaml:"services"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
}

// Service is safe for concurrent use.
type Service struct {
	terms      TermGenerator
	searcher   PaperSearcher
	summarizer Summarizer
	publisher  events.Publisher
	logger     zerolog.Logger
	config     Config
	now        func() time.Time
}

// NewService creates a Service. A nil publisher disables event publishing.
func NewService(cfg Config, terms TermGenerator, searcher PaperSearcher, summarizer Summarizer, publisher events.Publisher, logger zerolog.Logger) *Service {
	if cfg.MaxQueryLength <= 0 {
		cfg.MaxQueryLength = DefaultMaxQueryLength
	}
	if cfg.MaxTotalPapers <= 0 {
		cfg.MaxTotalPapers = DefaultMaxTotalPapers
	}
	if cfg.MaxChatPapers <= 0 {
		cfg.MaxChatPapers = DefaultMaxChatPapers
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		terms:      terms,
		searcher:   searcher,
		summarizer: summarizer,
		publisher:  publisher,
		logger:     logger.With().Str("component", "research_service").Logger(),
		config:     cfg,
		now:        time.Now,
	}
}

// Search validates query, derives terms and returns the ranked papers.
// Only invalid input produces an error.
func (s *Service) Search(ctx context.Context, query string) (*SearchResponse, error) {
	start := s.now()
	query, err := ValidateQuery(query, s.config.MaxQueryLength)
	if err != nil {
		return nil, err
	}

	searchID := uuid.New()
	ctx = observability.WithSearchID(ctx, searchID.String())

	terms, papers := s.run(ctx, query)
	papers = capPapers(papers, s.config.MaxTotalPapers)

	s.publish(ctx, domain.EventTypeSearchCompleted, searchID, query, terms, papers, s.now().Sub(start))

	return &SearchResponse{
		SearchID:    searchID,
		Query:       query,
		Papers:      papers,
		SearchTerms: terms,
	}, nil
}

// Chat runs a search and adds a written summary. The summary describes the
// full result set; the returned papers are capped at MaxChatPapers.
func (s *Service) Chat(ctx context.Context, query string) (*ChatResponse, error) {
	start := s.now()
	query, err := ValidateQuery(query, s.config.MaxQueryLength)
	if err != nil {
		return nil, err
	}

	searchID := uuid.New()
	ctx = observability.WithSearchID(ctx, searchID.String())

	terms, papers := s.run(ctx, query)
	reply := s.summarizer.Summarize(ctx, query, papers)
	papers = capPapers(papers, s.config.MaxChatPapers)

	s.publish(ctx, domain.EventTypeChatCompleted, searchID, query, terms, papers, s.now().Sub(start))

	return &ChatResponse{
		SearchID:    searchID,
		Response:    reply,
		Papers:      papers,
		SearchTerms: terms,
	}, nil
}

// Health probes every provider.
func (s *Service) Health(ctx context.Context) HealthReport {
	services := s.searcher.HealthCheck(ctx)

	status := StatusHealthy
	for _, ok := range services {
		if !ok {
			status = StatusDegraded
			break
		}
	}

	return HealthReport{
		Status:    status,
		Services:  services,
		Timestamp: s.now().UTC(),
	}
}

// Stats reports the search configuration.
func (s *Service) Stats() search.Stats {
	return s.searcher.Stats()
}

// Terms exposes term generation for a validated query.
func (s *Service) Terms(ctx context.Context, query string) ([]string, error) {
	query, err := ValidateQuery(query, s.config.MaxQueryLength)
	if err != nil {
		return nil, err
	}
	return s.terms.Generate(ctx, query), nil
}

func (s *Service) run(ctx context.Context, query string) ([]string, []domain.Paper) {
	logger := observability.LoggerFromContext(ctx, s.logger)

	terms := s.terms.Generate(ctx, query)
	papers := s.searcher.SearchPapers(ctx, terms)

	logger.Info().
		Str("query", observability.TruncateForLog(query, 50)).
		Strs("terms", terms).
		Int("papers", len(papers)).
		Msg("research query served")
	return terms, papers
}

func (s *Service) publish(ctx context.Context, eventType string, searchID uuid.UUID, query string, terms []string, papers []domain.Paper, d time.Duration) {
	event, err := domain.NewEvent(eventType, searchID.String(), domain.SearchCompletedPayload{
		SearchID:    searchID,
		Query:       query,
		SearchTerms: terms,
		PapersFound: len(papers),
		Sources:     distinctSources(papers),
		Duration:    d,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		logger := observability.LoggerFromContext(ctx, s.logger)
		logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Msg("failed to publish event")
	}
}

var scriptScheme = regexp.MustCompile(`(?i)javascript:`)

// ValidateQuery strips markup characters and script URLs, trims the result
// and checks it is non-empty and at most maxLen characters.
func ValidateQuery(query string, maxLen int) (string, error) {
	q := strings.NewReplacer("<", "", ">", "").Replace(query)
	q = strings.TrimSpace(scriptScheme.ReplaceAllString(q, ""))

	if q == "" {
		return "", domain.NewValidationError("query", "query cannot be empty")
	}
	if maxLen > 0 && utf8.RuneCountInString(q) > maxLen {
		return "", domain.NewValidationError("query", fmt.Sprintf("query too long (max %d characters)", maxLen))
	}
	return q, nil
}

func capPapers(papers []domain.Paper, n int) []domain.Paper {
	if papers == nil {
		return []domain.Paper{}
	}
	return results.Limit(papers, n)
}

func distinctSources(papers []domain.Paper) []string {
	seen := make(map[string]struct{})
	sources := []string{}
	for _, p := range papers {
		if _, ok := seen[p.Source]; ok {
			continue
		}
		seen[p.Source] = struct{}{}
		sources = append(sources, p.Source)
	}
	return sources
}
