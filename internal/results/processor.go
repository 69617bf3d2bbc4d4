// Package results turns the raw papers gathered from every provider into the
// final ranked list: validate, enrich, deduplicate, rank, limit.
package results

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/rs/zerolog"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/observability"
)

// Default processing bounds.
const (
	DefaultRelevanceThreshold = 0.1
	DefaultMaxResults         = 20
)

// Config holds the processor settings.
type Config struct {
	// RelevanceThreshold is the score gap at or under which citations and
	// then recency decide the order.
	RelevanceThreshold float64

	// MaxResults caps the processed list.
	MaxResults int
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock overrides the clock used to fill missing publication dates.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// WithMetrics records dropped papers.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// Processor is stateless apart from its configuration and is safe for
// concurrent use.
type Processor struct {
	config   Config
	validate *validator.Validate
	now      func() time.Time
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(cfg Config, logger zerolog.Logger, opts ...Option) *Processor {
	if cfg.RelevanceThreshold < 0 {
		cfg.RelevanceThreshold = DefaultRelevanceThreshold
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}

	p := &Processor{
		config:   cfg,
		validate: newValidator(),
		now:      time.Now,
		logger:   logger.With().Str("component", "result_processor").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// MaxResults returns the configured cap.
func (p *Processor) MaxResults() int {
	return p.config.MaxResults
}

// Process runs every step in order and caps the result at MaxResults.
// The input slice is not modified.
func (p *Processor) Process(raw []domain.Paper) []domain.Paper {
	valid, invalid := p.Validate(raw)
	enriched := p.Enrich(valid)
	unique, duplicates := Deduplicate(enriched)
	ranked := Rank(unique, p.config.RelevanceThreshold)
	out := Limit(ranked, p.config.MaxResults)

	p.metrics.RecordPapersProcessed(invalid, duplicates)
	p.logger.Debug().
		Int("input", len(raw)).
		Int("invalid", invalid).
		Int("duplicates", duplicates).
		Int("output", len(out)).
		Msg("papers processed")

	return out
}

// Validate drops papers that break the canonical invariants and returns
// deep copies of the rest along with the number dropped.
func (p *Processor) Validate(papers []domain.Paper) ([]domain.Paper, int) {
	out := make([]domain.Paper, 0, len(papers))
	dropped := 0
	for i := range papers {
		if err := p.validate.Struct(&papers[i]); err != nil {
			dropped++
			p.logger.Debug().
				Err(err).
				Str("title", observability.TruncateForLog(papers[i].Title, 80)).
				Str("source", papers[i].Source).
				Msg("dropping invalid paper")
			continue
		}
		out = append(out, papers[i].Clone())
	}
	return out, dropped
}

// Enrich fills every optional field with its default so later steps can
// assume a complete record. Papers are modified in place and returned.
func (p *Processor) Enrich(papers []domain.Paper) []domain.Paper {
	today := p.now().Format(domain.DateLayout)
	for i := range papers {
		enrich(&papers[i], today)
	}
	return papers
}

func enrich(paper *domain.Paper, today string) {
	if paper.Title == "" {
		paper.Title = domain.Untitled
	}
	if paper.Abstract == "" {
		paper.Abstract = domain.NoAbstract
	}
	if len(paper.Authors) == 0 {
		paper.Authors = []string{domain.Unknown}
	}
	if date := domain.FormatDate(paper.PublishedDate); date != "" {
		paper.PublishedDate = date
	} else {
		paper.PublishedDate = today
	}
	if paper.Source == "" {
		paper.Source = domain.Unknown
	}
	if paper.Citations < 0 {
		paper.Citations = 0
	}
}

// Limit returns at most n papers. A non-positive n returns papers unchanged.
func Limit(papers []domain.Paper, n int) []domain.Paper {
	if n <= 0 || len(papers) <= n {
		return papers
	}
	return papers[:n]
}
