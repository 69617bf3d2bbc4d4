package base

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/papersources"
	"github.com/helixir/research-paper-finder/internal/retry"
)

const (
	// DefaultBaseURL is the BASE HTTP search interface endpoint.
	DefaultBaseURL = "https://www.base-search.net/cgi-bin/BaseHttpSearchInterface.cgi"

	// DefaultRateLimit is the default rate limit.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// homeURL is used when a record carries no link at all.
	homeURL = "https://www.base-search.net/"

	// sourceName is the human-readable name for this source.
	sourceName = "BASE"
)

// Config holds configuration for the BASE client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64
	BurstSize  int
	MaxResults int
	UserAgent  string
	Retry      retry.Policy
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = papersources.DefaultMaxResults
	}
}

// Client implements papersources.Provider for BASE.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.Provider = (*Client)(nil)

// New creates a new BASE client.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Provider:  sourceName,
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
			UserAgent: cfg.UserAgent,
			Retry:     cfg.Retry,
		}),
	}
}

// Fetch searches BASE for term.
func (c *Client) Fetch(ctx context.Context, term string) ([]domain.Paper, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	q := u.Query()
	q.Set("func", "cgiwrap_basesearch")
	q.Set("query", term)
	q.Set("format", "json")
	q.Set("num", strconv.Itoa(c.config.MaxResults))
	u.RawQuery = q.Encode()

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}

	papers := make([]domain.Paper, 0, len(resp.Results))
	for i := range resp.Results {
		papers = append(papers, resultToPaper(&resp.Results[i], term))
	}
	return papers, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeBASE
}

func resultToPaper(r *Result, term string) domain.Paper {
	link := r.URL
	if link == "" {
		link = r.Link
	}
	if link == "" {
		link = homeURL
	}

	published := domain.FormatDate(string(r.Year))
	if published == "" {
		published = domain.YearDate(r.Year.Int())
	}

	return papersources.Normalize(domain.Paper{
		Title:         r.Title,
		Abstract:      r.Abstract,
		Authors:       r.Author,
		PublishedDate: published,
		URL:           link,
		Citations:     0,
	}, domain.SourceTypeBASE, term)
}
