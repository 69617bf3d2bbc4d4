package core

import (
	"context"
	"strconv"
	"time"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/papersources"
	"github.com/helixir/research-paper-finder/internal/retry"
)

const (
	// DefaultBaseURL is the CORE API base URL.
	DefaultBaseURL = "https://core.ac.uk/api-v2"

	// DefaultRateLimit is the default rate limit.
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// displayURLPrefix builds the CORE landing page when no link is present.
	displayURLPrefix = "https://core.ac.uk/display/"

	// sourceName is the human-readable name for this source.
	sourceName = "CORE"
)

// Config holds configuration for the CORE client.
type Config struct {
	BaseURL string

	// APIKey is sent as the apiKey query parameter when set.
	APIKey string

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

// Client implements papersources.Provider for CORE.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.Provider = (*Client)(nil)

// New creates a new CORE client.
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

// Fetch searches CORE for term.
func (c *Client) Fetch(ctx context.Context, term string) ([]domain.Paper, error) {
	u, err := papersources.PathURL(c.config.BaseURL, "search", term)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("page", "1")
	q.Set("pageSize", strconv.Itoa(c.config.MaxResults))
	if c.config.APIKey != "" {
		q.Set("apiKey", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}

	papers := make([]domain.Paper, 0, len(resp.Data))
	for i := range resp.Data {
		papers = append(papers, recordToPaper(&resp.Data[i], term))
	}
	return papers, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeCORE
}

func recordToPaper(r *Record, term string) domain.Paper {
	abstract := r.Abstract
	if abstract == "" {
		abstract = r.Description
	}

	published := r.PublishedDate
	if domain.FormatDate(published) == "" {
		published = domain.YearDate(r.Year.Int())
	}

	link := r.DownloadURL
	if link == "" {
		link = r.URI
	}
	if link == "" && r.ID != "" {
		link = displayURLPrefix + string(r.ID)
	}

	return papersources.Normalize(domain.Paper{
		Title:         r.Title,
		Abstract:      abstract,
		Authors:       r.Authors,
		PublishedDate: published,
		URL:           link,
		Citations:     0,
	}, domain.SourceTypeCORE, term)
}
