package doaj

import (
	"context"
	"strconv"
	"time"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/papersources"
	"github.com/helixir/research-paper-finder/internal/retry"
)

const (
	// DefaultBaseURL is the DOAJ API base URL.
	DefaultBaseURL = "https://doaj.org/api/v2"

	// DefaultRateLimit is the default rate limit.
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// articleURLPrefix builds the DOAJ landing page when no link is present.
	articleURLPrefix = "https://doaj.org/article/"

	// sourceName is the human-readable name for this source.
	sourceName = "DOAJ"
)

// Config holds configuration for the DOAJ client.
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

// Client implements papersources.Provider for DOAJ.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.Provider = (*Client)(nil)

// New creates a new DOAJ client.
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

// Fetch searches DOAJ articles for term. The query is part of the path.
func (c *Client) Fetch(ctx context.Context, term string) ([]domain.Paper, error) {
	u, err := papersources.PathURL(c.config.BaseURL, "search", "articles", term)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("pageSize", strconv.Itoa(c.config.MaxResults))
	u.RawQuery = q.Encode()

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}

	papers := make([]domain.Paper, 0, len(resp.Results))
	for i := range resp.Results {
		papers = append(papers, articleToPaper(&resp.Results[i], term))
	}
	return papers, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeDOAJ
}

func articleToPaper(a *Article, term string) domain.Paper {
	bib := a.BibJSON

	authors := make([]string, 0, len(bib.Authors))
	for _, au := range bib.Authors {
		authors = append(authors, au.Name)
	}

	link := ""
	for _, l := range bib.Links {
		if l.URL != "" {
			link = l.URL
			break
		}
	}
	if link == "" && a.ID != "" {
		link = articleURLPrefix + a.ID
	}

	return papersources.Normalize(domain.Paper{
		Title:         bib.Title,
		Abstract:      bib.Abstract,
		Authors:       authors,
		PublishedDate: publishedDate(bib.Year.Int(), bib.Month.Int()),
		URL:           link,
		Citations:     0,
	}, domain.SourceTypeDOAJ, term)
}

func publishedDate(year, month int) string {
	if year <= 0 {
		return ""
	}
	if month < 1 || month > 12 {
		month = 1
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format(domain.DateLayout)
}
