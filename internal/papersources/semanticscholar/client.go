package semanticscholar

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
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is the shared unauthenticated rate.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// paperFields is the list of fields to request from the API.
	paperFields = "paperId,title,abstract,year,publicationDate,authors,url,citationCount,openAccessPdf"

	// paperURLPrefix builds a landing page URL when the API omits one.
	paperURLPrefix = "https://www.semanticscholar.org/paper/"

	// sourceName is the human-readable name for this source.
	sourceName = "Semantic Scholar"
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL is the base URL for the API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the optional API key for authenticated requests.
	// Authenticated requests have higher rate limits.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the maximum number of results to return per search.
	MaxResults int

	// UserAgent is sent with every request.
	UserAgent string

	// Retry bounds the attempts for transient failures.
	Retry retry.Policy
}

// Client implements papersources.Provider for Semantic Scholar.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
}

// Compile-time check that Client implements papersources.Provider.
var _ papersources.Provider = (*Client)(nil)

// NewClient creates a new Semantic Scholar client with the given configuration.
// If httpClient is nil, a new one will be created with the configuration settings.
func NewClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = papersources.DefaultMaxResults
	}

	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Provider:     sourceName,
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			UserAgent:    cfg.UserAgent,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
			Retry:        cfg.Retry,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Fetch queries Semantic Scholar for papers matching term.
func (c *Client) Fetch(ctx context.Context, term string) ([]domain.Paper, error) {
	searchURL, err := c.buildSearchURL(term)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, searchURL, &resp); err != nil {
		return nil, err
	}

	papers := make([]domain.Paper, 0, len(resp.Data))
	for i := range resp.Data {
		papers = append(papers, c.convertPaper(&resp.Data[i], term))
	}
	return papers, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeSemanticScholar
}

// buildSearchURL constructs the search API URL with query parameters.
func (c *Client) buildSearchURL(term string) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("paper", "search")

	q := searchURL.Query()
	q.Set("query", term)
	q.Set("fields", paperFields)
	q.Set("limit", strconv.Itoa(c.config.MaxResults))

	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// convertPaper converts a Semantic Scholar PaperResult to a domain.Paper.
func (c *Client) convertPaper(result *PaperResult, term string) domain.Paper {
	authors := make([]string, 0, len(result.Authors))
	for _, a := range result.Authors {
		authors = append(authors, a.Name)
	}

	published := result.PublicationDate
	if published == "" {
		published = domain.YearDate(result.Year)
	}

	link := result.URL
	if link == "" && result.OpenAccessPDF != nil {
		link = result.OpenAccessPDF.URL
	}
	if link == "" && result.PaperID != "" {
		link = paperURLPrefix + result.PaperID
	}

	citations := 0
	if result.CitationCount != nil {
		citations = *result.CitationCount
	}

	return papersources.Normalize(domain.Paper{
		Title:         result.Title,
		Abstract:      result.Abstract,
		Authors:       authors,
		PublishedDate: published,
		URL:           link,
		Citations:     citations,
	}, domain.SourceTypeSemanticScholar, term)
}
