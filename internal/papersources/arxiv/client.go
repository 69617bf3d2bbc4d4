// Package arxiv implements the arXiv Atom feed provider.
package arxiv

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/papersources"
	"github.com/helixir/research-paper-finder/internal/retry"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "http://export.arxiv.org/api"

	// DefaultRateLimit follows the arXiv guidance of one request every three seconds.
	DefaultRateLimit = 0.34

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// arxivIDRegex extracts the arXiv ID from the full URL.
// Matches patterns like "http://arxiv.org/abs/2301.12345v1" or "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the maximum results to return per search request.
	MaxResults int

	// UserAgent is sent with every request.
	UserAgent string

	// Retry bounds the attempts for transient failures.
	Retry retry.Policy
}

// applyDefaults sets default values for unset configuration fields.
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

// Client implements papersources.Provider for arXiv.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements Provider interface.
var _ papersources.Provider = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Provider:  sourceName,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: cfg.UserAgent,
		Retry:     cfg.Retry,
	})

	return NewWithHTTPClient(cfg, httpClient)
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Fetch queries arXiv for the newest papers matching term.
func (c *Client) Fetch(ctx context.Context, term string) ([]domain.Paper, error) {
	searchURL, err := c.buildSearchURL(term)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	var feed Feed
	if err := c.httpClient.GetXML(ctx, searchURL, &feed); err != nil {
		return nil, err
	}

	papers := make([]domain.Paper, 0, len(feed.Entries))
	for i := range feed.Entries {
		if paper, ok := entryToPaper(&feed.Entries[i], term); ok {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeArXiv
}

// buildSearchURL constructs the arXiv search API URL.
func (c *Client) buildSearchURL(term string) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	query := url.Values{}
	query.Set("search_query", "all:"+term)
	query.Set("start", "0")
	query.Set("max_results", strconv.Itoa(c.config.MaxResults))
	query.Set("sortBy", "submittedDate")
	query.Set("sortOrder", "descending")

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// entryToPaper converts an arXiv Atom entry to a domain Paper. Entries
// without a title are skipped.
func entryToPaper(entry *Entry, term string) (domain.Paper, bool) {
	if strings.TrimSpace(entry.Title) == "" {
		return domain.Paper{}, false
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, a.Name)
	}

	paper := domain.Paper{
		Title:         entry.Title,
		Abstract:      entry.Summary,
		Authors:       authors,
		PublishedDate: strings.TrimSpace(entry.Published),
		URL:           entryURL(entry),
		// arXiv does not report citation counts.
		Citations: 0,
	}
	return papersources.Normalize(paper, domain.SourceTypeArXiv, term), true
}

// entryURL prefers the canonical abstract page, falling back to the
// alternate link.
func entryURL(entry *Entry) string {
	if id := extractArXivID(strings.TrimSpace(entry.ID)); id != "" {
		return "https://arxiv.org/abs/" + id
	}
	for _, link := range entry.Links {
		if link.Rel == "alternate" {
			return link.Href
		}
	}
	return ""
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345"
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}
