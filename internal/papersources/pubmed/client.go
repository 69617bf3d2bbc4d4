package pubmed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/papersources"
	"github.com/helixir/research-paper-finder/internal/retry"
)

const (
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the rate limit without an API key (3 requests/second).
	// With an API key, the limit increases to 10 requests/second.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// articleURLPrefix builds the PubMed landing page from a PMID.
	articleURLPrefix = "https://pubmed.ncbi.nlm.nih.gov/"

	// sourceName is the human-readable name for this source.
	sourceName = "PubMed"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the NCBI API key for higher rate limits. Optional.
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the number of PMIDs requested per search.
	MaxResults int

	// UserAgent is sent with every request.
	UserAgent string

	// Retry bounds the attempts for transient failures.
	Retry retry.Policy
}

// applyDefaults applies default values to the config.
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

// Client implements papersources.Provider for PubMed.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Compile-time check that Client implements Provider.
var _ papersources.Provider = (*Client)(nil)

// New creates a new PubMed client with the given configuration.
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

// NewWithHTTPClient creates a new PubMed client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Fetch searches PubMed for term. It performs:
// 1. esearch.fcgi - retrieves PMIDs matching the term
// 2. efetch.fcgi - retrieves full article metadata for the PMIDs
func (c *Client) Fetch(ctx context.Context, term string) ([]domain.Paper, error) {
	pmids, err := c.esearch(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("esearch failed: %w", err)
	}
	if len(pmids) == 0 {
		return []domain.Paper{}, nil
	}

	set, err := c.efetch(ctx, pmids)
	if err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}

	papers := make([]domain.Paper, 0, len(set.Articles))
	for i := range set.Articles {
		if paper, ok := articleToPaper(&set.Articles[i], term); ok {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePubMed
}

// esearch performs a search query and returns matching PMIDs.
func (c *Client) esearch(ctx context.Context, term string) ([]string, error) {
	u, err := url.Parse(c.config.BaseURL + "/esearch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("db", "pubmed")
	q.Set("term", term)
	q.Set("retmax", strconv.Itoa(c.config.MaxResults))
	q.Set("retmode", "json")
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	var resp ESearchResponse
	if err := c.httpClient.GetJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}
	return resp.Result.IDList, nil
}

// efetch retrieves full article metadata for the given PMIDs.
func (c *Client) efetch(ctx context.Context, pmids []string) (*PubmedArticleSet, error) {
	u, err := url.Parse(c.config.BaseURL + "/efetch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(pmids, ","))
	q.Set("retmode", "xml")
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	var set PubmedArticleSet
	if err := c.httpClient.GetXML(ctx, u.String(), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// articleToPaper converts a PubmedArticle to a domain.Paper. Articles without
// a title are skipped.
func articleToPaper(article *PubmedArticle, term string) (domain.Paper, bool) {
	citation := article.MedlineCitation
	title := papersources.CleanText(citation.Article.ArticleTitle.XML)
	if title == "" {
		return domain.Paper{}, false
	}

	var link string
	if pmid := strings.TrimSpace(citation.PMID); pmid != "" {
		link = articleURLPrefix + pmid + "/"
	}

	return papersources.Normalize(domain.Paper{
		Title:         title,
		Abstract:      extractAbstract(citation.Article.Abstract),
		Authors:       extractAuthors(citation.Article.AuthorList),
		PublishedDate: extractPublicationDate(citation.Article),
		URL:           link,
		// PubMed does not report citation counts.
		Citations: 0,
	}, domain.SourceTypePubMed, term), true
}

// extractPublicationDate returns the publication date as YYYY-MM-DD. It uses
// the electronic ArticleDate if available, otherwise the journal PubDate.
func extractPublicationDate(article Article) string {
	for _, ad := range article.ArticleDate {
		if t, ok := parseDate(ad.Year, ad.Month, ad.Day); ok {
			return t.Format(domain.DateLayout)
		}
	}

	pubDate := article.Journal.JournalIssue.PubDate
	if t, ok := parseDate(pubDate.Year, pubDate.Month, pubDate.Day); ok {
		return t.Format(domain.DateLayout)
	}

	// MedlineDate can be "2020 Jan-Feb", "2020 Spring", "2020-2021", etc.
	if parts := strings.Fields(pubDate.MedlineDate); len(parts) > 0 {
		if year, err := strconv.Atoi(strings.Split(parts[0], "-")[0]); err == nil {
			return domain.YearDate(year)
		}
	}
	return ""
}

// parseDate parses year, month, day strings into a time.Time.
func parseDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y <= 0 {
		return time.Time{}, false
	}

	d := 1
	if parsed, err := strconv.Atoi(strings.TrimSpace(day)); err == nil && parsed >= 1 && parsed <= 31 {
		d = parsed
	}
	return time.Date(y, parseMonth(month), d, 0, 0, 0, 0, time.UTC), true
}

// monthNames maps lowercase month name strings (abbreviation and full) to time.Month.
var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// parseMonth parses a month string (numeric or name) into time.Month.
func parseMonth(month string) time.Month {
	month = strings.TrimSpace(month)
	if m, err := strconv.Atoi(month); err == nil && m >= 1 && m <= 12 {
		return time.Month(m)
	}
	if m, ok := monthNames[strings.ToLower(month)]; ok {
		return m
	}
	return time.January
}

// extractAbstract concatenates multiple abstract sections into a single string.
func extractAbstract(abstract *Abstract) string {
	if abstract == nil {
		return ""
	}

	parts := make([]string, 0, len(abstract.AbstractTexts))
	for _, at := range abstract.AbstractTexts {
		text := papersources.CleanText(at.XML)
		if text == "" {
			continue
		}
		if at.Label != "" && len(abstract.AbstractTexts) > 1 {
			text = at.Label + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// extractAuthors builds "ForeName LastName" names, skipping invalid entries.
func extractAuthors(authorList *AuthorList) []string {
	if authorList == nil {
		return nil
	}

	authors := make([]string, 0, len(authorList.Authors))
	for _, a := range authorList.Authors {
		if a.ValidYN == "N" {
			continue
		}
		name := a.CollectiveName
		if name == "" {
			name = strings.TrimSpace(a.ForeName + " " + a.LastName)
		}
		if name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}
