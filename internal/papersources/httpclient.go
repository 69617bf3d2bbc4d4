package papersources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/retry"
)

const (
	// DefaultUserAgent is sent when a provider does not configure its own.
	DefaultUserAgent = "Research-Paper-Finder/1.0"

	// maxBodySize caps how much of an upstream response is read.
	maxBodySize = 10 << 20

	// maxErrorBodySize caps the response excerpt kept in a ProviderError.
	maxErrorBodySize = 512
)

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Provider names the upstream in errors, e.g. "arXiv".
	Provider string

	// Timeout is the per-attempt request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Retry bounds the attempts made for transient failures.
	Retry retry.Policy

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key for authentication.
	APIKey string

	// APIKeyHeader is the header name for the API key (e.g., "x-api-key", "Authorization").
	APIKeyHeader string

	// APIKeyPrefix is prepended to the key, e.g. "Bearer ".
	APIKeyPrefix string
}

// HTTPClient is the fetch primitive shared by provider clients. It applies
// rate limiting before every attempt and retries network errors, 429 and 5xx
// replies through the retry package. It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
}

// NewHTTPClient creates a new HTTP client with rate limiting.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 3
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Provider == "" {
		cfg.Provider = "provider"
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:      cfg,
	}
}

// Get fetches rawURL and returns the response body of a 2xx reply.
// Non-success statuses and transport failures are reported as
// *domain.ProviderError; once retries run out the error is a
// *retry.ExhaustedError wrapping the last of them.
func (c *HTTPClient) Get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	return retry.Do(ctx, c.config.Retry, func(ctx context.Context) ([]byte, error) {
		return c.attempt(ctx, rawURL, accept)
	})
}

// GetJSON fetches rawURL and decodes the JSON body into v.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.Get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.NewProviderError(c.config.Provider, 0, "decoding JSON response", err)
	}
	return nil
}

// GetXML fetches rawURL and decodes the XML body into v.
func (c *HTTPClient) GetXML(ctx context.Context, rawURL string, v any) error {
	body, err := c.Get(ctx, rawURL, "application/xml")
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, v); err != nil {
		return domain.NewProviderError(c.config.Provider, 0, "decoding XML response", err)
	}
	return nil
}

// attempt performs one rate-limited request. Errors that retrying cannot fix
// are marked permanent.
func (c *HTTPClient) attempt(ctx context.Context, rawURL, accept string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, retry.Permanent(fmt.Errorf("rate limiter wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Permanent(domain.NewProviderError(c.config.Provider, 0, "creating request", err))
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKeyPrefix+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return nil, retry.Permanent(err)
			}
		}
		return nil, domain.NewProviderError(c.config.Provider, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		perr := domain.NewProviderError(c.config.Provider, resp.StatusCode, string(excerpt), nil)
		if shouldRetry(resp.StatusCode) {
			return nil, perr
		}
		return nil, retry.Permanent(perr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, domain.NewProviderError(c.config.Provider, resp.StatusCode, "reading response body", err)
	}
	return body, nil
}

// shouldRetry returns true if the status code indicates we should retry.
func shouldRetry(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode < 600
}

// PathURL parses base and appends each segment as a single escaped path
// element. A slash or ".." inside a segment stays part of that segment.
func PathURL(base string, segments ...string) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	path := strings.TrimSuffix(u.Path, "/")
	rawPath := strings.TrimSuffix(u.EscapedPath(), "/")
	for _, seg := range segments {
		path += "/" + seg
		rawPath += "/" + url.PathEscape(seg)
	}
	u.Path, u.RawPath = path, rawPath
	return u, nil
}
