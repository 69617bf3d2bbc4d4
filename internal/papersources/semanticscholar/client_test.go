package semanticscholar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/papersources"
	"github.com/helixir/research-paper-finder/internal/retry"
)

func intPtr(v int) *int { return &v }

func newTestClient(baseURL, apiKey string) *Client {
	return NewClient(Config{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		RateLimit: 1000,
		BurstSize: 100,
		Retry:     retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond},
	}, nil)
}

func TestNewClient(t *testing.T) {
	t.Run("creates client with default values", func(t *testing.T) {
		client := NewClient(Config{}, nil)

		require.NotNil(t, client)
		assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
		assert.Equal(t, DefaultTimeout, client.config.Timeout)
		assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
		assert.Equal(t, DefaultBurstSize, client.config.BurstSize)
		assert.Equal(t, papersources.DefaultMaxResults, client.config.MaxResults)
		assert.Equal(t, domain.SourceTypeSemanticScholar, client.SourceType())
	})

	t.Run("uses provided HTTP client", func(t *testing.T) {
		httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{RateLimit: 100, BurstSize: 50})
		client := NewClient(Config{}, httpClient)

		assert.Equal(t, httpClient, client.httpClient)
	})
}

func TestClient_Fetch(t *testing.T) {
	t.Run("successful search returns papers", func(t *testing.T) {
		response := SearchResponse{
			Total: 2,
			Data: []PaperResult{
				{
					PaperID:         "abc123",
					Title:           "CRISPR Gene Editing: A Review",
					Abstract:        "This paper reviews CRISPR technology.",
					PublicationDate: "2023-03-15",
					Authors:         []Author{{Name: "Jane Smith"}, {Name: "John Doe"}},
					URL:             "https://www.semanticscholar.org/paper/abc123",
					CitationCount:   intPtr(150),
				},
				{
					PaperID: "def456",
					Title:   "Sparse Record",
					Year:    2019,
				},
			},
		}

		var gotKey, gotQuery, gotLimit string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/paper/search", r.URL.Path)
			gotKey = r.Header.Get("x-api-key")
			gotQuery = r.URL.Query().Get("query")
			gotLimit = r.URL.Query().Get("limit")
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(response)
		}))
		defer server.Close()

		papers, err := newTestClient(server.URL, "secret").Fetch(context.Background(), "CRISPR gene editing")
		require.NoError(t, err)
		require.Len(t, papers, 2)

		assert.Equal(t, "secret", gotKey)
		assert.Equal(t, "CRISPR gene editing", gotQuery)
		assert.Equal(t, "10", gotLimit)

		first := papers[0]
		assert.Equal(t, "CRISPR Gene Editing: A Review", first.Title)
		assert.Equal(t, []string{"Jane Smith", "John Doe"}, first.Authors)
		assert.Equal(t, "2023-03-15", first.PublishedDate)
		assert.Equal(t, 150, first.Citations)
		assert.Equal(t, "Semantic Scholar", first.Source)

		sparse := papers[1]
		assert.Equal(t, domain.NoAbstract, sparse.Abstract)
		assert.Equal(t, []string{domain.UnknownAuthor}, sparse.Authors)
		assert.Equal(t, "2019-01-01", sparse.PublishedDate)
		assert.Equal(t, 0, sparse.Citations)
		assert.Equal(t, "https://www.semanticscholar.org/paper/def456", sparse.URL)
	})

	t.Run("no API key header when unset", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("x-api-key"))
			_, _ = w.Write([]byte(`{"total":0,"data":[]}`))
		}))
		defer server.Close()

		papers, err := newTestClient(server.URL, "").Fetch(context.Background(), "nothing")
		require.NoError(t, err)
		assert.Empty(t, papers)
	})

	t.Run("rate limited response is reported", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, "").Fetch(context.Background(), "q")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrRateLimited)
		assert.ErrorIs(t, err, retry.ErrExhausted)
	})
}
