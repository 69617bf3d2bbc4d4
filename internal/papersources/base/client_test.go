package base

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/retry"
)

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL:   baseURL,
		RateLimit: 1000,
		BurstSize: 100,
		Retry:     retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond},
	})
}

func TestClient_Fetch(t *testing.T) {
	var query, format, num, fn string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("query")
		format = r.URL.Query().Get("format")
		num = r.URL.Query().Get("num")
		fn = r.URL.Query().Get("func")
		_, _ = w.Write([]byte(`{"results": [
			{"title": "Soil microbiomes", "abstract": "Microbial soil study.", "author": ["Ola Nordmann", "Kari Hansen"], "year": "2020", "url": "https://repo.example/soil"},
			{"title": "Single author record", "author": "Lone Writer", "year": 2011, "link": "https://repo.example/lone"},
			{"title": "Linkless"}
		]}`))
	}))
	defer server.Close()

	papers, err := newTestClient(server.URL).Fetch(context.Background(), "soil microbiome")
	require.NoError(t, err)
	require.Len(t, papers, 3)

	assert.Equal(t, "soil microbiome", query)
	assert.Equal(t, "json", format)
	assert.Equal(t, "10", num)
	assert.Equal(t, "cgiwrap_basesearch", fn)

	assert.Equal(t, []string{"Ola Nordmann", "Kari Hansen"}, papers[0].Authors)
	assert.Equal(t, "2020-01-01", papers[0].PublishedDate)
	assert.Equal(t, "https://repo.example/soil", papers[0].URL)
	assert.Equal(t, "BASE", papers[0].Source)

	assert.Equal(t, []string{"Lone Writer"}, papers[1].Authors)
	assert.Equal(t, "2011-01-01", papers[1].PublishedDate)
	assert.Equal(t, "https://repo.example/lone", papers[1].URL)

	assert.Equal(t, "https://www.base-search.net/", papers[2].URL)
	assert.Equal(t, domain.NoAbstract, papers[2].Abstract)
}

func TestClient_FetchMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Fetch(context.Background(), "x")
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "BASE", perr.Provider)
}
