package pubmed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/papersources"
	"github.com/helixir/research-paper-finder/internal/retry"
)

const esearchResponseJSON = `{
  "header": {"type": "esearch", "version": "0.3"},
  "esearchresult": {"count": "2", "retmax": "2", "retstart": "0", "idlist": ["12345678", "87654321"]}
}`

const esearchEmptyResponseJSON = `{"esearchresult": {"count": "0", "idlist": []}}`

const efetchResponseXML = `<?xml version="1.0" encoding="UTF-8" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2019//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_190101.dtd">
<PubmedArticleSet>
	<PubmedArticle>
		<MedlineCitation Status="MEDLINE" Owner="NLM">
			<PMID Version="1">12345678</PMID>
			<Article PubModel="Print-Electronic">
				<Journal>
					<JournalIssue CitedMedium="Internet">
						<PubDate><Year>2023</Year><Month>Mar</Month></PubDate>
					</JournalIssue>
				</Journal>
				<ArticleTitle>CRISPR-Cas9 gene editing in <i>Drosophila</i>.</ArticleTitle>
				<Abstract>
					<AbstractText Label="BACKGROUND">CRISPR is a genome editing tool.</AbstractText>
					<AbstractText Label="RESULTS">Editing efficiency was <b>high</b>.</AbstractText>
				</Abstract>
				<AuthorList CompleteYN="Y">
					<Author ValidYN="Y"><LastName>Smith</LastName><ForeName>Jane</ForeName></Author>
					<Author ValidYN="N"><LastName>Ghost</LastName><ForeName>Invalid</ForeName></Author>
					<Author ValidYN="Y"><CollectiveName>CRISPR Consortium</CollectiveName></Author>
				</AuthorList>
				<ArticleDate DateType="Electronic"><Year>2023</Year><Month>02</Month><Day>14</Day></ArticleDate>
			</Article>
		</MedlineCitation>
	</PubmedArticle>
	<PubmedArticle>
		<MedlineCitation>
			<PMID>87654321</PMID>
			<Article>
				<Journal>
					<JournalIssue><PubDate><MedlineDate>2019 Jan-Feb</MedlineDate></PubDate></JournalIssue>
				</Journal>
				<ArticleTitle>Bare article</ArticleTitle>
			</Article>
		</MedlineCitation>
	</PubmedArticle>
	<PubmedArticle>
		<MedlineCitation>
			<PMID>11111111</PMID>
			<Article><ArticleTitle></ArticleTitle></Article>
		</MedlineCitation>
	</PubmedArticle>
</PubmedArticleSet>`

func newTestServer(t *testing.T, esearch, efetch string, efetchCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			assert.Equal(t, "pubmed", r.URL.Query().Get("db"))
			assert.Equal(t, "json", r.URL.Query().Get("retmode"))
			assert.Equal(t, "10", r.URL.Query().Get("retmax"))
			_, _ = w.Write([]byte(esearch))
		case "/efetch.fcgi":
			if efetchCalls != nil {
				efetchCalls.Add(1)
			}
			assert.Equal(t, "12345678,87654321", r.URL.Query().Get("id"))
			assert.Equal(t, "xml", r.URL.Query().Get("retmode"))
			_, _ = w.Write([]byte(efetch))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL:   baseURL,
		RateLimit: 1000,
		BurstSize: 100,
		Retry:     retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond},
	})
}

func TestNew(t *testing.T) {
	client := New(Config{})

	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
	assert.Equal(t, papersources.DefaultMaxResults, client.config.MaxResults)
	assert.Equal(t, domain.SourceTypePubMed, client.SourceType())
}

func TestClient_Fetch(t *testing.T) {
	t.Run("maps articles to canonical papers", func(t *testing.T) {
		server := newTestServer(t, esearchResponseJSON, efetchResponseXML, nil)
		defer server.Close()

		papers, err := newTestClient(server.URL).Fetch(context.Background(), "crispr")
		require.NoError(t, err)
		require.Len(t, papers, 2)

		first := papers[0]
		assert.Equal(t, "CRISPR-Cas9 gene editing in Drosophila.", first.Title)
		assert.Equal(t, "BACKGROUND: CRISPR is a genome editing tool. RESULTS: Editing efficiency was high.", first.Abstract)
		assert.Equal(t, []string{"Jane Smith", "CRISPR Consortium"}, first.Authors)
		assert.Equal(t, "2023-02-14", first.PublishedDate)
		assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/12345678/", first.URL)
		assert.Equal(t, "PubMed", first.Source)
		assert.Equal(t, 0, first.Citations)

		second := papers[1]
		assert.Equal(t, "Bare article", second.Title)
		assert.Equal(t, domain.NoAbstract, second.Abstract)
		assert.Equal(t, []string{domain.UnknownAuthor}, second.Authors)
		assert.Equal(t, "2019-01-01", second.PublishedDate)
	})

	t.Run("no PMIDs skips efetch", func(t *testing.T) {
		var efetchCalls atomic.Int32
		server := newTestServer(t, esearchEmptyResponseJSON, efetchResponseXML, &efetchCalls)
		defer server.Close()

		papers, err := newTestClient(server.URL).Fetch(context.Background(), "nonexistent")
		require.NoError(t, err)
		assert.Empty(t, papers)
		assert.Equal(t, int32(0), efetchCalls.Load())
	})

	t.Run("esearch failure is reported", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Fetch(context.Background(), "crispr")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "esearch failed")
		assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	})
}

func TestParseMonth(t *testing.T) {
	tests := map[string]time.Month{
		"":          time.January,
		"3":         time.March,
		"Mar":       time.March,
		"september": time.September,
		"13":        time.January,
		"Spring":    time.January,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseMonth(in), in)
	}
}

func TestExtractPublicationDate(t *testing.T) {
	article := Article{Journal: Journal{JournalIssue: JournalIssue{PubDate: PubDate{Year: "2021", Month: "Dec", Day: "5"}}}}
	assert.Equal(t, "2021-12-05", extractPublicationDate(article))

	assert.Empty(t, extractPublicationDate(Article{}))
}
