package research

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/events"
	"github.com/helixir/research-paper-finder/internal/search"
)

type fakeTerms struct {
	generateFunc func(ctx context.Context, query string) []string
	queries      []string
}

func (f *fakeTerms) Generate(ctx context.Context, query string) []string {
	f.queries = append(f.queries, query)
	return f.generateFunc(ctx, query)
}

type fakeSearcher struct {
	papers []domain.Paper
	health map[string]bool
	terms  [][]string
}

func (f *fakeSearcher) SearchPapers(_ context.Context, terms []string) []domain.Paper {
	f.terms = append(f.terms, terms)
	return domain.ClonePapers(f.papers)
}

func (f *fakeSearcher) HealthCheck(context.Context) map[string]bool { return f.health }

func (f *fakeSearcher) Stats() search.Stats {
	return search.Stats{MaxConcurrentSearches: 3, Providers: []string{"arXiv"}}
}

type fakeSummarizer struct {
	got []domain.Paper
}

func (f *fakeSummarizer) Summarize(_ context.Context, query string, papers []domain.Paper) string {
	f.got = papers
	return "summary of " + query
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func manyPapers(n int) []domain.Paper {
	papers := make([]domain.Paper, n)
	for i := range papers {
		source := "arXiv"
		if i%2 == 1 {
			source = "PubMed"
		}
		papers[i] = domain.Paper{Title: strings.Repeat("p", i+1), Authors: []string{"a"}, Source: source}
	}
	return papers
}

func newTestService(searcher *fakeSearcher, publisher *recordingPublisher) (*Service, *fakeTerms, *fakeSummarizer) {
	terms := &fakeTerms{generateFunc: func(_ context.Context, q string) []string { return strings.Fields(q) }}
	summarizer := &fakeSummarizer{}
	var pub events.Publisher
	if publisher != nil {
		pub = publisher
	}
	svc := NewService(Config{}, terms, searcher, summarizer, pub, zerolog.Nop())
	return svc, terms, summarizer
}

func TestService_Search(t *testing.T) {
	publisher := &recordingPublisher{}
	searcher := &fakeSearcher{papers: manyPapers(25)}
	svc, terms, _ := newTestService(searcher, publisher)

	resp, err := svc.Search(context.Background(), "  deep <b>learning</b>  ")

	require.NoError(t, err)
	assert.Equal(t, "deep blearning/b", resp.Query)
	assert.Equal(t, []string{"deep blearning/b"}, terms.queries)
	assert.Equal(t, []string{"deep", "blearning/b"}, resp.SearchTerms)
	assert.Len(t, resp.Papers, DefaultMaxTotalPapers)
	assert.NotEqual(t, uuid.Nil, resp.SearchID)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, domain.EventTypeSearchCompleted, event.EventType)
	assert.Equal(t, resp.SearchID.String(), event.AggregateID)

	var payload domain.SearchCompletedPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, DefaultMaxTotalPapers, payload.PapersFound)
	assert.Equal(t, []string{"arXiv", "PubMed"}, payload.Sources)
}

func TestService_SearchInvalidQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	svc, terms, _ := newTestService(searcher, nil)

	_, err := svc.Search(context.Background(), "   ")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, terms.queries)
	assert.Empty(t, searcher.terms)
}

func TestService_SearchEmptyResultIsNotAnError(t *testing.T) {
	svc, _, _ := newTestService(&fakeSearcher{}, nil)

	resp, err := svc.Search(context.Background(), "obscure topic")
	require.NoError(t, err)
	require.NotNil(t, resp.Papers)
	assert.Empty(t, resp.Papers)
}

func TestService_PublishFailureDoesNotFailRequest(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("kafka down")}
	svc, _, _ := newTestService(&fakeSearcher{papers: manyPapers(2)}, publisher)

	resp, err := svc.Search(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, resp.Papers, 2)
}

func TestService_Chat(t *testing.T) {
	publisher := &recordingPublisher{}
	svc, _, summarizer := newTestService(&fakeSearcher{papers: manyPapers(15)}, publisher)

	resp, err := svc.Chat(context.Background(), "protein folding")

	require.NoError(t, err)
	assert.Equal(t, "summary of protein folding", resp.Response)
	assert.Len(t, resp.Papers, DefaultMaxChatPapers)
	assert.Len(t, summarizer.got, 15, "summary sees the full result set")
	require.Len(t, publisher.events, 1)
	assert.Equal(t, domain.EventTypeChatCompleted, publisher.events[0].EventType)
}

func TestService_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		svc, _, _ := newTestService(&fakeSearcher{health: map[string]bool{"arXiv": true, "PubMed": true}}, nil)
		report := svc.Health(context.Background())
		assert.Equal(t, StatusHealthy, report.Status)
		assert.False(t, report.Timestamp.IsZero())
	})

	t.Run("degraded", func(t *testing.T) {
		svc, _, _ := newTestService(&fakeSearcher{health: map[string]bool{"arXiv": true, "PubMed": false}}, nil)
		report := svc.Health(context.Background())
		assert.Equal(t, StatusDegraded, report.Status)
		assert.Equal(t, map[string]bool{"arXiv": true, "PubMed": false}, report.Services)
	})
}

func TestService_Terms(t *testing.T) {
	svc, _, _ := newTestService(&fakeSearcher{}, nil)

	terms, err := svc.Terms(context.Background(), "machine learning")
	require.NoError(t, err)
	assert.Equal(t, []string{"machine", "learning"}, terms)

	_, err = svc.Terms(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    string
		wantErr bool
	}{
		{"trims", "  crispr  ", "crispr", false},
		{"strips angle brackets", "<script>alert(1)</script>", "scriptalert(1)/script", false},
		{"strips script scheme", "JavaScript:alert(1) genomics", "alert(1) genomics", false},
		{"empty", "", "", true},
		{"only markup", " <> ", "", true},
		{"max length", strings.Repeat("a", 500), strings.Repeat("a", 500), false},
		{"too long", strings.Repeat("a", 501), "", true},
		{"multibyte counted as characters", strings.Repeat("é", 500), strings.Repeat("é", 500), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateQuery(tt.query, DefaultMaxQueryLength)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
