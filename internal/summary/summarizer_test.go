package summary

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/helixir/research-paper-finder/internal/cache"
	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/retry"
)

type fakeCompleter struct {
	completeFunc func(ctx context.Context, prompt string, maxTokens int) (string, error)
	calls        atomic.Int32
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.calls.Add(1)
	return f.completeFunc(ctx, prompt, maxTokens)
}

func (f *fakeCompleter) Provider() string { return "fake" }
func (f *fakeCompleter) Model() string    { return "fake-model" }

func testPapers() []domain.Paper {
	return []domain.Paper{
		{Title: "Paper One", Authors: []string{"A. Author", "B. Author"}, Citations: 12, Source: "arXiv"},
		{Title: "Paper Two", Authors: []string{"C. Author"}, Citations: 3, Source: "PubMed"},
		{Title: "Paper Three", Authors: []string{"D. Author"}, Citations: 0, Source: "arXiv"},
	}
}

func TestFallback(t *testing.T) {
	got := Fallback("crispr", testPapers())

	assert.Equal(t, `I found 3 research papers related to "crispr". The top results include papers from arXiv, PubMed. `+
		`These papers cover various aspects of the topic and provide valuable insights for further research.`, got)
}

func TestPrompt(t *testing.T) {
	papers := testPapers()
	for i := 0; i < 4; i++ {
		papers = append(papers, domain.Paper{Title: "Extra", Authors: []string{"X"}, Source: "CORE"})
	}

	prompt := Prompt("gene editing", papers)

	assert.Contains(t, prompt, `Based on the research query "gene editing", I found 7 relevant research papers.`)
	assert.Contains(t, prompt, `1. "Paper One" by A. Author, B. Author (12 citations, arXiv)`)
	assert.Contains(t, prompt, `5. "Extra" by X (0 citations, CORE)`)
	assert.NotContains(t, prompt, "6. ")
}

func TestSummarizer_DisabledAI(t *testing.T) {
	s := NewSummarizer(Config{}, nil, nil, nil, zerolog.Nop())

	assert.Equal(t, Fallback("q", testPapers()), s.Summarize(context.Background(), "q", testPapers()))
}

func TestSummarizer_CachesCompletion(t *testing.T) {
	completer := &fakeCompleter{completeFunc: func(ctx context.Context, prompt string, maxTokens int) (string, error) {
		assert.Equal(t, DefaultMaxTokens, maxTokens)
		return "  The field is moving fast.  ", nil
	}}
	c := cache.New(cache.DefaultConfig())
	s := NewSummarizer(Config{Retry: retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond}}, completer, c, nil, zerolog.Nop())

	first := s.Summarize(context.Background(), "q", testPapers())
	second := s.Summarize(context.Background(), "q", testPapers())

	assert.Equal(t, "The field is moving fast.", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), completer.calls.Load())
	assert.True(t, c.Has("ai_response:q:3"))
}

func TestSummarizer_FailureUsesFallback(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int32
	}{
		{"transient", domain.NewAIError("fake", http.StatusBadGateway, "bad gateway", nil), 2},
		{"permanent", domain.NewAIError("fake", http.StatusForbidden, "forbidden", nil), 1},
		{"empty", domain.NewAIError("fake", 0, "empty completion", domain.ErrEmptyCompletion), 1},
		{"transport", errors.New("connection refused"), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{completeFunc: func(context.Context, string, int) (string, error) {
				return "", tt.err
			}}
			c := cache.New(cache.DefaultConfig())
			s := NewSummarizer(Config{Retry: retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}}, completer, c, nil, zerolog.Nop())

			got := s.Summarize(context.Background(), "q", testPapers())

			assert.Equal(t, Fallback("q", testPapers()), got)
			assert.Equal(t, tt.wantCalls, completer.calls.Load())
			assert.Equal(t, 0, c.Len())
		})
	}
}

func TestSummarizer_BlankCompletionNotCached(t *testing.T) {
	replies := []string{"  \n ", "real summary"}
	completer := &fakeCompleter{completeFunc: func(context.Context, string, int) (string, error) {
		return replies[0], nil
	}}
	c := cache.New(cache.DefaultConfig())
	s := NewSummarizer(Config{Retry: retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}}, completer, c, nil, zerolog.Nop())

	first := s.Summarize(context.Background(), "q", testPapers())
	assert.Equal(t, Fallback("q", testPapers()), first)
	assert.Equal(t, int32(1), completer.calls.Load())
	assert.False(t, c.Has(CacheKey("q", 3)))

	replies = replies[1:]
	second := s.Summarize(context.Background(), "q", testPapers())
	assert.Equal(t, "real summary", second)
	assert.True(t, c.Has(CacheKey("q", 3)))
}
