package llm

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
)

func newOpenAITestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-api-key",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL,
	}, 0.3, 10*time.Second)
}

func TestOpenAIProvider_Complete(t *testing.T) {
	t.Parallel()

	var received chatRequest
	var auth, path string
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse{
			ID: "chatcmpl-abc123",
			Choices: []chatChoice{{
				Message:      chatMessage{Role: "assistant", Content: "machine learning\nneural networks"},
				FinishReason: "stop",
			}},
		})
	})

	text, err := provider.Complete(context.Background(), "derive terms", 150)

	require.NoError(t, err)
	assert.Equal(t, "machine learning\nneural networks", text)
	assert.Equal(t, "Bearer test-api-key", auth)
	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "gpt-4o-mini", received.Model)
	assert.Equal(t, 150, received.MaxTokens)
	assert.InDelta(t, 0.3, received.Temperature, 1e-9)
	require.Len(t, received.Messages, 1)
	assert.Equal(t, "user", received.Messages[0].Role)
	assert.Equal(t, "derive terms", received.Messages[0].Content)
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	t.Parallel()

	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	_, err := provider.Complete(context.Background(), "p", 10)
	require.ErrorIs(t, err, domain.ErrEmptyCompletion)
	assert.False(t, IsTransient(err))
}

func TestOpenAIProvider_APIError(t *testing.T) {
	t.Parallel()

	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	})

	_, err := provider.Complete(context.Background(), "p", 10)

	var aiErr *domain.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, "openai", aiErr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, aiErr.StatusCode)
	assert.Contains(t, aiErr.Message, "Rate limit reached")
	assert.True(t, IsTransient(err))
}

func TestOpenAIProvider_MalformedBody(t *testing.T) {
	t.Parallel()

	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := provider.Complete(context.Background(), "p", 10)
	var aiErr *domain.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.False(t, IsTransient(err))
}
