package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/research"
)

// TestInjectionPayloads_QueryField verifies that hostile payloads in the
// query field are passed through as opaque data and never cause a 500.
func TestInjectionPayloads_QueryField(t *testing.T) {
	payloads := []struct {
		name  string
		query string
	}{
		{"drop table", "'; DROP TABLE papers; --"},
		{"boolean tautology", "1 OR 1=1"},
		{"union select", "' UNION SELECT * FROM users --"},
		{"nested quotes", "'' OR ''='"},
		{"batch separator", "query\nGO\nDROP TABLE papers"},
		{"template injection", "{{.Env}} ${jndi:ldap://x}"},
		{"null byte", "graphs\x00neural"},
	}

	for _, tc := range payloads {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{}
			srv := newTestServer(svc)

			rr := postJSON(t, srv, "/search", map[string]string{"query": tc.query})

			assert.NotEqual(t, http.StatusInternalServerError, rr.Code, rr.Body.String())
			require.Len(t, svc.queries, 1)
			assert.Equal(t, tc.query, svc.queries[0])
		})
	}
}

// TestXSSPayloads_QueryField runs script-bearing queries through the real
// query validation and checks no markup reaches the service result.
func TestXSSPayloads_QueryField(t *testing.T) {
	payloads := []struct {
		name  string
		query string
		want  string
	}{
		{"script tag", "<script>alert(1)</script>graphs", "scriptalert(1)/scriptgraphs"},
		{"img onerror", `<img src=x onerror=alert(1)>`, "img src=x onerror=alert(1)"},
		{"javascript url", "javascript:alert(1)", "alert(1)"},
		{"mixed case scheme", "JaVaScRiPt:void(0) papers", "void(0) papers"},
	}

	for _, tc := range payloads {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{
				searchFn: func(_ context.Context, query string) (*research.SearchResponse, error) {
					cleaned, err := research.ValidateQuery(query, research.DefaultMaxQueryLength)
					if err != nil {
						return nil, err
					}
					return &research.SearchResponse{
						SearchID:    uuid.New(),
						Query:       cleaned,
						Papers:      []domain.Paper{},
						SearchTerms: []string{cleaned},
					}, nil
				},
			}
			srv := newTestServer(svc)

			rr := postJSON(t, srv, "/search", map[string]string{"query": tc.query})

			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			body := rr.Body.String()
			assert.NotContains(t, body, "<script")
			assert.NotContains(t, strings.ToLower(body), "javascript:")
			assert.Contains(t, body, tc.want)
		})
	}
}

// TestXSSPayloads_OnlyMarkup checks that a query consisting solely of markup
// is rejected once stripped.
func TestXSSPayloads_OnlyMarkup(t *testing.T) {
	svc := &fakeService{
		searchFn: func(_ context.Context, query string) (*research.SearchResponse, error) {
			_, err := research.ValidateQuery(query, research.DefaultMaxQueryLength)
			return nil, err
		},
	}
	srv := newTestServer(svc)

	for _, q := range []string{"<>", " < > ", "javascript:", "<javascript:>"} {
		rr := postJSON(t, srv, "/search", map[string]string{"query": q})
		assert.Equal(t, http.StatusBadRequest, rr.Code, "query %q", q)
	}
}

// TestWriteServiceError_NeverLeaksInternals verifies that non-validation
// errors are reported with a fixed message.
func TestWriteServiceError_NeverLeaksInternals(t *testing.T) {
	secrets := []error{
		errors.New("pq: password authentication failed for user \"admin\""),
		fmt.Errorf("call provider: %w", domain.NewProviderError("arXiv", 502, "upstream body: secret-token-123", nil)),
		domain.NewAIError("openai", 401, "Incorrect API key provided: sk-abc***", nil),
		context.DeadlineExceeded,
	}

	for _, err := range secrets {
		t.Run(err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeServiceError(rr, err)

			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			body := rr.Body.String()
			assert.Contains(t, body, "internal server error")
			assert.NotContains(t, body, "password")
			assert.NotContains(t, body, "secret-token")
			assert.NotContains(t, body, "sk-abc")
			assert.NotContains(t, body, "deadline")
		})
	}
}

func TestWriteServiceError_ValidationMessagesSurface(t *testing.T) {
	rr := httptest.NewRecorder()
	writeServiceError(rr, fmt.Errorf("search: %w", domain.NewValidationError("query", "query cannot be empty")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "query cannot be empty")

	rr = httptest.NewRecorder()
	writeServiceError(rr, fmt.Errorf("wrapped: %w", domain.ErrInvalidInput))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid input")
}

// TestOversizedHeaders_RequestID verifies hostile request IDs never echo back.
func TestOversizedHeaders_RequestID(t *testing.T) {
	srv := newTestServer(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, strings.Repeat("<script>", 50))
	rr := serveHTTP(srv, req)

	assert.NotContains(t, rr.Header().Get(headerRequestID), "<script>")
}
