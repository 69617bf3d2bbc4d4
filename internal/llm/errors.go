package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/helixir/research-paper-finder/internal/domain"
)

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 10 << 20

// apiErrorEnvelope covers the error bodies returned by the supported APIs.
// OpenAI and Anthropic use {"error": {...}}, Workers AI uses {"errors": [...]}.
type apiErrorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// parseAPIError turns a non-2xx response into a *domain.AIError.
func parseAPIError(provider string, statusCode int, body []byte) *domain.AIError {
	message := strings.TrimSpace(string(body))

	var env apiErrorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Error != nil && env.Error.Message != "":
			message = env.Error.Message
			if env.Error.Type != "" {
				message = env.Error.Type + ": " + message
			}
		case len(env.Errors) > 0 && env.Errors[0].Message != "":
			message = env.Errors[0].Message
		}
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return domain.NewAIError(provider, statusCode, message, nil)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// postJSON sends payload to endpoint and decodes a 200 response into out.
// Every failure is reported as a *domain.AIError for provider.
func postJSON(ctx context.Context, client *http.Client, provider, endpoint string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.NewAIError(provider, 0, "marshaling request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.NewAIError(provider, 0, "creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return domain.NewAIError(provider, 0, fmt.Sprintf("request failed: %v", err), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.NewAIError(provider, 0, "reading response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(provider, resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		// A malformed 200 body will not improve on retry.
		return domain.NewAIError(provider, resp.StatusCode, "decoding response", err)
	}
	return nil
}
