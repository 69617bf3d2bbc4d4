package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/helixir/research-paper-finder/internal/domain"
)

const (
	// anthropicAPIVersion is the Anthropic API version header value.
	anthropicAPIVersion = "2023-06-01"

	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-haiku-latest"

	// The Messages API requires max_tokens on every request.
	defaultAnthropicMaxTokens = 1024
)

// messagesRequest is the request body for the Anthropic Messages API.
type messagesRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

// anthropicMessage represents a single message in the Anthropic Messages API.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// contentBlock represents a content block in the Anthropic Messages API response.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// messagesResponse is the response body from the Anthropic Messages API.
type messagesResponse struct {
	ID         string         `json:"id"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
}

// AnthropicConfig holds the parameters needed to create an Anthropic provider.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AnthropicProvider implements Completer using the Anthropic Messages API.
type AnthropicProvider struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
}

var _ Completer = (*AnthropicProvider)(nil)

// NewAnthropicProvider creates a new Anthropic completion provider.
func NewAnthropicProvider(cfg AnthropicConfig, temperature float64, timeout time.Duration) *AnthropicProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	return &AnthropicProvider{
		httpClient:  newHTTPClient(timeout),
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
	}
}

// Complete sends prompt and returns the concatenated text blocks of the reply.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	req := messagesRequest{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature: p.temperature,
	}
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicAPIVersion,
	}

	var resp messagesResponse
	if err := postJSON(ctx, p.httpClient, p.Provider(), p.baseURL+"/v1/messages", headers, req, &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", domain.NewAIError(p.Provider(), http.StatusOK, "response contains no text content blocks", domain.ErrEmptyCompletion)
	}
	return checkEmpty(p.Provider(), sb.String())
}

// Provider returns the name of the LLM provider.
func (p *AnthropicProvider) Provider() string {
	return "anthropic"
}

// Model returns the model identifier being used.
func (p *AnthropicProvider) Model() string {
	return p.model
}
