package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/helixir/research-paper-finder/internal/domain"
)

// Default values for the OpenAI provider.
const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// chatRequest represents the OpenAI Chat Completions API request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatMessage represents a single message in the chat conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents the OpenAI Chat Completions API response body.
type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// chatChoice represents a single completion choice.
type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// chatUsage contains token usage information.
type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OpenAIConfig holds the parameters needed to create an OpenAI provider.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the model identifier (e.g., "gpt-4o-mini").
	Model string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

// OpenAIProvider implements Completer using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
}

var _ Completer = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI completion provider.
func NewOpenAIProvider(cfg OpenAIConfig, temperature float64, timeout time.Duration) *OpenAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIProvider{
		httpClient:  newHTTPClient(timeout),
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
	}
}

// Complete sends prompt as a single user message.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: p.temperature,
		MaxTokens:   maxTokens,
	}

	var resp chatResponse
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if err := postJSON(ctx, p.httpClient, p.Provider(), p.baseURL+"/chat/completions", headers, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewAIError(p.Provider(), http.StatusOK, "empty choices in response", domain.ErrEmptyCompletion)
	}
	return checkEmpty(p.Provider(), resp.Choices[0].Message.Content)
}

// Provider returns the name of the LLM provider.
func (p *OpenAIProvider) Provider() string {
	return "openai"
}

// Model returns the model identifier being used.
func (p *OpenAIProvider) Model() string {
	return p.model
}
