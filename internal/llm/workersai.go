package llm

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/helixir/research-paper-finder/internal/domain"
)

const (
	defaultWorkersAIBaseURL = "https://api.cloudflare.com/client/v4"
	defaultWorkersAIModel   = "@cf/meta/llama-3.3-70b-instruct-fp8-fast"
)

type workersAIRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type workersAIResponse struct {
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// WorkersAIConfig holds the parameters needed to create a Workers AI provider.
type WorkersAIConfig struct {
	AccountID string
	APIToken  string
	Model     string
	BaseURL   string
}

// WorkersAIProvider implements Completer using the Cloudflare Workers AI
// text generation endpoint.
type WorkersAIProvider struct {
	httpClient  *http.Client
	accountID   string
	apiToken    string
	model       string
	baseURL     string
	temperature float64
}

var _ Completer = (*WorkersAIProvider)(nil)

// NewWorkersAIProvider creates a new Workers AI completion provider.
func NewWorkersAIProvider(cfg WorkersAIConfig, temperature float64, timeout time.Duration) *WorkersAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultWorkersAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultWorkersAIModel
	}

	return &WorkersAIProvider{
		httpClient:  newHTTPClient(timeout),
		accountID:   cfg.AccountID,
		apiToken:    cfg.APIToken,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
	}
}

// Complete runs the model against prompt.
func (p *WorkersAIProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	endpoint := p.baseURL + "/accounts/" + url.PathEscape(p.accountID) + "/ai/run/" + p.model
	req := workersAIRequest{
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: p.temperature,
	}
	headers := map[string]string{"Authorization": "Bearer " + p.apiToken}

	var resp workersAIResponse
	if err := postJSON(ctx, p.httpClient, p.Provider(), endpoint, headers, req, &resp); err != nil {
		return "", err
	}

	if !resp.Success {
		msg := "request unsuccessful"
		if len(resp.Errors) > 0 && resp.Errors[0].Message != "" {
			msg = resp.Errors[0].Message
		}
		return "", domain.NewAIError(p.Provider(), http.StatusOK, msg, nil)
	}
	return checkEmpty(p.Provider(), resp.Result.Response)
}

// Provider returns the name of the LLM provider.
func (p *WorkersAIProvider) Provider() string {
	return "workersai"
}

// Model returns the model identifier being used.
func (p *WorkersAIProvider) Model() string {
	return p.model
}
