package llm

import (
	"fmt"
	"strings"
	"time"
)

// Supported provider names.
const (
	ProviderNone      = "none"
	ProviderWorkersAI = "workersai"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// FactoryConfig holds the parameters needed to create a Completer.
// This is defined in the llm package to avoid importing the config package.
type FactoryConfig struct {
	// Provider is the LLM provider name. Empty or "none" disables AI.
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	AccountID   string
	Temperature float64
	Timeout     time.Duration
}

// NewCompleter creates a Completer based on the configuration. It returns
// (nil, nil) when AI is disabled so callers fall back to deterministic paths.
func NewCompleter(cfg FactoryConfig) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderNone:
		return nil, nil
	case ProviderWorkersAI:
		if cfg.AccountID == "" || cfg.APIKey == "" {
			return nil, fmt.Errorf("workersai provider requires account id and api token")
		}
		return NewWorkersAIProvider(WorkersAIConfig{
			AccountID: cfg.AccountID,
			APIToken:  cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
		}, cfg.Temperature, cfg.Timeout), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}, cfg.Temperature, cfg.Timeout), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}, cfg.Temperature, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
