// Package llm provides the AI text-completion collaborator used to derive
// search terms and summarize results. Each provider performs exactly one
// HTTP attempt per call; callers decide whether to retry through the retry
// package, using IsTransient to tell retryable failures apart.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/helixir/research-paper-finder/internal/domain"
)

// Completer turns a prompt into free text.
type Completer interface {
	// Complete sends prompt with a token budget and returns the reply text.
	// Failures are *domain.AIError values; an empty reply is reported as
	// domain.ErrEmptyCompletion.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)

	// Provider returns the name of the LLM provider.
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}

// IsTransient reports whether a failed completion may succeed on retry.
// AI errors defer to domain.AIError.IsTransient; empty completions and
// context cancellation are never transient; anything else is assumed to be
// a transport failure and retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, domain.ErrEmptyCompletion) {
		return false
	}
	var aiErr *domain.AIError
	if errors.As(err, &aiErr) {
		return aiErr.IsTransient()
	}
	return true
}

// checkEmpty returns ErrEmptyCompletion wrapped in an AIError when text is blank.
func checkEmpty(provider, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.NewAIError(provider, 0, "empty completion", domain.ErrEmptyCompletion)
	}
	return text, nil
}
