package llm

import (
	"context"

	"github.com/avolkov/hopweaver/internal/model"
)

// Provider defines the interface for completion backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete returns a single completion for prompt
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)

	// BatchComplete returns one completion per prompt, in prompt order.
	// A failed item surfaces as an empty string rather than failing the
	// whole batch; callers treat partial yield as routine. An error is
	// returned only when the context is cancelled or every prompt
	// failed, meaning the endpoint is effectively unreachable.
	BatchComplete(ctx context.Context, prompts []string, maxTokens int) ([]string, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Config holds provider configuration. Any OpenAI-compatible endpoint
// works: OpenAI itself, OpenRouter, or a local vLLM server via BaseURL.
type Config struct {
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   int // seconds
	MaxTokens int
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Model:     c.Model,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Timeout:   c.Timeout,
		MaxTokens: c.MaxTokens,
	}
}
