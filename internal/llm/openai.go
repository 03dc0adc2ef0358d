package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
)

// batchWorkers caps concurrent completion calls within one batch
const batchWorkers = 4

// OpenAIProvider implements Provider against the OpenAI chat API or any
// compatible server.
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI-compatible provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" && config.BaseURL == "" {
		return nil, fmt.Errorf("LLM API key or base URL is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the endpoint answers a lightweight request
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Complete returns a single chat completion for prompt
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1024
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BatchComplete runs Complete for each prompt with bounded concurrency.
// Results keep prompt order; individual failures yield empty strings.
// When every prompt fails the endpoint is treated as down and an error
// is returned, so callers never mistake a total outage for an empty
// yield.
func (p *OpenAIProvider) BatchComplete(ctx context.Context, prompts []string, maxTokens int) ([]string, error) {
	results := make([]string, len(prompts))
	errs := make([]error, len(prompts))

	sem := make(chan struct{}, batchWorkers)
	var wg sync.WaitGroup

	for i, prompt := range prompts {
		wg.Add(1)
		go func(i int, prompt string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out, err := p.Complete(ctx, prompt, maxTokens)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = out
		}(i, prompt)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	failed := 0
	var first error
	for _, err := range errs {
		if err != nil {
			failed++
			if first == nil {
				first = err
			}
		}
	}
	if len(prompts) > 0 && failed == len(prompts) {
		return results, fmt.Errorf("all %d completions failed: %w", failed, first)
	}
	return results, nil
}
