package programgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 4000

	maxRetries     = 2
	requestTimeout = 120 * time.Second
)

// Completer turns a single user prompt into model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient creates a Messages API client. Empty baseURL, model
// or a non-positive maxTokens fall back to the package defaults.
func NewAnthropicClient(apiKey, baseURL, model string, maxTokens int) *AnthropicClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &AnthropicClient{
		client: anthropic.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
			option.WithMaxRetries(maxRetries),
			option.WithRequestTimeout(requestTimeout),
		),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Complete sends prompt as a single user message and returns the text of
// the first content block. Connection errors, 429 and 5xx responses are
// retried by the SDK.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("messages request failed (status %d): %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("messages request: %w", err)
	}
	if len(msg.Content) == 0 || msg.Content[0].Type != "text" {
		return "", fmt.Errorf("unexpected response content from model")
	}
	return msg.Content[0].Text, nil
}
