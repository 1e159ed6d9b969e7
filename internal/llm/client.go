// Package llm wraps OpenAI chat completion for answer synthesis.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go"

	"github.com/bull/docqa/internal/metrics"
)

// ErrMissingAPIKey is returned by Complete when no OpenAI client is configured.
var ErrMissingAPIKey = errors.New("OpenAI API key is missing or empty")

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = openai.ChatModelGPT3_5Turbo

	// DefaultMaxTokens is the maximum system prompt length before truncation (in tokens).
	DefaultMaxTokens = 12000
)

// Client produces chat completions. A Client built with a nil OpenAI client is
// usable but fails every call with ErrMissingAPIKey.
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewClient creates a chat completion client. An empty model selects DefaultModel.
func NewClient(client *openai.Client, model string, m *metrics.Metrics, logger *slog.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client:    client,
		model:     model,
		maxTokens: DefaultMaxTokens,
		metrics:   m,
		logger:    logger,
	}
}

// Model returns the configured chat model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one system + user message pair and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if c.client == nil {
		return "", ErrMissingAPIKey
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.truncateContent(system)),
			openai.UserMessage(user),
		},
		Model:       c.model,
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		c.metrics.ObserveCompletion("error", time.Since(start))
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	c.metrics.ObserveCompletion("ok", time.Since(start))

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// truncateContent truncates content to fit within token limits.
// Uses rough estimate of 4 characters per token.
func (c *Client) truncateContent(content string) string {
	maxChars := c.maxTokens * 4
	if len(content) <= maxChars {
		return content
	}

	c.logger.Warn("Truncating prompt",
		"from_chars", len(content), "to_chars", maxChars, "max_tokens", c.maxTokens)

	// Back off to a rune boundary.
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

