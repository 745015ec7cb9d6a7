// Package report generates the analysis report for a batch with an
// OpenAI-compatible chat completion API.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyReport is returned when the model answers with no content.
var ErrEmptyReport = errors.New("empty response from model")

// ChatClient is the part of *openai.Client the report generator uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// Client generates reports and records call latency.
type Client struct {
	chat  ChatClient
	opts  Options
	stats *Stats
	log   *slog.Logger

	backoff func(attempt int) time.Duration
}

// NewClient builds a Client talking to opts.BaseURL.
func NewClient(opts Options, stats *Stats, log *slog.Logger) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	return NewClientWithChat(openai.NewClientWithConfig(cfg), opts, stats, log)
}

// NewClientWithChat builds a Client on an existing chat client.
func NewClientWithChat(chat ChatClient, opts Options, stats *Stats, log *slog.Logger) *Client {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4000
	}
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	return &Client{chat: chat, opts: opts, stats: stats, log: log, backoff: Backoff}
}

// Stats returns the latency tracker.
func (c *Client) Stats() *Stats { return c.stats }

// Generate returns the markdown report for the combined document text.
// Rate limits and server errors are retried with backoff.
func (c *Client) Generate(ctx context.Context, combined string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(combined)},
		},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}

	c.log.Info("requesting report",
		"model", c.opts.Model,
		"prompt_tokens_est", EstimateTokens(SystemPrompt)+EstimateTokens(req.Messages[1].Content),
	)

	var lastErr error
	for attempt := range MaxRetries {
		text, err := c.call(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
		c.log.Warn("retryable report error", "attempt", attempt, "error", err)
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

func (c *Client) call(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	start := time.Now()
	resp, err := c.chat.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		c.stats.RecordFailure(elapsed)
		return "", classify(err)
	}
	c.stats.Record(elapsed)
	c.log.Info("report generated", "model", req.Model, "duration_ms", elapsed.Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", ErrEmptyReport
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyReport
	}
	return text, nil
}

// classify marks rate limits and server errors as retryable.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return &RetryableError{StatusCode: status, Err: err}
	}
	return fmt.Errorf("chat completion: %w", err)
}
