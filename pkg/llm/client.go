// Package llm provides OpenAI-compatible completion client functionality
// for metadata suggestion prompts.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// CompletionClient is the interface consumed by suggestion services.
// Use this interface for dependency injection and testing.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for creating a completion client.
type Config struct {
	Endpoint    string  // Base URL, e.g. "https://api.openai.com/v1"
	Model       string  // Model name
	APIKey      string  // Optional for local endpoints
	Temperature float64
}

// Client provides access to OpenAI-compatible completion endpoints.
type Client struct {
	client      *openai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

var _ CompletionClient = (*Client)(nil)

// NewClient creates a new OpenAI-compatible completion client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.Named("llm"),
	}, nil
}

// systemMessage frames every metadata suggestion request.
const systemMessage = "You are a metadata steward assistant for a data governance catalog. " +
	"Respond with a single JSON object and no additional commentary."

// Complete generates a single chat completion for the prompt and returns
// the raw response text. Failures are classified into *Error.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("Completion request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(c.temperature),
	})
	if err != nil {
		c.logger.Error("Completion request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Type: ErrorTypeResponse, Message: "no choices in response"}
	}

	c.logger.Info("Completion request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}
