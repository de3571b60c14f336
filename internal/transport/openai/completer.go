package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/docq-dev/docq/internal/domain"
	"github.com/docq-dev/docq/internal/metrics"
)

// CompleterConfig holds the completion provider settings.
type CompleterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Completer calls an OpenAI-compatible chat completions endpoint.
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Complete implements domain.Completer with transport-level metrics.
func (c *Completer) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages:    toChatMessages(messages),
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", parseAPIError("completion", err, domain.ErrCompletionUnavailable)
	}

	if len(resp.Choices) == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrCompletionUnavailable)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.CompletionTokensTotal.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.CompletionTokensTotal.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func toChatMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
