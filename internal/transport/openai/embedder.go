// Package openai adapts an OpenAI-compatible API to the domain's embedding
// and completion interfaces.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/docq-dev/docq/internal/domain"
	"github.com/docq-dev/docq/internal/metrics"
)

// DefaultMaxInputChars bounds one embedding input; longer texts are
// truncated before the provider call.
const DefaultMaxInputChars = 8000

// EmbedderConfig holds the embedding provider settings.
type EmbedderConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimensions    int
	MaxInputChars int
}

// Embedder calls an OpenAI-compatible embeddings endpoint.
type Embedder struct {
	client        *openai.Client
	model         openai.EmbeddingModel
	dimensions    int
	maxInputChars int
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg EmbedderConfig) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	maxChars := cfg.MaxInputChars
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}

	return &Embedder{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         openai.EmbeddingModel(cfg.Model),
		dimensions:    cfg.Dimensions,
		maxInputChars: maxChars,
	}
}

// Embed implements domain.Embedder with transport-level metrics.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	resp, err := e.createEmbeddings(ctx, []string{truncateRunes(text, e.maxInputChars)})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.model), "error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingUnavailable)
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// EmbedBatch implements domain.BatchEmbedder. The provider-reported index
// of every item is preserved so callers can match vectors back to inputs.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.BatchEmbeddingItem, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = truncateRunes(t, e.maxInputChars)
	}

	resp, err := e.createEmbeddings(ctx, inputs)
	if err != nil {
		return nil, err
	}

	items := make([]domain.BatchEmbeddingItem, 0, len(resp.Data))
	for _, d := range resp.Data {
		items = append(items, domain.BatchEmbeddingItem{Index: d.Index, Embedding: d.Embedding})
	}
	return items, nil
}

func (e *Embedder) createEmbeddings(ctx context.Context, inputs []string) (openai.EmbeddingResponse, error) {
	req := openai.EmbeddingRequest{
		Input:          inputs,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.model), "error").Inc()
		return openai.EmbeddingResponse{}, parseAPIError("embedding", err, domain.ErrEmbeddingUnavailable)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(string(e.model)).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(string(e.model), "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(string(e.model), "total").Add(float64(resp.Usage.TotalTokens))
	}

	return resp, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// truncateRunes cuts text to at most limit runes.
func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// parseAPIError extracts a human-readable error from the API response and
// wraps it with the given sentinel for status mapping.
func parseAPIError(op string, err error, sentinel error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, detail, sentinel)
		}
		return fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, string(reqErr.Body), sentinel)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}

	return fmt.Errorf("%s request failed: %w", op, sentinel)
}

// extractDetail reads the "detail" field some gateways put in error bodies.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
