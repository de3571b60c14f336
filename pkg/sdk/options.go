package docq

import (
	"context"

	"go.uber.org/zap"
)

// Embedder vectorizes text. Single calls serve questions, batch calls
// serve document ingestion.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	EmbedBatch(ctx context.Context, texts []string) ([]BatchEmbeddingItem, error)
}

// Completer generates the grounded answer from chat messages.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "memory" or "redis"
	addrs    []string
	username string
	password string
	db       int

	openAIKey     string
	openAIBaseURL string
	embedder      Embedder
	completer     Completer

	embeddingModel  string
	completionModel string
	vectorDim       int

	maxChunkSize int
	overlap      int

	logger *zap.Logger
}

// WithRedis stores chunks in a Redis instance with the search module.
// The default is an embedded in-memory store.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithOpenAI builds the embedding and completion providers from one
// OpenAI API key with the default models.
func WithOpenAI(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
	})
}

// WithBaseURL points the OpenAI providers at a compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIBaseURL = baseURL
	})
}

// WithModels overrides the embedding and completion model names used
// with WithOpenAI. Empty strings keep the defaults.
func WithModels(embedding, completion string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = embedding
		c.completionModel = completion
	})
}

// WithEmbedder sets a custom embedding provider. Takes precedence over
// WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCompleter sets a custom completion provider. Takes precedence over
// WithOpenAI.
func WithCompleter(cp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cp
	})
}

// WithVectorDimensions sets the stored vector dimension.
// Defaults to 1536 (text-embedding-3-small).
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDim = dim
	})
}

// WithChunking sets the chunk size limit and overlap in characters.
// Defaults: 800/100.
func WithChunking(maxChunkSize, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxChunkSize = maxChunkSize
		c.overlap = overlap
	})
}

// WithLogger sets the logger used for ingestion warnings.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// AskOption tunes one Ask call.
type AskOption func(*askParams)

type askParams struct {
	history        []Message
	matchCount     int
	matchThreshold float64
}

// WithHistory passes prior conversation turns, oldest first.
func WithHistory(history []Message) AskOption {
	return func(p *askParams) { p.history = history }
}

// WithMatchCount caps the number of retrieved chunks (default 10, max 50).
// Zero means "use the default".
func WithMatchCount(n int) AskOption {
	return func(p *askParams) { p.matchCount = n }
}

// WithMatchThreshold sets the strict similarity floor (default 0.2).
// Zero means "use the default"; pass a small positive value to include
// every positively-similar chunk.
func WithMatchThreshold(t float64) AskOption {
	return func(p *askParams) { p.matchThreshold = t }
}
