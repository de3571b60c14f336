package domain

import "context"

// Message is a single turn in a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles accepted by the completion providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// EmbeddingResult is a single embedding with provider usage counters.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingItem is one embedding of a batch request. Index is the
// provider-reported position of the corresponding input; providers may
// return items out of input order.
type BatchEmbeddingItem struct {
	Index     int
	Embedding []float32
}

// Embedder vectorizes a single text.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes several texts in one provider request.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]BatchEmbeddingItem, error)
}

// Completer produces a chat completion for the given messages.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// HealthChecker is implemented by collaborators that can probe their upstream.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
