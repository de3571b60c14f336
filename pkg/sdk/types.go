package docq

// Conversation roles accepted in Ask history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior conversation turn.
type Message struct {
	Role    string
	Content string
}

// EmbeddingResult carries an embedding vector and provider usage counters.
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

// Citation points at the exact stored chunk an answer was grounded on.
type Citation struct {
	DocumentID    string
	DocumentTitle string
	ChunkIndex    int
	Snippet       string
	Similarity    float64
}

// Answer is the completion text with one citation per prompt chunk,
// in prompt order.
type Answer struct {
	Text      string
	Citations []Citation
}

// IngestResult summarizes one ingestion run. EmbeddedChunks below
// ChunkCount means the embedding provider failed and the document is
// stored but not searchable until re-ingested.
type IngestResult struct {
	DocumentID     string
	ChunkCount     int
	EmbeddedChunks int
}

// HealthReport aggregates component probe outcomes ("ok" or "error").
type HealthReport struct {
	Status string
	Checks map[string]string
}
