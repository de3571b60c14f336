package chunk

import (
	"fmt"
	"strings"
)

// Chunk is one retrievable unit of a document's text (immutable value object).
// The embedding may be absent when the embedding step failed or was skipped;
// such chunks are stored but unreachable by similarity search.
type Chunk struct {
	documentID string
	tenantID   string
	content    string
	index      int
	embedding  []float32
}

// New validates and creates a Chunk.
// Content must be non-empty after trimming; empty chunks are dropped at build time.
func New(documentID, tenantID, content string, index int) (Chunk, error) {
	if documentID == "" {
		return Chunk{}, fmt.Errorf("document ID is required")
	}
	if tenantID == "" {
		return Chunk{}, fmt.Errorf("tenant ID is required")
	}
	if strings.TrimSpace(content) == "" {
		return Chunk{}, fmt.Errorf("content is required")
	}
	if index < 0 {
		return Chunk{}, fmt.Errorf("index must be non-negative")
	}
	return Chunk{documentID: documentID, tenantID: tenantID, content: content, index: index}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(documentID, tenantID, content string, index int, embedding []float32) Chunk {
	return Chunk{
		documentID: documentID, tenantID: tenantID,
		content: content, index: index, embedding: embedding,
	}
}

// DocumentID returns the owning document identifier.
func (c *Chunk) DocumentID() string { return c.documentID }

// TenantID returns the owning tenant identifier.
func (c *Chunk) TenantID() string { return c.tenantID }

// Content returns the chunk text.
func (c *Chunk) Content() string { return c.content }

// Index returns the zero-based position within the document's chunk list.
func (c *Chunk) Index() int { return c.index }

// Embedding returns the embedding vector, nil when absent.
func (c *Chunk) Embedding() []float32 { return c.embedding }

// HasEmbedding reports whether the chunk is reachable by similarity search.
func (c *Chunk) HasEmbedding() bool { return len(c.embedding) > 0 }

// SetEmbedding sets the vector in place (mutation).
func (c *Chunk) SetEmbedding(v []float32) { c.embedding = v }
