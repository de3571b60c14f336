package chunk

// Hit is a retrieved chunk with its similarity score (0-1, higher is better).
type Hit struct {
	documentID string
	content    string
	index      int
	similarity float64
}

// NewHit creates a retrieval hit.
func NewHit(documentID, content string, index int, similarity float64) Hit {
	return Hit{documentID: documentID, content: content, index: index, similarity: similarity}
}

// DocumentID returns the owning document identifier.
func (h *Hit) DocumentID() string { return h.documentID }

// Content returns the chunk text.
func (h *Hit) Content() string { return h.content }

// Index returns the chunk position within its document.
func (h *Hit) Index() int { return h.index }

// Similarity returns the raw similarity score from the search.
func (h *Hit) Similarity() float64 { return h.similarity }
