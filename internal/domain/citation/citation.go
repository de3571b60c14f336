package citation

import "github.com/docq-dev/docq/internal/domain/chunk"

const (
	// SnippetLimit is the maximum snippet length in runes before truncation.
	SnippetLimit = 200
	// DefaultTitle is used when a document's title cannot be resolved.
	DefaultTitle = "Untitled"

	ellipsis = "…"
)

// Citation points a user at the exact chunk an answer was grounded on.
// Ephemeral and query-scoped; never persisted.
type Citation struct {
	documentID    string
	documentTitle string
	chunkIndex    int
	snippet       string
	similarity    float64
}

// FromHit builds a citation from a retrieval hit. An empty title resolves
// to DefaultTitle; the snippet is the first SnippetLimit runes of the chunk
// content with an ellipsis appended when truncated.
func FromHit(h chunk.Hit, title string) Citation {
	if title == "" {
		title = DefaultTitle
	}
	return Citation{
		documentID:    h.DocumentID(),
		documentTitle: title,
		chunkIndex:    h.Index(),
		snippet:       Snippet(h.Content()),
		similarity:    h.Similarity(),
	}
}

// Snippet truncates content to SnippetLimit runes, appending an ellipsis
// when anything was cut.
func Snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= SnippetLimit {
		return content
	}
	return string(runes[:SnippetLimit]) + ellipsis
}

// DocumentID returns the cited document identifier.
func (c *Citation) DocumentID() string { return c.documentID }

// DocumentTitle returns the resolved document title.
func (c *Citation) DocumentTitle() string { return c.documentTitle }

// ChunkIndex returns the cited chunk's position within its document.
func (c *Citation) ChunkIndex() int { return c.chunkIndex }

// Snippet returns the content snippet.
func (c *Citation) Snippet() string { return c.snippet }

// Similarity returns the raw similarity score of the cited chunk.
func (c *Citation) Similarity() float64 { return c.similarity }
