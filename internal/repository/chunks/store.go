// Package chunks persists document chunks and titles and serves
// tenant-scoped similarity search over them.
package chunks

import (
	"context"
	"time"

	"github.com/docq-dev/docq/internal/domain/chunk"
)

// Store is the full chunk persistence surface used by the services.
type Store interface {
	SimilaritySearch(
		ctx context.Context, tenantID string,
		vector []float32, matchCount int, matchThreshold float64,
	) ([]chunk.Hit, error)

	WriteChunks(ctx context.Context, chunks []chunk.Chunk) error
	ClearChunks(ctx context.Context, tenantID, documentID string) error

	DocumentTitles(ctx context.Context, documentIDs []string) (map[string]string, error)
	SetDocumentTitle(ctx context.Context, documentID, title string) error
	DeleteDocumentTitle(ctx context.Context, documentID string) error

	Ping(ctx context.Context) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}
