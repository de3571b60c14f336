package ask

import (
	"context"

	"github.com/docq-dev/docq/internal/domain"
	"github.com/docq-dev/docq/internal/domain/chunk"
)

// Permissions answers capability checks for a tenant.
type Permissions interface {
	CanReadDocuments(ctx context.Context, tenantID string, id domain.Identity) bool
}

// Retriever runs a tenant-scoped similarity search. Results are ordered by
// descending similarity; only chunks strictly above matchThreshold are
// returned, capped at matchCount.
type Retriever interface {
	SimilaritySearch(
		ctx context.Context, tenantID string,
		vector []float32, matchCount int, matchThreshold float64,
	) ([]chunk.Hit, error)
}

// TitleResolver batch-resolves document IDs to titles. Missing documents
// are absent from the returned map.
type TitleResolver interface {
	DocumentTitles(ctx context.Context, documentIDs []string) (map[string]string, error)
}

// Embedder vectorizes the question text.
type Embedder = domain.Embedder

// Completer produces the grounded answer.
type Completer = domain.Completer
