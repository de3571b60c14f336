package ingest

import (
	"context"

	"github.com/docq-dev/docq/internal/chunker"
	"github.com/docq-dev/docq/internal/domain"
	"github.com/docq-dev/docq/internal/domain/chunk"
)

// Permissions answers capability checks for a tenant.
type Permissions interface {
	CanWriteDocuments(ctx context.Context, tenantID string, id domain.Identity) bool
}

// ChunkStore persists a document's chunks and title. Regeneration is two
// separate operations, clear then write, with no transaction spanning them.
type ChunkStore interface {
	ClearChunks(ctx context.Context, tenantID, documentID string) error
	WriteChunks(ctx context.Context, chunks []chunk.Chunk) error
	SetDocumentTitle(ctx context.Context, documentID, title string) error
	DeleteDocumentTitle(ctx context.Context, documentID string) error
}

// Extractor turns a raw uploaded file into plain text.
type Extractor interface {
	Extract(filename string, data []byte) (string, error)
}

// Splitter cuts extracted text into overlapping pieces.
type Splitter interface {
	Split(text string) []chunker.Piece
}

// BatchEmbedder vectorizes chunk contents in one provider call.
type BatchEmbedder = domain.BatchEmbedder
