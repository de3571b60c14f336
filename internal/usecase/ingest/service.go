// Package ingest turns uploaded documents into stored, searchable chunks:
// extract text, split it, embed the pieces and replace the document's
// previous chunk set.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docq-dev/docq/internal/auth"
	"github.com/docq-dev/docq/internal/domain"
	"github.com/docq-dev/docq/internal/domain/chunk"
	"github.com/docq-dev/docq/internal/logger"
)

// Result summarizes one ingestion run.
type Result struct {
	DocumentID     string
	ChunkCount     int
	EmbeddedChunks int
}

// Service ingests and deletes documents for a tenant.
type Service struct {
	permissions Permissions
	store       ChunkStore
	extractor   Extractor
	splitter    Splitter
	embedder    BatchEmbedder
}

// NewService wires the ingestion collaborators.
func NewService(
	permissions Permissions,
	store ChunkStore,
	extractor Extractor,
	splitter Splitter,
	embedder BatchEmbedder,
) *Service {
	return &Service{
		permissions: permissions,
		store:       store,
		extractor:   extractor,
		splitter:    splitter,
		embedder:    embedder,
	}
}

// IngestDocument extracts, chunks, embeds and stores one document.
// An empty documentID mints a new one. The previous chunk set is cleared
// before the new one is written; the two operations are not atomic, so a
// concurrent search can briefly observe the document with no chunks.
// An embedding failure does not abort the run: the chunks are stored
// without vectors and stay unreachable by similarity search until the
// document is re-ingested.
func (s *Service) IngestDocument(
	ctx context.Context, tenantID, documentID, title, filename string, data []byte,
) (Result, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return Result{}, domain.ErrNotAuthenticated
	}
	if !s.permissions.CanWriteDocuments(ctx, tenantID, identity) {
		return Result{}, fmt.Errorf("tenant %q: %w", tenantID, domain.ErrPermissionDenied)
	}

	text, err := s.extractor.Extract(filename, data)
	if err != nil {
		return Result{}, fmt.Errorf("extract %q: %w: %v", filename, domain.ErrInvalidRequest, err)
	}

	if documentID == "" {
		documentID = uuid.NewString()
	}

	pieces := s.splitter.Split(text)
	chunks := make([]chunk.Chunk, 0, len(pieces))
	for _, p := range pieces {
		c, err := chunk.New(documentID, tenantID, p.Content, p.Index)
		if err != nil {
			return Result{}, fmt.Errorf("build chunk %d: %w", p.Index, err)
		}
		chunks = append(chunks, c)
	}

	embedded := s.embedChunks(ctx, chunks)

	if err := s.store.ClearChunks(ctx, tenantID, documentID); err != nil {
		return Result{}, fmt.Errorf("clear chunks: %w: %w", domain.ErrRetrievalFailed, err)
	}
	if len(chunks) > 0 {
		if err := s.store.WriteChunks(ctx, chunks); err != nil {
			return Result{}, fmt.Errorf("write chunks: %w: %w", domain.ErrRetrievalFailed, err)
		}
	}
	if err := s.store.SetDocumentTitle(ctx, documentID, title); err != nil {
		return Result{}, fmt.Errorf("set title: %w: %w", domain.ErrRetrievalFailed, err)
	}

	return Result{DocumentID: documentID, ChunkCount: len(chunks), EmbeddedChunks: embedded}, nil
}

// DeleteDocument removes a document's chunks and title.
func (s *Service) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return domain.ErrNotAuthenticated
	}
	if !s.permissions.CanWriteDocuments(ctx, tenantID, identity) {
		return fmt.Errorf("tenant %q: %w", tenantID, domain.ErrPermissionDenied)
	}
	if documentID == "" {
		return fmt.Errorf("document ID is required: %w", domain.ErrInvalidRequest)
	}

	if err := s.store.ClearChunks(ctx, tenantID, documentID); err != nil {
		return fmt.Errorf("clear chunks: %w: %w", domain.ErrRetrievalFailed, err)
	}
	if err := s.store.DeleteDocumentTitle(ctx, documentID); err != nil {
		return fmt.Errorf("delete title: %w: %w", domain.ErrRetrievalFailed, err)
	}
	return nil
}

// embedChunks vectorizes the chunk contents in one batch call and matches
// results back by the provider-reported index. Returns the number of chunks
// that received a vector.
func (s *Service) embedChunks(ctx context.Context, chunks []chunk.Chunk) int {
	if len(chunks) == 0 {
		return 0
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content()
	}

	items, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		logger.FromContext(ctx).Warn("batch embedding failed, storing chunks without vectors",
			zap.Error(err), zap.Int("chunks", len(chunks)))
		return 0
	}

	embedded := 0
	for _, item := range items {
		if item.Index < 0 || item.Index >= len(chunks) || len(item.Embedding) == 0 {
			continue
		}
		chunks[item.Index].SetEmbedding(item.Embedding)
		embedded++
	}
	return embedded
}
