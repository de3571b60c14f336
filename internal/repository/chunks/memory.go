package chunks

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"

	"github.com/docq-dev/docq/internal/domain/chunk"
)

// Compile-time check: MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps chunks in an in-memory chromem collection with
// brute-force cosine search. Chunks without an embedding never enter the
// collection; they are held aside so ClearChunks still removes them.
type MemoryStore struct {
	db         *chromem.DB
	collection *chromem.Collection

	mu     sync.RWMutex
	inert  map[string][]chunk.Chunk // documentID -> chunks without vectors
	titles map[string]string        // documentID -> title
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() (*MemoryStore, error) {
	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection("chunks", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &MemoryStore{
		db:         db,
		collection: collection,
		inert:      make(map[string][]chunk.Chunk),
		titles:     make(map[string]string),
	}, nil
}

// SimilaritySearch returns up to matchCount chunks of the tenant with
// cosine similarity strictly above matchThreshold, best first.
func (s *MemoryStore) SimilaritySearch(
	ctx context.Context, tenantID string,
	vector []float32, matchCount int, matchThreshold float64,
) ([]chunk.Hit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if matchCount <= 0 {
		return nil, fmt.Errorf("match count must be positive")
	}

	total := s.collection.Count()
	if total == 0 {
		return nil, nil
	}

	// chromem rejects nResults above the collection size; ask for everything
	// and apply threshold and cap ourselves
	results, err := s.collection.QueryEmbedding(ctx, vector, total,
		map[string]string{"tenant_id": tenantID}, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	hits := make([]chunk.Hit, 0, matchCount)
	for _, res := range results {
		similarity := float64(res.Similarity)
		if similarity <= matchThreshold {
			continue
		}
		index, err := strconv.Atoi(res.Metadata["chunk_index"])
		if err != nil {
			continue
		}
		hits = append(hits, chunk.NewHit(res.Metadata["document_id"], res.Content, index, similarity))
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity() > hits[j].Similarity()
	})
	if len(hits) > matchCount {
		hits = hits[:matchCount]
	}
	return hits, nil
}

// WriteChunks stores the given chunks. Embedded chunks become searchable
// documents; the rest are parked outside the collection.
func (s *MemoryStore) WriteChunks(ctx context.Context, chunks []chunk.Chunk) error {
	docs := make([]chromem.Document, 0, len(chunks))

	s.mu.Lock()
	for i := range chunks {
		c := &chunks[i]
		if !c.HasEmbedding() {
			s.inert[c.DocumentID()] = append(s.inert[c.DocumentID()], *c)
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        chunkDocID(c.DocumentID(), c.Index()),
			Content:   c.Content(),
			Embedding: c.Embedding(),
			Metadata: map[string]string{
				"tenant_id":   c.TenantID(),
				"document_id": c.DocumentID(),
				"chunk_index": strconv.Itoa(c.Index()),
			},
		})
	}
	s.mu.Unlock()

	if len(docs) == 0 {
		return nil
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// ClearChunks removes every chunk of the document, embedded or not.
func (s *MemoryStore) ClearChunks(ctx context.Context, tenantID, documentID string) error {
	s.mu.Lock()
	delete(s.inert, documentID)
	s.mu.Unlock()

	if s.collection.Count() == 0 {
		return nil
	}
	err := s.collection.Delete(ctx, map[string]string{
		"tenant_id":   tenantID,
		"document_id": documentID,
	}, nil)
	if err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

// DocumentTitles resolves titles for the given document IDs. Unknown IDs
// are absent from the result.
func (s *MemoryStore) DocumentTitles(_ context.Context, documentIDs []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(documentIDs))
	for _, id := range documentIDs {
		if title, ok := s.titles[id]; ok {
			out[id] = title
		}
	}
	return out, nil
}

// SetDocumentTitle stores the document's title.
func (s *MemoryStore) SetDocumentTitle(_ context.Context, documentID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles[documentID] = title
	return nil
}

// DeleteDocumentTitle removes the document's title.
func (s *MemoryStore) DeleteDocumentTitle(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.titles, documentID)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}

// WaitForReady returns immediately.
func (s *MemoryStore) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

func chunkDocID(documentID string, index int) string {
	return documentID + ":" + strconv.Itoa(index)
}
