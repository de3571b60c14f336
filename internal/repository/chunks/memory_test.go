package chunks

import (
	"context"
	"testing"

	"github.com/docq-dev/docq/internal/domain/chunk"
)

// unit vectors in 2D make cosine similarities easy to reason about
var (
	vecRight = []float32{1, 0}
	vecUp    = []float32{0, 1}
	vecDiag  = []float32{0.7071, 0.7071}
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	return s
}

func mustWrite(t *testing.T, s *MemoryStore, chunks ...chunk.Chunk) {
	t.Helper()
	if err := s.WriteChunks(context.Background(), chunks); err != nil {
		t.Fatalf("WriteChunks: %v", err)
	}
}

func embeddedChunk(t *testing.T, docID, tenantID, content string, index int, vec []float32) chunk.Chunk {
	t.Helper()
	c, err := chunk.New(docID, tenantID, content, index)
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	c.SetEmbedding(vec)
	return c
}

func TestMemoryStore_SimilaritySearch_OrdersByScore(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s,
		embeddedChunk(t, "doc-1", "acme", "orthogonal", 0, vecUp),
		embeddedChunk(t, "doc-1", "acme", "diagonal", 1, vecDiag),
		embeddedChunk(t, "doc-2", "acme", "aligned", 0, vecRight),
	)

	hits, err := s.SimilaritySearch(context.Background(), "acme", vecRight, 10, 0.2)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}

	// orthogonal (similarity 0) is excluded by the 0.2 threshold
	if len(hits) != 2 {
		t.Fatalf("want 2 hits, got %d", len(hits))
	}
	if hits[0].Content() != "aligned" || hits[1].Content() != "diagonal" {
		t.Errorf("hits out of order: %q, %q", hits[0].Content(), hits[1].Content())
	}
	if hits[0].Similarity() <= hits[1].Similarity() {
		t.Error("similarities must be descending")
	}
	if hits[0].DocumentID() != "doc-2" || hits[0].Index() != 0 {
		t.Errorf("hit identity wrong: %q index %d", hits[0].DocumentID(), hits[0].Index())
	}
}

func TestMemoryStore_SimilaritySearch_ThresholdIsStrict(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s,
		embeddedChunk(t, "doc-1", "acme", "exact match score", 0, vecRight),
	)

	// querying with the same vector yields similarity 1.0
	hits, err := s.SimilaritySearch(context.Background(), "acme", vecRight, 10, 1.0)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("similarity equal to the threshold must be excluded, got %d hits", len(hits))
	}

	hits, err = s.SimilaritySearch(context.Background(), "acme", vecRight, 10, 0.999)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("similarity above the threshold must be included, got %d hits", len(hits))
	}
}

func TestMemoryStore_SimilaritySearch_CapsAtMatchCount(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 15; i++ {
		mustWrite(t, s, embeddedChunk(t, "doc-1", "acme", "chunk content", i, vecRight))
	}

	hits, err := s.SimilaritySearch(context.Background(), "acme", vecRight, 10, 0.2)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(hits) != 10 {
		t.Errorf("want 10 hits, got %d", len(hits))
	}
}

func TestMemoryStore_SimilaritySearch_TenantIsolation(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s,
		embeddedChunk(t, "doc-a", "acme", "acme secret", 0, vecRight),
		embeddedChunk(t, "doc-g", "globex", "globex secret", 0, vecRight),
	)

	hits, err := s.SimilaritySearch(context.Background(), "acme", vecRight, 10, 0.2)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(hits) != 1 || hits[0].DocumentID() != "doc-a" {
		t.Fatalf("tenant filter leaked: %+v", hits)
	}
}

func TestMemoryStore_SimilaritySearch_EmptyStore(t *testing.T) {
	s := newTestStore(t)

	hits, err := s.SimilaritySearch(context.Background(), "acme", vecRight, 10, 0.2)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("want no hits, got %d", len(hits))
	}
}

func TestMemoryStore_InertChunksInvisibleButCleared(t *testing.T) {
	s := newTestStore(t)

	inertChunk, err := chunk.New("doc-1", "acme", "no vector yet", 0)
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	mustWrite(t, s, inertChunk)

	hits, err := s.SimilaritySearch(context.Background(), "acme", vecRight, 10, 0.0)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(hits) != 0 {
		t.Fatal("chunks without embeddings must be unreachable by search")
	}

	if err := s.ClearChunks(context.Background(), "acme", "doc-1"); err != nil {
		t.Fatalf("ClearChunks: %v", err)
	}
	s.mu.RLock()
	parked := len(s.inert["doc-1"])
	s.mu.RUnlock()
	if parked != 0 {
		t.Error("inert chunks must be removed by ClearChunks")
	}
}

func TestMemoryStore_ClearChunks_RemovesOnlyTargetDocument(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s,
		embeddedChunk(t, "doc-1", "acme", "goes away", 0, vecRight),
		embeddedChunk(t, "doc-2", "acme", "stays", 0, vecRight),
	)

	if err := s.ClearChunks(context.Background(), "acme", "doc-1"); err != nil {
		t.Fatalf("ClearChunks: %v", err)
	}

	hits, err := s.SimilaritySearch(context.Background(), "acme", vecRight, 10, 0.2)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(hits) != 1 || hits[0].Content() != "stays" {
		t.Fatalf("unexpected hits after clear: %+v", hits)
	}
}

func TestMemoryStore_RegenerationWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustWrite(t, s, embeddedChunk(t, "doc-1", "acme", "old version", 0, vecRight))

	// between clear and write a search sees the document with no chunks
	if err := s.ClearChunks(ctx, "acme", "doc-1"); err != nil {
		t.Fatalf("ClearChunks: %v", err)
	}
	hits, err := s.SimilaritySearch(ctx, "acme", vecRight, 10, 0.2)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(hits) != 0 {
		t.Fatal("document should be invisible inside the regeneration window")
	}

	mustWrite(t, s, embeddedChunk(t, "doc-1", "acme", "new version", 0, vecRight))
	hits, err = s.SimilaritySearch(ctx, "acme", vecRight, 10, 0.2)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(hits) != 1 || hits[0].Content() != "new version" {
		t.Fatalf("unexpected hits after regeneration: %+v", hits)
	}
}

func TestMemoryStore_Titles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetDocumentTitle(ctx, "doc-1", "Handbook"); err != nil {
		t.Fatalf("SetDocumentTitle: %v", err)
	}

	titles, err := s.DocumentTitles(ctx, []string{"doc-1", "doc-2"})
	if err != nil {
		t.Fatalf("DocumentTitles: %v", err)
	}
	if titles["doc-1"] != "Handbook" {
		t.Errorf("doc-1 title = %q", titles["doc-1"])
	}
	if _, ok := titles["doc-2"]; ok {
		t.Error("unknown document must be absent from the result")
	}

	if err := s.DeleteDocumentTitle(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteDocumentTitle: %v", err)
	}
	titles, err = s.DocumentTitles(ctx, []string{"doc-1"})
	if err != nil {
		t.Fatalf("DocumentTitles: %v", err)
	}
	if len(titles) != 0 {
		t.Error("deleted title must be absent")
	}
}
