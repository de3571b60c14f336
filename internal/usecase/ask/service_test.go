package ask

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docq-dev/docq/internal/auth"
	"github.com/docq-dev/docq/internal/domain"
	domask "github.com/docq-dev/docq/internal/domain/ask"
	"github.com/docq-dev/docq/internal/domain/chunk"
)

type permsMock struct {
	allow  bool
	called bool
}

func (m *permsMock) CanReadDocuments(_ context.Context, _ string, _ domain.Identity) bool {
	m.called = true
	return m.allow
}

type embedderMock struct {
	vector []float32
	err    error
	called bool
}

func (m *embedderMock) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector}, nil
}

type retrieverMock struct {
	hits      []chunk.Hit
	err       error
	called    bool
	gotTenant string
	gotCount  int
	gotThresh float64
}

func (m *retrieverMock) SimilaritySearch(
	_ context.Context, tenantID string, _ []float32, matchCount int, matchThreshold float64,
) ([]chunk.Hit, error) {
	m.called = true
	m.gotTenant = tenantID
	m.gotCount = matchCount
	m.gotThresh = matchThreshold
	return m.hits, m.err
}

type titlesMock struct {
	titles map[string]string
	err    error
	gotIDs []string
}

func (m *titlesMock) DocumentTitles(_ context.Context, ids []string) (map[string]string, error) {
	m.gotIDs = ids
	return m.titles, m.err
}

type completerMock struct {
	reply       string
	err         error
	called      bool
	gotMessages []domain.Message
}

func (m *completerMock) Complete(_ context.Context, messages []domain.Message) (string, error) {
	m.called = true
	m.gotMessages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

type fixture struct {
	perms     *permsMock
	embedder  *embedderMock
	retriever *retrieverMock
	titles    *titlesMock
	completer *completerMock
	service   *Service
}

func newFixture() *fixture {
	f := &fixture{
		perms:     &permsMock{allow: true},
		embedder:  &embedderMock{vector: []float32{0.1, 0.2}},
		retriever: &retrieverMock{},
		titles:    &titlesMock{titles: map[string]string{}},
		completer: &completerMock{reply: "grounded answer"},
	}
	f.service = NewService(f.perms, f.embedder, f.retriever, f.titles, f.completer)
	return f
}

func authedCtx() context.Context {
	return auth.ContextWithIdentity(context.Background(),
		domain.Identity{UserID: "user-1", TenantID: "acme"})
}

func mustRequest(t *testing.T, question string, history []domain.Message) *domask.Request {
	t.Helper()
	req, err := domask.New(question, history, 0, 0)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return &req
}

func TestAnswer_NotAuthenticated(t *testing.T) {
	f := newFixture()

	_, err := f.service.Answer(context.Background(), "acme", mustRequest(t, "q", nil))
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("want ErrNotAuthenticated, got %v", err)
	}
	if f.embedder.called || f.retriever.called || f.completer.called {
		t.Error("no collaborator may run before authentication")
	}
}

func TestAnswer_PermissionDenied_ShortCircuits(t *testing.T) {
	f := newFixture()
	f.perms.allow = false

	_, err := f.service.Answer(authedCtx(), "acme", mustRequest(t, "q", nil))
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
	if f.embedder.called {
		t.Error("embedder must not be called after a denied permission check")
	}
	if f.completer.called {
		t.Error("completer must not be called after a denied permission check")
	}
}

func TestAnswer_EmbeddingFailure(t *testing.T) {
	f := newFixture()
	f.embedder.err = errors.New("provider down")

	_, err := f.service.Answer(authedCtx(), "acme", mustRequest(t, "q", nil))
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("want ErrEmbeddingUnavailable, got %v", err)
	}
	if f.retriever.called || f.completer.called {
		t.Error("pipeline must stop at the failed embed stage")
	}
}

func TestAnswer_RetrievalFailure(t *testing.T) {
	f := newFixture()
	f.retriever.err = errors.New("index gone")

	_, err := f.service.Answer(authedCtx(), "acme", mustRequest(t, "q", nil))
	if !errors.Is(err, domain.ErrRetrievalFailed) {
		t.Fatalf("want ErrRetrievalFailed, got %v", err)
	}
	if f.completer.called {
		t.Error("completer must not run after a failed retrieval")
	}
}

func TestAnswer_CompletionFailure(t *testing.T) {
	f := newFixture()
	f.completer.err = errors.New("model overloaded")

	_, err := f.service.Answer(authedCtx(), "acme", mustRequest(t, "q", nil))
	if !errors.Is(err, domain.ErrCompletionUnavailable) {
		t.Fatalf("want ErrCompletionUnavailable, got %v", err)
	}
}

func TestAnswer_PassesRetrievalParameters(t *testing.T) {
	f := newFixture()

	req, err := domask.New("q", nil, 5, 0.4)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if _, err := f.service.Answer(authedCtx(), "acme", &req); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if f.retriever.gotTenant != "acme" {
		t.Errorf("tenant = %q, want acme", f.retriever.gotTenant)
	}
	if f.retriever.gotCount != 5 {
		t.Errorf("matchCount = %d, want 5", f.retriever.gotCount)
	}
	if f.retriever.gotThresh != 0.4 {
		t.Errorf("matchThreshold = %v, want 0.4", f.retriever.gotThresh)
	}
}

func TestAnswer_NoHits_FallbackPromptStillCompleted(t *testing.T) {
	f := newFixture()
	f.completer.reply = FallbackSentence

	got, err := f.service.Answer(authedCtx(), "acme", mustRequest(t, "q", nil))
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if !f.completer.called {
		t.Fatal("completer must still run with an empty context")
	}
	system := f.completer.gotMessages[0]
	if system.Role != domain.RoleSystem {
		t.Fatalf("first message role = %q, want system", system.Role)
	}
	if !strings.Contains(system.Content, FallbackSentence) {
		t.Error("no-context instruction must quote the fallback sentence")
	}
	if got.Text() != FallbackSentence {
		t.Errorf("answer text = %q", got.Text())
	}
	if len(got.Citations()) != 0 {
		t.Errorf("want zero citations, got %d", len(got.Citations()))
	}
	if len(f.titles.gotIDs) != 0 {
		t.Error("no title lookup should happen without hits")
	}
}

func TestAnswer_CitationsMatchPromptChunks(t *testing.T) {
	f := newFixture()
	f.retriever.hits = []chunk.Hit{
		chunk.NewHit("doc-a", "alpha content", 0, 0.91),
		chunk.NewHit("doc-b", "beta content", 3, 0.74),
		chunk.NewHit("doc-a", "gamma content", 1, 0.55),
	}
	f.titles.titles = map[string]string{"doc-a": "Handbook"}

	got, err := f.service.Answer(authedCtx(), "acme", mustRequest(t, "q", nil))
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	citations := got.Citations()
	if len(citations) != 3 {
		t.Fatalf("want 3 citations, got %d", len(citations))
	}

	system := f.completer.gotMessages[0].Content
	for i, want := range []string{"alpha content", "beta content", "gamma content"} {
		if !strings.Contains(system, want) {
			t.Errorf("prompt missing chunk %d content %q", i, want)
		}
		if citations[i].Snippet() != want {
			t.Errorf("citation %d snippet = %q, want %q", i, citations[i].Snippet(), want)
		}
	}

	if citations[0].DocumentTitle() != "Handbook" {
		t.Errorf("citation 0 title = %q", citations[0].DocumentTitle())
	}
	if citations[1].DocumentTitle() != "Untitled" {
		t.Errorf("unresolved title must default to Untitled, got %q", citations[1].DocumentTitle())
	}
	if citations[0].Similarity() != 0.91 || citations[2].ChunkIndex() != 1 {
		t.Error("citations must carry the hit's similarity and chunk index")
	}

	// chunks appear in retrieval order, separated by the delimiter
	if !(strings.Index(system, "alpha content") < strings.Index(system, "beta content") &&
		strings.Index(system, "beta content") < strings.Index(system, "gamma content")) {
		t.Error("prompt chunks out of retrieval order")
	}
	if strings.Count(system, "---") != 2 {
		t.Errorf("want 2 delimiters between 3 chunks, got %d", strings.Count(system, "---"))
	}

	// title lookup deduplicates document IDs, preserving first-seen order
	if len(f.titles.gotIDs) != 2 || f.titles.gotIDs[0] != "doc-a" || f.titles.gotIDs[1] != "doc-b" {
		t.Errorf("title lookup ids = %v", f.titles.gotIDs)
	}
}

func TestAnswer_HistoryInjectedVerbatim(t *testing.T) {
	f := newFixture()
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleAssistant, Content: "earlier answer"},
	}

	if _, err := f.service.Answer(authedCtx(), "acme", mustRequest(t, "new question", history)); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	msgs := f.completer.gotMessages
	if len(msgs) != 4 {
		t.Fatalf("want 4 messages (system, 2 history, question), got %d", len(msgs))
	}
	if msgs[1] != history[0] || msgs[2] != history[1] {
		t.Error("history must be forwarded verbatim in original order")
	}
	last := msgs[len(msgs)-1]
	if last.Role != domain.RoleUser || last.Content != "new question" {
		t.Errorf("last message = %+v, want the new question", last)
	}
}
