package docq

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docq-dev/docq/internal/auth"
	"github.com/docq-dev/docq/internal/chunker"
	"github.com/docq-dev/docq/internal/domain"
	domask "github.com/docq-dev/docq/internal/domain/ask"
	"github.com/docq-dev/docq/internal/extract"
	logpkg "github.com/docq-dev/docq/internal/logger"
	"github.com/docq-dev/docq/internal/repository/chunks"
	openaiTransport "github.com/docq-dev/docq/internal/transport/openai"
	askuc "github.com/docq-dev/docq/internal/usecase/ask"
	healthuc "github.com/docq-dev/docq/internal/usecase/health"
	ingestuc "github.com/docq-dev/docq/internal/usecase/ingest"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the embedded docq entry point.
type Client struct {
	store     chunks.Store
	askSvc    *askuc.Service
	ingestSvc *ingestuc.Service
	healthSvc *healthuc.Service
	logger    *zap.Logger
}

// New creates a Client and connects to the chunk store. An embedding and
// a completion provider are required; configure them with WithOpenAI or
// with WithEmbedder/WithCompleter. The provided context is used for the
// initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:          "memory",
		vectorDim:       1536,
		embeddingModel:  "text-embedding-3-small",
		completionModel: "gpt-4o-mini",
		maxChunkSize:    chunker.DefaultMaxChunkSize,
		overlap:         chunker.DefaultOverlap,
		logger:          zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	embedder, completer, err := buildProviders(cfg)
	if err != nil {
		return nil, err
	}

	var store chunks.Store
	switch cfg.driver {
	case "memory":
		store, err = chunks.NewMemoryStore()
	case "redis":
		store, err = chunks.NewRedisStore(ctx, chunks.RedisConfig{
			Addrs:     cfg.addrs,
			Username:  cfg.username,
			Password:  cfg.password,
			DB:        cfg.db,
			VectorDim: cfg.vectorDim,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create chunk store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("chunk store not ready: %w", err)
	}

	// The SDK trusts its caller; the only permission rule enforced is
	// that an identity stays inside its own tenant.
	perms := tenantPermissions{}
	splitter := chunker.NewSplitter(cfg.maxChunkSize, cfg.overlap)

	return &Client{
		store:     store,
		askSvc:    askuc.NewService(perms, embedder, store, store, completer),
		ingestSvc: ingestuc.NewService(perms, store, extract.NewRegistry(), splitter, embedder),
		healthSvc: healthuc.New(store, providerChecker(embedder), providerChecker(completer)),
		logger:    cfg.logger,
	}, nil
}

// Close releases the store connection.
func (c *Client) Close() error {
	c.store.Close()
	return nil
}

// Authenticate returns a context carrying the caller's identity. All
// Client operations are scoped to the identity's tenant.
func Authenticate(ctx context.Context, userID, tenantID string) context.Context {
	return auth.ContextWithIdentity(ctx, domain.Identity{UserID: userID, TenantID: tenantID})
}

// Ask answers a question against the tenant's ingested documents.
// Without any sufficiently similar chunk the model is instructed to reply
// with a fixed fallback sentence and no citations are returned.
func (c *Client) Ask(ctx context.Context, question string, opts ...AskOption) (Answer, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return Answer{}, ErrNotAuthenticated
	}

	var p askParams
	for _, o := range opts {
		o(&p)
	}

	req, err := domask.New(question, toDomainMessages(p.history), p.matchCount, p.matchThreshold)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	ans, err := c.askSvc.Answer(logpkg.ContextWithLogger(ctx, c.logger), identity.TenantID, &req)
	if err != nil {
		return Answer{}, err
	}

	citations := make([]Citation, 0, len(ans.Citations()))
	for _, cit := range ans.Citations() {
		citations = append(citations, Citation{
			DocumentID:    cit.DocumentID(),
			DocumentTitle: cit.DocumentTitle(),
			ChunkIndex:    cit.ChunkIndex(),
			Snippet:       cit.Snippet(),
			Similarity:    cit.Similarity(),
		})
	}
	return Answer{Text: ans.Text(), Citations: citations}, nil
}

// IngestDocument extracts, chunks, embeds and stores one document,
// replacing any previous version. An empty documentID mints a new one.
func (c *Client) IngestDocument(
	ctx context.Context, documentID, title, filename string, data []byte,
) (IngestResult, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return IngestResult{}, ErrNotAuthenticated
	}

	res, err := c.ingestSvc.IngestDocument(
		logpkg.ContextWithLogger(ctx, c.logger),
		identity.TenantID, documentID, title, filename, data,
	)
	if err != nil {
		return IngestResult{}, err
	}
	return IngestResult{
		DocumentID:     res.DocumentID,
		ChunkCount:     res.ChunkCount,
		EmbeddedChunks: res.EmbeddedChunks,
	}, nil
}

// DeleteDocument removes a document's chunks and title.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return ErrNotAuthenticated
	}
	return c.ingestSvc.DeleteDocument(ctx, identity.TenantID, documentID)
}

// Health probes the store and both model providers.
func (c *Client) Health(ctx context.Context) HealthReport {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}
	return HealthReport{Status: string(report.Status), Checks: checks}
}

// tenantPermissions allows an identity to read and write documents of its
// own tenant only.
type tenantPermissions struct{}

func (tenantPermissions) CanReadDocuments(_ context.Context, tenantID string, id domain.Identity) bool {
	return id.TenantID == tenantID
}

func (tenantPermissions) CanWriteDocuments(_ context.Context, tenantID string, id domain.Identity) bool {
	return id.TenantID == tenantID
}

// pipelineEmbedder is the embedding contract the usecases consume.
type pipelineEmbedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

func buildProviders(cfg *clientConfig) (pipelineEmbedder, domain.Completer, error) {
	var embedder pipelineEmbedder
	var completer domain.Completer

	if cfg.embedder != nil {
		embedder = embedderAdapter{cfg.embedder}
	} else if cfg.openAIKey != "" {
		embedder = openaiTransport.NewEmbedder(openaiTransport.EmbedderConfig{
			APIKey:     cfg.openAIKey,
			BaseURL:    cfg.openAIBaseURL,
			Model:      cfg.embeddingModel,
			Dimensions: cfg.vectorDim,
		})
	}
	if cfg.completer != nil {
		completer = completerAdapter{cfg.completer}
	} else if cfg.openAIKey != "" {
		completer = openaiTransport.NewCompleter(openaiTransport.CompleterConfig{
			APIKey:  cfg.openAIKey,
			BaseURL: cfg.openAIBaseURL,
			Model:   cfg.completionModel,
		})
	}

	if embedder == nil {
		return nil, nil, fmt.Errorf("an embedding provider is required: use WithOpenAI or WithEmbedder")
	}
	if completer == nil {
		return nil, nil, fmt.Errorf("a completion provider is required: use WithOpenAI or WithCompleter")
	}
	return embedder, completer, nil
}

// embedderAdapter bridges a caller-provided Embedder, which only sees
// SDK-level types, to the pipeline contracts.
type embedderAdapter struct{ e Embedder }

func (a embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := a.e.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embedding,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (a embedderAdapter) EmbedBatch(ctx context.Context, texts []string) ([]domain.BatchEmbeddingItem, error) {
	items, err := a.e.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([]domain.BatchEmbeddingItem, len(items))
	for i, item := range items {
		out[i] = domain.BatchEmbeddingItem{Index: item.Index, Embedding: item.Embedding}
	}
	return out, nil
}

// completerAdapter bridges a caller-provided Completer to the pipeline
// contract.
type completerAdapter struct{ c Completer }

func (a completerAdapter) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = Message{Role: m.Role, Content: m.Content}
	}
	return a.c.Complete(ctx, out)
}

// providerChecker exposes a provider's health probe when it has one.
// Caller-provided providers are unwrapped from their adapters first.
func providerChecker(v any) healthuc.ProviderChecker {
	switch a := v.(type) {
	case embedderAdapter:
		v = a.e
	case completerAdapter:
		v = a.c
	}
	if hc, ok := v.(healthuc.ProviderChecker); ok {
		return hc
	}
	return nil
}

func toDomainMessages(history []Message) []domain.Message {
	if len(history) == 0 {
		return nil
	}
	out := make([]domain.Message, len(history))
	for i, m := range history {
		out[i] = domain.Message{Role: m.Role, Content: m.Content}
	}
	return out
}
