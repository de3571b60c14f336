// Package ask implements the question answering pipeline: authenticate,
// authorize, embed the question, retrieve matching chunks, assemble a
// grounded prompt and complete it, returning the answer with citations.
package ask

import (
	"context"
	"fmt"

	"github.com/docq-dev/docq/internal/auth"
	"github.com/docq-dev/docq/internal/domain"
	"github.com/docq-dev/docq/internal/domain/answer"
	"github.com/docq-dev/docq/internal/domain/ask"
	"github.com/docq-dev/docq/internal/domain/chunk"
	"github.com/docq-dev/docq/internal/domain/citation"
)

// Service runs the pipeline over its collaborators.
type Service struct {
	permissions Permissions
	embedder    Embedder
	retriever   Retriever
	titles      TitleResolver
	completer   Completer
}

// NewService wires the pipeline collaborators.
func NewService(
	permissions Permissions,
	embedder Embedder,
	retriever Retriever,
	titles TitleResolver,
	completer Completer,
) *Service {
	return &Service{
		permissions: permissions,
		embedder:    embedder,
		retriever:   retriever,
		titles:      titles,
		completer:   completer,
	}
}

// Answer executes the pipeline for one question. Authentication and
// authorization run before any model call so denied requests never spend
// provider tokens. Each returned citation corresponds to exactly one chunk
// that was placed in the prompt, in prompt order.
func (s *Service) Answer(ctx context.Context, tenantID string, req *ask.Request) (answer.Answer, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return answer.Answer{}, domain.ErrNotAuthenticated
	}

	if !s.permissions.CanReadDocuments(ctx, tenantID, identity) {
		return answer.Answer{}, fmt.Errorf("tenant %q: %w", tenantID, domain.ErrPermissionDenied)
	}

	embedded, err := s.embedder.Embed(ctx, req.Question())
	if err != nil {
		return answer.Answer{}, fmt.Errorf("embed question: %w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	hits, err := s.retriever.SimilaritySearch(
		ctx, tenantID, embedded.Embedding, req.MatchCount(), req.MatchThreshold(),
	)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("similarity search: %w: %w", domain.ErrRetrievalFailed, err)
	}

	titles, err := s.resolveTitles(ctx, hits)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("resolve titles: %w: %w", domain.ErrRetrievalFailed, err)
	}

	messages := buildMessages(hits, req.History(), req.Question())

	text, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("complete: %w: %w", domain.ErrCompletionUnavailable, err)
	}

	citations := make([]citation.Citation, 0, len(hits))
	for _, h := range hits {
		citations = append(citations, citation.FromHit(h, titles[h.DocumentID()]))
	}

	return answer.New(text, citations), nil
}

// resolveTitles fetches titles for the distinct documents behind the hits.
// With no hits there is nothing to resolve and no storage round trip.
func (s *Service) resolveTitles(ctx context.Context, hits []chunk.Hit) (map[string]string, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(hits))
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.DocumentID()]; ok {
			continue
		}
		seen[h.DocumentID()] = struct{}{}
		ids = append(ids, h.DocumentID())
	}

	return s.titles.DocumentTitles(ctx, ids)
}
