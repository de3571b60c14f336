package docq

import "github.com/docq-dev/docq/internal/domain"

// Sentinel errors returned by Client methods. Match with errors.Is.
var (
	ErrNotAuthenticated      = domain.ErrNotAuthenticated
	ErrPermissionDenied      = domain.ErrPermissionDenied
	ErrInvalidRequest        = domain.ErrInvalidRequest
	ErrEmbeddingUnavailable  = domain.ErrEmbeddingUnavailable
	ErrCompletionUnavailable = domain.ErrCompletionUnavailable
	ErrRetrievalFailed       = domain.ErrRetrievalFailed
)
