package domain

import "errors"

var (
	// ErrNotAuthenticated signals a request without a resolved identity.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPermissionDenied signals a missing capability for the target tenant.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrEmbeddingUnavailable signals an embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrCompletionUnavailable signals a completion provider failure.
	ErrCompletionUnavailable = errors.New("completion unavailable")
	// ErrRetrievalFailed signals a storage-layer failure during similarity search.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidRequest signals a malformed request.
	ErrInvalidRequest = errors.New("invalid request")
)
