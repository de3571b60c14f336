package auth

import (
	"context"

	"github.com/docq-dev/docq/internal/domain"
)

type ctxKey struct{}

// ContextWithIdentity stores the authenticated identity in the context.
func ContextWithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext extracts the authenticated identity from the context.
// The second return is false when no identity was resolved.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(domain.Identity)
	if !ok || id.IsZero() {
		return domain.Identity{}, false
	}
	return id, true
}
