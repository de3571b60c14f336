// Package auth resolves API keys to identities and answers capability checks.
package auth

import (
	"context"

	"github.com/docq-dev/docq/internal/domain"
)

// Tenant capabilities attached to API keys.
const (
	CapabilityReadDocuments  = "read_documents"
	CapabilityWriteDocuments = "write_documents"
)

// Key binds an API key to an identity and its capabilities.
type Key struct {
	Token        string
	UserID       string
	TenantID     string
	Capabilities []string
}

// KeyRing resolves bearer tokens and capability checks from a static key set.
type KeyRing struct {
	byToken map[string]Key
}

// NewKeyRing builds a KeyRing. Keys with an empty token are skipped.
func NewKeyRing(keys []Key) *KeyRing {
	byToken := make(map[string]Key, len(keys))
	for _, k := range keys {
		if k.Token == "" {
			continue
		}
		byToken[k.Token] = k
	}
	return &KeyRing{byToken: byToken}
}

// Empty reports whether the ring holds no keys (auth disabled).
func (r *KeyRing) Empty() bool { return len(r.byToken) == 0 }

// Resolve maps a bearer token to its identity.
func (r *KeyRing) Resolve(token string) (domain.Identity, bool) {
	k, ok := r.byToken[token]
	if !ok {
		return domain.Identity{}, false
	}
	return domain.Identity{UserID: k.UserID, TenantID: k.TenantID}, true
}

// CanReadDocuments reports whether the identity may read the tenant's documents.
func (r *KeyRing) CanReadDocuments(_ context.Context, tenantID string, id domain.Identity) bool {
	return r.hasCapability(tenantID, id, CapabilityReadDocuments)
}

// CanWriteDocuments reports whether the identity may write the tenant's documents.
func (r *KeyRing) CanWriteDocuments(_ context.Context, tenantID string, id domain.Identity) bool {
	return r.hasCapability(tenantID, id, CapabilityWriteDocuments)
}

func (r *KeyRing) hasCapability(tenantID string, id domain.Identity, capability string) bool {
	if id.TenantID != tenantID {
		return false
	}
	for _, k := range r.byToken {
		if k.UserID != id.UserID || k.TenantID != id.TenantID {
			continue
		}
		for _, c := range k.Capabilities {
			if c == capability {
				return true
			}
		}
	}
	return false
}
