package chi

import (
	"net/http"
	"strings"

	"github.com/docq-dev/docq/internal/auth"
)

// exemptPaths bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware validates Bearer tokens against the key ring and
// places the resolved identity in the request context. An empty ring
// disables authentication (pass-through).
func BearerAuthMiddleware(ring *auth.KeyRing) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if ring == nil || ring.Empty() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(header, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			identity, ok := ring.Resolve(header[len(bearerPrefix):])
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
		})
	}
}
