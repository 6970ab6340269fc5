package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/arborlogic/authcore/internal/auth"
)

// authMiddleware validates the bearer access token on protected routes.
//
// On success the resolved identity (user ID, role, permission set) is
// stored in the request context for handlers and permission gates. Any
// failure — missing or malformed header, bad signature, expired token,
// or an account that no longer exists — produces a 401 without detail.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w, "missing or malformed authorization header")
			return
		}

		identity, err := s.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyIdentity, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermissions builds a middleware that gates a route on the caller
// holding every listed permission. The check is a pure AND: one missing
// permission fails the whole gate with a 403.
func (s *Server) requirePermissions(perms ...auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := identityFromContext(r.Context())
			if identity == nil {
				writeUnauthorized(w, "authentication required")
				return
			}
			if !auth.HasAllPermissions(identity.Role, perms) {
				writeForbidden(w, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// identityFromContext returns the authenticated identity stored by
// authMiddleware, or nil on an unauthenticated request.
func identityFromContext(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(ctxKeyIdentity).(*auth.Identity)
	return identity
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
