package auth

import (
	"net/http"
	"strings"

	"github.com/coursehub/coursehub/internal/shared"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "coursehub_token"

// Middleware implements shared.Guard on top of the auth service.
type Middleware struct {
	service *Service
}

// NewMiddleware builds Middleware instance.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Authenticate resolves the caller from the session cookie or a bearer header
// and stores the identity in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			shared.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		identity, err := m.service.Resolve(r.Context(), raw)
		if err != nil {
			shared.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireRoles rejects authenticated callers that hold none of the named roles.
func (m *Middleware) RequireRoles(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				shared.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if !identity.HasAnyRole(names...) {
				shared.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
