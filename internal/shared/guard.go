package shared

import "net/http"

// Guard is the access-control surface handlers mount their routes behind.
// Implemented by the auth middleware; decoupled here so domain packages do not
// depend on the auth package.
type Guard interface {
	// Authenticate resolves the caller from a token and rejects the request
	// with 401 when no valid identity can be established.
	Authenticate(next http.Handler) http.Handler
	// RequireRoles rejects authenticated callers lacking all of the named
	// roles with 403.
	RequireRoles(names ...string) func(http.Handler) http.Handler
}
