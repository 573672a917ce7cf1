package shared

import "context"

// Identity describes the authenticated caller for the duration of a request.
// Roles carry the normalized role names resolved from the store, not whatever
// shape the token happened to encode.
type Identity struct {
	AccountID int64
	Email     string
	Roles     []string
}

// HasRole reports whether the identity holds the named role.
func (id *Identity) HasRole(name string) bool {
	if id == nil {
		return false
	}
	for _, r := range id.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the identity holds at least one of the named roles.
func (id *Identity) HasAnyRole(names ...string) bool {
	for _, n := range names {
		if id.HasRole(n) {
			return true
		}
	}
	return false
}

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context, nil when absent.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
