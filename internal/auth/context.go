package auth

import (
	"context"

	"github.com/gatherspace/backend/internal/user"
)

// Identity is the authenticated caller attached to a request context by the
// middleware: the loaded user plus the raw session token it presented.
type Identity struct {
	User  *user.User
	Token string
}

type contextKey struct{}

var identityKey = contextKey{}

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored by the middleware, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
