// internal/auth/context.go
//
// Request-scoped admin identity.
//
// The auth-gate middleware (internal/api) resolves the session token to
// an admin account and stashes the identity here; handlers downstream
// read it back without re-querying.
//
// Usage
// -----
//     // Attach the identity after the session lookup succeeds.
//     ctx = auth.WithIdentity(ctx, ident)
//
//     // Downstream code retrieves it.
//     ident, ok := auth.IdentityFrom(ctx)
//
// Notes
// -----
// • The struct mirrors exactly what gated handlers need: id, name,
//   email, and role.  No password hash ever rides the context.

package auth

import "context"

// Identity is the authenticated admin attached to a request.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// identityKey is unexported to avoid context-key collisions.
type identityKey struct{}

// WithIdentity returns a new context carrying ident.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// IdentityFrom extracts the identity from ctx.  ok == false when no
// authenticated admin is attached.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey{}).(Identity)
	return ident, ok
}
