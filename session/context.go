package session

import "context"

type contextKey int

const identityKey contextKey = iota

// WithIdentity returns a new context with the given identity attached.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the identity from the context.
// Returns nil if no identity is present.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// ActorFromContext returns the actor of the identity in ctx, or "".
func ActorFromContext(ctx context.Context) Actor {
	if id := IdentityFromContext(ctx); id != nil {
		return id.Actor
	}
	return ""
}
