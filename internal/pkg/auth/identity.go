package auth

import "context"

// Identity is the authenticated caller of a request. The zero value means
// nobody is authenticated.
type Identity struct {
	UserID uint
}

func (i Identity) Authenticated() bool {
	return i.UserID != 0
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}
