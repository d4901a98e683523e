package auth

import (
	"context"
	"net/http"
)

// ContextKey is the type used for context keys
type ContextKey string

const (
	// ContextKeyUserID is the key for the authenticated user ID in the context
	ContextKeyUserID ContextKey = "userID"
	// ContextKeyIdentity is the key for the verified token identity in the context
	ContextKeyIdentity ContextKey = "identity"
)

// Identity is what the identity provider asserts about the caller.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	AvatarURL   string
}

// WithIdentity returns a context carrying the caller's identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, id.UserID)
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// GetUserID retrieves the authenticated user ID from the request context.
func GetUserID(r *http.Request) string {
	if id, ok := r.Context().Value(ContextKeyUserID).(string); ok {
		return id
	}
	return ""
}

// GetIdentity retrieves the verified identity from the request context.
func GetIdentity(r *http.Request) (Identity, bool) {
	id, ok := r.Context().Value(ContextKeyIdentity).(Identity)
	return id, ok
}
