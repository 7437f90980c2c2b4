// Package auth carries the authenticated user identity through the request
// context. Authentication itself happens upstream (the identity provider in
// front of this service); handlers only read the already-verified user id.
package auth

import "context"

type userIDContextKey struct{}

// WithUserID stores the authenticated user id in context for handler access.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext retrieves the authenticated user id from context.
// Returns an empty string when no user was previously stored.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey{}).(string)
	return userID
}
