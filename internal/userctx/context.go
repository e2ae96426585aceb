// Package userctx carries the authenticated user id through the request
// context. The auth middleware puts it there; handlers read it back and
// respond 401 when it is missing.
package userctx

import "context"

type contextKey string

const userIDContextKey contextKey = "user_id"

// WithUserID returns a copy of ctx carrying the user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// GetUserID reads the user id set by the auth middleware. ok is false
// when the request never passed through it.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok
}
