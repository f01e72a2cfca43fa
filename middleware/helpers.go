package middleware

import "context"

type contextKey string

const userIDContextKey contextKey = "user_id"

// UserIDFromContext returns the authenticated user's id placed there by
// Authenticator.Middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}
