package middleware

import "context"

// userIDKey and isAdminKey carry the authenticated caller's identity
// through the request context.
const (
	userIDKey  = contextKey("userID")
	isAdminKey = contextKey("isAdmin")
)

// GetUserIDFromCtx retrieves the authenticated user ID from the context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromCtx(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// IsAdminFromCtx reports whether the authenticated caller carries the
// admin role claim.
func IsAdminFromCtx(ctx context.Context) bool {
	isAdmin, ok := ctx.Value(isAdminKey).(bool)
	return ok && isAdmin
}
