package httputil

import (
	"context"
	"net/http"
)

// contextKey is unexported so other packages cannot collide with our keys.
type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID stamps the verified subject id onto the request. Only the auth
// middleware calls this; handlers read it back with GetUserID.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// GetUserID returns the verified subject id, or "" when the request never
// passed authentication.
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
