package handler

import (
	"fmt"
	"net/http"

	"lodestar/internal/httputil"
)

// getUserID extracts the verified subject id set by the auth middleware
func getUserID(r *http.Request) (string, error) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
