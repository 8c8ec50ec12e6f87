package handler

import (
	"errors"
	"net/http"

	"lodestar/internal/domain"
	"lodestar/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	// Blocked visibility upgrades carry the blocking document ids so the
	// caller can present them.
	var blockedErr *domain.VisibilityEscalationBlockedError
	if errors.As(err, &blockedErr) {
		httputil.RespondErrorWithExtras(w, http.StatusConflict, blockedErr.Error(), map[string]interface{}{
			"blocking_documents": blockedErr.Blocking,
		})
		return
	}

	// A hidden resource responds exactly like a missing one.
	if errors.Is(err, domain.ErrResourceHidden) {
		httputil.RespondError(w, http.StatusNotFound, "not found or access denied")
		return
	}

	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
