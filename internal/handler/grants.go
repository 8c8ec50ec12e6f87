package handler

import (
	"log/slog"
	"net/http"

	"lodestar/internal/domain/models"
	"lodestar/internal/domain/services"
	"lodestar/internal/httputil"
)

// GrantHandler handles folder sharing HTTP requests
type GrantHandler struct {
	grantService services.GrantService
	logger       *slog.Logger
}

// NewGrantHandler creates a new grant handler
func NewGrantHandler(grantService services.GrantService, logger *slog.Logger) *GrantHandler {
	return &GrantHandler{
		grantService: grantService,
		logger:       logger,
	}
}

// CreateGrant grants a role to a user or team on a folder
// POST /api/folders/{id}/grants
// Granting an already-held role responds 204 like a fresh grant.
func (h *GrantHandler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req services.GrantRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.FolderID = r.PathValue("id")

	if err := h.grantService.GrantRole(r.Context(), userID, &req); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteGrant revokes a previously granted role
// DELETE /api/folders/{id}/grants
func (h *GrantHandler) DeleteGrant(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req services.GrantRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.FolderID = r.PathValue("id")

	if err := h.grantService.RevokeRole(r.Context(), userID, &req); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListGrants lists every grant on a folder
// GET /api/folders/{id}/grants
func (h *GrantHandler) ListGrants(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	grants, err := h.grantService.ListGrants(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	if grants == nil {
		grants = []models.Grant{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"grants": grants,
		"total":  len(grants),
	})
}

// GetCapabilities returns the caller's effective capabilities on a folder,
// for permission badges in sharing UIs
// GET /api/folders/{id}/capabilities
func (h *GrantHandler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	caps, err := h.grantService.EffectiveCapabilities(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"capabilities": caps.Slice(),
	})
}
