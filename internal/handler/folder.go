package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"lodestar/internal/domain/models"
	"lodestar/internal/domain/services"
	"lodestar/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folderService services.FolderService
	docService    services.DocumentService
	graphService  services.GraphService
	logger        *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(
	folderService services.FolderService,
	docService services.DocumentService,
	graphService services.GraphService,
	logger *slog.Logger,
) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		docService:    docService,
		graphService:  graphService,
		logger:        logger,
	}
}

// CreateFolder creates a new folder
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req services.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = userID

	folder, err := h.folderService.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// GetFolder retrieves a folder by ID
// GET /api/folders/{id}
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	folder, err := h.folderService.GetFolder(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// UpdateFolder renames a folder
// PATCH /api/folders/{id}
func (h *FolderHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	folder, err := h.folderService.RenameFolder(r.Context(), userID, r.PathValue("id"), req.Name)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// SetVisibility changes a folder's visibility tier
// POST /api/folders/{id}/visibility
// Upgrades to public may respond 409 with the blocking document ids.
func (h *FolderHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		Visibility models.Visibility `json:"visibility"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	folder, err := h.folderService.SetVisibility(r.Context(), userID, r.PathValue("id"), req.Visibility)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// TransferOwnership re-records the folder's owner
// POST /api/folders/{id}/transfer
func (h *FolderHandler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		OwnerUserID *string `json:"owner_user_id,omitempty"`
		OwnerTeamID *string `json:"owner_team_id,omitempty"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newOwner := models.Owner{UserID: req.OwnerUserID, TeamID: req.OwnerTeamID}
	if req.OwnerUserID != nil {
		newOwner.Type = models.OwnerUser
	} else if req.OwnerTeamID != nil {
		newOwner.Type = models.OwnerTeam
	}

	folder, err := h.folderService.TransferOwnership(r.Context(), userID, r.PathValue("id"), newOwner)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder deletes a folder, detaching its contents
// DELETE /api/folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.folderService.DeleteFolder(r.Context(), userID, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFolders lists folders owned by the subject or their teams
// GET /api/folders
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	folders, err := h.folderService.ListFolders(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	if folders == nil {
		folders = []models.Folder{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"folders": folders,
		"total":   len(folders),
	})
}

// ListDocuments lists the documents filed in a folder
// GET /api/folders/{id}/documents
func (h *FolderHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	docs, err := h.docService.ListByFolder(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"total":     len(docs),
	})
}

// ListGraphs lists the graphs filed in a folder
// GET /api/folders/{id}/graphs
func (h *FolderHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	graphs, err := h.graphService.ListByFolder(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	if graphs == nil {
		graphs = []models.Graph{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"graphs": graphs,
		"total":  len(graphs),
	})
}

// Discover lists public folders
// GET /api/discover?limit=&offset=
func (h *FolderHandler) Discover(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	folders, err := h.folderService.Discover(r.Context(), limit, offset)
	if err != nil {
		handleError(w, err)
		return
	}
	if folders == nil {
		folders = []models.Folder{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"folders": folders,
		"total":   len(folders),
	})
}
