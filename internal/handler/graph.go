package handler

import (
	"log/slog"
	"net/http"

	"lodestar/internal/domain/services"
	"lodestar/internal/httputil"
)

// GraphHandler handles knowledge graph HTTP requests
type GraphHandler struct {
	graphService services.GraphService
	logger       *slog.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(graphService services.GraphService, logger *slog.Logger) *GraphHandler {
	return &GraphHandler{
		graphService: graphService,
		logger:       logger,
	}
}

// CreateGraph creates a new graph
// POST /api/graphs
func (h *GraphHandler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req services.CreateGraphRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = userID

	graph, err := h.graphService.CreateGraph(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, graph)
}

// GetGraph retrieves a graph by ID
// GET /api/graphs/{id}
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	graph, err := h.graphService.GetGraph(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, graph)
}

// updateGraphRequest mirrors the document PATCH semantics for folder_id.
type updateGraphRequest struct {
	Name     *string                 `json:"name,omitempty"`
	FolderID httputil.OptionalString `json:"folder_id"`
}

// UpdateGraph renames and/or moves a graph
// PATCH /api/graphs/{id}
func (h *GraphHandler) UpdateGraph(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req updateGraphRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	graph, err := h.graphService.GetGraph(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	if req.Name != nil {
		graph, err = h.graphService.RenameGraph(r.Context(), userID, id, *req.Name)
		if err != nil {
			handleError(w, err)
			return
		}
	}

	if req.FolderID.Present {
		graph, err = h.graphService.MoveGraph(r.Context(), userID, id, req.FolderID.Value)
		if err != nil {
			handleError(w, err)
			return
		}
	}

	httputil.RespondJSON(w, http.StatusOK, graph)
}

// SetDocuments replaces the graph's referenced document set
// PUT /api/graphs/{id}/documents
func (h *GraphHandler) SetDocuments(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		DocumentIDs []string `json:"document_ids"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	graph, err := h.graphService.SetDocuments(r.Context(), userID, r.PathValue("id"), req.DocumentIDs)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, graph)
}

// GetVisibility returns the graph's derived visibility and the documents
// that would block a public upgrade
// GET /api/graphs/{id}/visibility
func (h *GraphHandler) GetVisibility(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	visibility, blocking, err := h.graphService.EffectiveVisibility(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	if blocking == nil {
		blocking = []string{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"effective_visibility": visibility,
		"blocking_documents":   blocking,
	})
}

// DeleteGraph deletes a graph
// DELETE /api/graphs/{id}
func (h *GraphHandler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.graphService.DeleteGraph(r.Context(), userID, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
