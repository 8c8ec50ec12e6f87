package services

import (
	"context"

	"lodestar/internal/domain/models"
)

// GraphService handles graph business logic, including the cross-resource
// visibility bound over referenced documents.
type GraphService interface {
	CreateGraph(ctx context.Context, req *CreateGraphRequest) (*models.Graph, error)
	GetGraph(ctx context.Context, userID, graphID string) (*models.Graph, error)
	RenameGraph(ctx context.Context, userID, graphID, name string) (*models.Graph, error)
	MoveGraph(ctx context.Context, userID, graphID string, folderID *string) (*models.Graph, error)

	// SetDocuments replaces the referenced document set. The graph's
	// effective visibility is recomputed synchronously.
	SetDocuments(ctx context.Context, userID, graphID string, documentIDs []string) (*models.Graph, error)

	// EffectiveVisibility returns the graph's derived visibility and any
	// documents that would block a public upgrade.
	EffectiveVisibility(ctx context.Context, userID, graphID string) (models.Visibility, []string, error)

	DeleteGraph(ctx context.Context, userID, graphID string) error
	ListByFolder(ctx context.Context, userID, folderID string) ([]models.Graph, error)
}

// CreateGraphRequest carries graph creation input.
type CreateGraphRequest struct {
	UserID      string   `json:"-"`
	Name        string   `json:"name"`
	FolderID    *string  `json:"folder_id,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}
