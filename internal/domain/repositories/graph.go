package repositories

import (
	"context"

	"lodestar/internal/domain/models"
)

// GraphRepository persists graphs and their document reference sets.
type GraphRepository interface {
	Create(ctx context.Context, graph *models.Graph) error
	GetByID(ctx context.Context, id string) (*models.Graph, error)
	Rename(ctx context.Context, id, name string) error
	Move(ctx context.Context, id string, folderID *string, owner models.Owner) error
	Delete(ctx context.Context, id string) error
	ListByFolder(ctx context.Context, folderID string) ([]models.Graph, error)

	// SetDocuments replaces the graph's referenced document set.
	SetDocuments(ctx context.Context, graphID string, documentIDs []string) error

	// ListReferencingDocument returns graphs that reference the document.
	ListReferencingDocument(ctx context.Context, documentID string) ([]models.Graph, error)

	// DetachFromFolder un-files every graph in the folder, transferring
	// direct ownership to the given owner.
	DetachFromFolder(ctx context.Context, folderID string, owner models.Owner) error
}
