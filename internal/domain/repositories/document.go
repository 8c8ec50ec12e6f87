package repositories

import (
	"context"

	"lodestar/internal/domain/models"
)

// DocumentRepository persists document metadata. Content bytes live in an
// external store and are out of scope here.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	Rename(ctx context.Context, id, name string) error

	// Move re-files the document: a nil folderID un-files it under the given
	// direct owner; otherwise owner records the containing folder's owner.
	Move(ctx context.Context, id string, folderID *string, owner models.Owner) error

	Delete(ctx context.Context, id string) error
	ListByFolder(ctx context.Context, folderID string) ([]models.Document, error)

	// DetachFromFolder un-files every document in the folder, transferring
	// direct ownership to the given owner. Used by folder deletion.
	DetachFromFolder(ctx context.Context, folderID string, owner models.Owner) error
}
