package services

import (
	"context"

	"lodestar/internal/domain/models"
)

// DocumentService handles document metadata business logic.
type DocumentService interface {
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*models.Document, error)

	// GetDocument retrieves a document the subject can read. Denied reads of
	// filed documents are indistinguishable from missing ones.
	GetDocument(ctx context.Context, userID, documentID string) (*models.Document, error)

	RenameDocument(ctx context.Context, userID, documentID, name string) (*models.Document, error)

	// MoveDocument files, re-files or un-files a document. Graphs that
	// reference it have their effective visibility recomputed in the same
	// transaction.
	MoveDocument(ctx context.Context, userID, documentID string, folderID *string) (*models.Document, error)

	DeleteDocument(ctx context.Context, userID, documentID string) error
	ListByFolder(ctx context.Context, userID, folderID string) ([]models.Document, error)
}

// CreateDocumentRequest carries document creation input. FolderID nil creates
// an un-filed document owned directly by the creator.
type CreateDocumentRequest struct {
	UserID   string  `json:"-"`
	Name     string  `json:"name"`
	FolderID *string `json:"folder_id,omitempty"`
}
