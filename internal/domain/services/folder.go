package services

import (
	"context"

	"lodestar/internal/domain/models"
)

// FolderService handles folder lifecycle and visibility business logic.
type FolderService interface {
	// CreateFolder creates a folder and seeds the creator's Admin grant in
	// the same transaction.
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error)

	// GetFolder retrieves a folder the subject can read.
	GetFolder(ctx context.Context, userID, folderID string) (*models.Folder, error)

	// RenameFolder renames a folder (requires folder:write).
	RenameFolder(ctx context.Context, userID, folderID, name string) (*models.Folder, error)

	// SetVisibility changes a folder's visibility (requires folder:admin).
	// Upgrades to public are validated against every graph in the folder.
	SetVisibility(ctx context.Context, userID, folderID string, v models.Visibility) (*models.Folder, error)

	// TransferOwnership re-records the folder's owner. Grants are left
	// untouched: recorded ownership of a filed folder never implies access.
	TransferOwnership(ctx context.Context, userID, folderID string, newOwner models.Owner) (*models.Folder, error)

	// DeleteFolder deletes a folder (requires folder:admin), detaching
	// contained documents and graphs to the folder owner's direct ownership.
	DeleteFolder(ctx context.Context, userID, folderID string) error

	// ListFolders lists folders owned by the subject or their teams.
	ListFolders(ctx context.Context, userID string) ([]models.Folder, error)

	// Discover lists public folders.
	Discover(ctx context.Context, limit, offset int) ([]models.Folder, error)
}

// CreateFolderRequest carries folder creation input.
type CreateFolderRequest struct {
	UserID     string            `json:"-"`
	Name       string            `json:"name"`
	Visibility models.Visibility `json:"visibility,omitempty"`
	TeamID     *string           `json:"team_id,omitempty"` // create as team-owned
}
