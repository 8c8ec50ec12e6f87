package repositories

import (
	"context"

	"lodestar/internal/domain/models"
)

// FolderRepository persists folders, their ownership and visibility.
type FolderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	Rename(ctx context.Context, id, name string) error
	UpdateVisibility(ctx context.Context, id string, v models.Visibility) error
	UpdateOwner(ctx context.Context, id string, owner models.Owner) error
	Delete(ctx context.Context, id string) error

	// ListOwnedBy returns folders owned by the user or any of the teams.
	ListOwnedBy(ctx context.Context, userID string, teamIDs []string) ([]models.Folder, error)

	// ListPublic returns public folders for discovery listings.
	ListPublic(ctx context.Context, limit, offset int) ([]models.Folder, error)
}
