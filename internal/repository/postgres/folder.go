package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"lodestar/internal/domain"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/repositories"
)

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const folderColumns = `id, name, owner_type, owner_user_id, owner_team_id, visibility, created_at, updated_at`

func scanFolder(row interface{ Scan(...interface{}) error }) (*models.Folder, error) {
	var f models.Folder
	var ownerType, visibility string
	err := row.Scan(
		&f.ID,
		&f.Name,
		&ownerType,
		&f.Owner.UserID,
		&f.Owner.TeamID,
		&visibility,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.Owner.Type = models.OwnerType(ownerType)
	f.Visibility = models.Visibility(visibility)
	return &f, nil
}

// Create creates a new folder. The ownership-exclusivity invariant is
// validated before the row is written.
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if err := folder.Owner.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, owner_type, owner_user_id, owner_team_id, visibility, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING created_at, updated_at
	`, r.tables.Folders)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		folder.ID,
		folder.Name,
		string(folder.Owner.Type),
		folder.Owner.UserID,
		folder.Owner.TeamID,
		string(folder.Visibility),
		time.Now(),
	).Scan(&folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("folder '%s': %w", folder.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, folderColumns, r.tables.Folders)

	folder, err := scanFolder(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

// Rename updates the folder name
func (r *PostgresFolderRepository) Rename(ctx context.Context, id, name string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $1, updated_at = NOW() WHERE id = $2
	`, r.tables.Folders)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, name, id)
	if err != nil {
		return fmt.Errorf("rename folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpdateVisibility updates the folder visibility
func (r *PostgresFolderRepository) UpdateVisibility(ctx context.Context, id string, v models.Visibility) error {
	query := fmt.Sprintf(`
		UPDATE %s SET visibility = $1, updated_at = NOW() WHERE id = $2
	`, r.tables.Folders)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, string(v), id)
	if err != nil {
		return fmt.Errorf("update folder visibility: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpdateOwner re-records the folder owner. Exclusivity is validated before
// the write; grants are intentionally untouched.
func (r *PostgresFolderRepository) UpdateOwner(ctx context.Context, id string, owner models.Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET owner_type = $1, owner_user_id = $2, owner_team_id = $3, updated_at = NOW()
		WHERE id = $4
	`, r.tables.Folders)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		string(owner.Type), owner.UserID, owner.TeamID, id)
	if err != nil {
		return fmt.Errorf("update folder owner: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a folder
func (r *PostgresFolderRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Folders)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListOwnedBy returns folders owned by the user or any of the teams
func (r *PostgresFolderRepository) ListOwnedBy(ctx context.Context, userID string, teamIDs []string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE (owner_type = 'user' AND owner_user_id = $1)
		   OR (owner_type = 'team' AND owner_team_id = ANY($2))
		ORDER BY name ASC
	`, folderColumns, r.tables.Folders)

	if teamIDs == nil {
		teamIDs = []string{}
	}

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, userID, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("list owned folders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// ListPublic returns public folders for discovery listings
func (r *PostgresFolderRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE visibility = 'public'
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`, folderColumns, r.tables.Folders)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list public folders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}
