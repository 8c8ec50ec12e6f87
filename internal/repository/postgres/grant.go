package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"lodestar/internal/domain"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/repositories"
)

// PostgresGrantRepository implements the GrantRepository interface
type PostgresGrantRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(config *RepositoryConfig) repositories.GrantRepository {
	return &PostgresGrantRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// roleID resolves a folder-scoped role name to its id
func (r *PostgresGrantRepository) roleID(ctx context.Context, roleName string) (string, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s WHERE name = $1 AND scope = $2
	`, r.tables.Roles)

	var id string
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, roleName, string(models.ScopeFolder)).Scan(&id)
	if err != nil {
		if isPgNoRowsError(err) {
			return "", fmt.Errorf("role %q: %w", roleName, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get role id: %w", err)
	}
	return id, nil
}

// Create inserts a grant. The unique (subject_kind, subject_id, folder_id,
// role_id) constraint makes concurrent duplicate grants a no-op rather than
// an error: idempotent grant semantics.
func (r *PostgresGrantRepository) Create(ctx context.Context, grant *models.Grant) error {
	roleID, err := r.roleID(ctx, grant.RoleName)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (subject_kind, subject_id, folder_id, role_id, granted_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (subject_kind, subject_id, folder_id, role_id) DO NOTHING
		RETURNING id, created_at
	`, r.tables.Grants)

	err = GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		string(grant.SubjectKind),
		grant.SubjectID,
		grant.FolderID,
		roleID,
		grant.GrantedBy,
	).Scan(&grant.ID, &grant.CreatedAt)

	if err != nil {
		if isPgNoRowsError(err) {
			// Conflict path: the grant already exists. Treated as success.
			return nil
		}
		if isPgForeignKeyError(err) {
			return fmt.Errorf("grant references missing folder or subject: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create grant: %w", err)
	}

	return nil
}

// Delete removes a grant by its natural key
func (r *PostgresGrantRepository) Delete(ctx context.Context, kind models.SubjectKind, subjectID, folderID, roleName string) error {
	roleID, err := r.roleID(ctx, roleName)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE subject_kind = $1 AND subject_id = $2 AND folder_id = $3 AND role_id = $4
	`, r.tables.Grants)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, string(kind), subjectID, folderID, roleID)
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("grant for %s %s on folder %s: %w", kind, subjectID, folderID, domain.ErrNotFound)
	}

	return nil
}

// RolesForUserOnFolder returns role names directly granted to the user
func (r *PostgresGrantRepository) RolesForUserOnFolder(ctx context.Context, userID, folderID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT ro.name
		FROM %s g
		JOIN %s ro ON ro.id = g.role_id
		WHERE g.subject_kind = $1 AND g.subject_id = $2 AND g.folder_id = $3
	`, r.tables.Grants, r.tables.Roles)

	return r.scanRoleNames(ctx, query, string(models.SubjectUser), userID, folderID)
}

// RolesForTeamsOnFolder returns role names granted to any of the teams
func (r *PostgresGrantRepository) RolesForTeamsOnFolder(ctx context.Context, teamIDs []string, folderID string) ([]string, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT ro.name
		FROM %s g
		JOIN %s ro ON ro.id = g.role_id
		WHERE g.subject_kind = $1 AND g.subject_id = ANY($2) AND g.folder_id = $3
	`, r.tables.Grants, r.tables.Roles)

	return r.scanRoleNames(ctx, query, string(models.SubjectTeam), teamIDs, folderID)
}

func (r *PostgresGrantRepository) scanRoleNames(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list grant roles: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan role name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grant roles: %w", err)
	}

	return names, nil
}

// ListForFolder returns every grant on a folder
func (r *PostgresGrantRepository) ListForFolder(ctx context.Context, folderID string) ([]models.Grant, error) {
	query := fmt.Sprintf(`
		SELECT g.id, g.subject_kind, g.subject_id, g.folder_id, ro.name, g.granted_by, g.created_at
		FROM %s g
		JOIN %s ro ON ro.id = g.role_id
		WHERE g.folder_id = $1
		ORDER BY g.created_at ASC
	`, r.tables.Grants, r.tables.Roles)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var grants []models.Grant
	for rows.Next() {
		var g models.Grant
		var kind string
		if err := rows.Scan(&g.ID, &kind, &g.SubjectID, &g.FolderID, &g.RoleName, &g.GrantedBy, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		g.SubjectKind = models.SubjectKind(kind)
		grants = append(grants, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}

	return grants, nil
}

// DeleteForFolder removes all grants on a folder
func (r *PostgresGrantRepository) DeleteForFolder(ctx context.Context, folderID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE folder_id = $1`, r.tables.Grants)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, folderID); err != nil {
		return fmt.Errorf("delete grants for folder: %w", err)
	}
	return nil
}
