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

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const documentColumns = `id, name, folder_id, owner_type, owner_user_id, owner_team_id, created_at, updated_at`

func scanDocument(row interface{ Scan(...interface{}) error }) (*models.Document, error) {
	var d models.Document
	var ownerType string
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.FolderID,
		&ownerType,
		&d.Owner.UserID,
		&d.Owner.TeamID,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Owner.Type = models.OwnerType(ownerType)
	return &d, nil
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if err := doc.Owner.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, folder_id, owner_type, owner_user_id, owner_team_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING created_at, updated_at
	`, r.tables.Documents)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		doc.ID,
		doc.Name,
		doc.FolderID,
		string(doc.Owner.Type),
		doc.Owner.UserID,
		doc.Owner.TeamID,
		time.Now(),
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("folder for document: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	doc, err := scanDocument(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// Rename updates the document name
func (r *PostgresDocumentRepository) Rename(ctx context.Context, id, name string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $1, updated_at = NOW() WHERE id = $2
	`, r.tables.Documents)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, name, id)
	if err != nil {
		return fmt.Errorf("rename document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Move re-files the document and records its owner in one statement so the
// filed/un-filed lifecycle invariant can never be observed half-applied.
func (r *PostgresDocumentRepository) Move(ctx context.Context, id string, folderID *string, owner models.Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET folder_id = $1, owner_type = $2, owner_user_id = $3, owner_team_id = $4, updated_at = NOW()
		WHERE id = $5
	`, r.tables.Documents)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		folderID, string(owner.Type), owner.UserID, owner.TeamID, id)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("target folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("move document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a document
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListByFolder lists documents in a folder
func (r *PostgresDocumentRepository) ListByFolder(ctx context.Context, folderID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE folder_id = $1 ORDER BY name ASC
	`, documentColumns, r.tables.Documents)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// DetachFromFolder un-files every document in the folder under the given
// direct owner
func (r *PostgresDocumentRepository) DetachFromFolder(ctx context.Context, folderID string, owner models.Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET folder_id = NULL, owner_type = $1, owner_user_id = $2, owner_team_id = $3, updated_at = NOW()
		WHERE folder_id = $4
	`, r.tables.Documents)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		string(owner.Type), owner.UserID, owner.TeamID, folderID); err != nil {
		return fmt.Errorf("detach documents: %w", err)
	}

	return nil
}
