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

// PostgresGraphRepository implements the GraphRepository interface
type PostgresGraphRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewGraphRepository creates a new graph repository
func NewGraphRepository(config *RepositoryConfig) repositories.GraphRepository {
	return &PostgresGraphRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const graphColumns = `id, name, folder_id, owner_type, owner_user_id, owner_team_id, created_at, updated_at`

func scanGraph(row interface{ Scan(...interface{}) error }) (*models.Graph, error) {
	var g models.Graph
	var ownerType string
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.FolderID,
		&ownerType,
		&g.Owner.UserID,
		&g.Owner.TeamID,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Owner.Type = models.OwnerType(ownerType)
	return &g, nil
}

// Create creates a new graph together with its document reference set
func (r *PostgresGraphRepository) Create(ctx context.Context, graph *models.Graph) error {
	if err := graph.Owner.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, folder_id, owner_type, owner_user_id, owner_team_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING created_at, updated_at
	`, r.tables.Graphs)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		graph.ID,
		graph.Name,
		graph.FolderID,
		string(graph.Owner.Type),
		graph.Owner.UserID,
		graph.Owner.TeamID,
		time.Now(),
	).Scan(&graph.CreatedAt, &graph.UpdatedAt)

	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("folder for graph: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create graph: %w", err)
	}

	if len(graph.DocumentIDs) > 0 {
		if err := r.SetDocuments(ctx, graph.ID, graph.DocumentIDs); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves a graph with its referenced document ids
func (r *PostgresGraphRepository) GetByID(ctx context.Context, id string) (*models.Graph, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, graphColumns, r.tables.Graphs)

	graph, err := scanGraph(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("graph %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get graph: %w", err)
	}

	docIDs, err := r.documentIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	graph.DocumentIDs = docIDs

	return graph, nil
}

func (r *PostgresGraphRepository) documentIDs(ctx context.Context, graphID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT document_id FROM %s WHERE graph_id = $1 ORDER BY document_id ASC
	`, r.tables.GraphDocuments)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, graphID)
	if err != nil {
		return nil, fmt.Errorf("list graph documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document ids: %w", err)
	}

	return ids, nil
}

// Rename updates the graph name
func (r *PostgresGraphRepository) Rename(ctx context.Context, id, name string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $1, updated_at = NOW() WHERE id = $2
	`, r.tables.Graphs)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, name, id)
	if err != nil {
		return fmt.Errorf("rename graph: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("graph %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Move re-files the graph and records its owner
func (r *PostgresGraphRepository) Move(ctx context.Context, id string, folderID *string, owner models.Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET folder_id = $1, owner_type = $2, owner_user_id = $3, owner_team_id = $4, updated_at = NOW()
		WHERE id = $5
	`, r.tables.Graphs)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		folderID, string(owner.Type), owner.UserID, owner.TeamID, id)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("target folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("move graph: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("graph %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a graph (its reference rows cascade)
func (r *PostgresGraphRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Graphs)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("graph %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListByFolder lists graphs in a folder with their document references
func (r *PostgresGraphRepository) ListByFolder(ctx context.Context, folderID string) ([]models.Graph, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE folder_id = $1 ORDER BY name ASC
	`, graphColumns, r.tables.Graphs)

	return r.listGraphs(ctx, query, folderID)
}

// ListReferencingDocument returns graphs that reference the document
func (r *PostgresGraphRepository) ListReferencingDocument(ctx context.Context, documentID string) ([]models.Graph, error) {
	query := fmt.Sprintf(`
		SELECT g.id, g.name, g.folder_id, g.owner_type, g.owner_user_id, g.owner_team_id, g.created_at, g.updated_at
		FROM %s g
		JOIN %s gd ON gd.graph_id = g.id
		WHERE gd.document_id = $1
	`, r.tables.Graphs, r.tables.GraphDocuments)

	return r.listGraphs(ctx, query, documentID)
}

func (r *PostgresGraphRepository) listGraphs(ctx context.Context, query string, args ...interface{}) ([]models.Graph, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	defer rows.Close()

	var graphs []models.Graph
	for rows.Next() {
		graph, err := scanGraph(rows)
		if err != nil {
			return nil, fmt.Errorf("scan graph: %w", err)
		}
		graphs = append(graphs, *graph)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graphs: %w", err)
	}

	for i := range graphs {
		docIDs, err := r.documentIDs(ctx, graphs[i].ID)
		if err != nil {
			return nil, err
		}
		graphs[i].DocumentIDs = docIDs
	}

	return graphs, nil
}

// SetDocuments replaces the graph's referenced document set
func (r *PostgresGraphRepository) SetDocuments(ctx context.Context, graphID string, documentIDs []string) error {
	executor := GetExecutor(ctx, r.pool)

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE graph_id = $1`, r.tables.GraphDocuments)
	if _, err := executor.Exec(ctx, deleteQuery, graphID); err != nil {
		return fmt.Errorf("clear graph documents: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (graph_id, document_id)
		VALUES ($1, $2)
		ON CONFLICT (graph_id, document_id) DO NOTHING
	`, r.tables.GraphDocuments)

	for _, docID := range documentIDs {
		if _, err := executor.Exec(ctx, insertQuery, graphID, docID); err != nil {
			if isPgForeignKeyError(err) {
				return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
			}
			return fmt.Errorf("add graph document: %w", err)
		}
	}

	return nil
}

// DetachFromFolder un-files every graph in the folder under the given owner
func (r *PostgresGraphRepository) DetachFromFolder(ctx context.Context, folderID string, owner models.Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET folder_id = NULL, owner_type = $1, owner_user_id = $2, owner_team_id = $3, updated_at = NOW()
		WHERE folder_id = $4
	`, r.tables.Graphs)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		string(owner.Type), owner.UserID, owner.TeamID, folderID); err != nil {
		return fmt.Errorf("detach graphs: %w", err)
	}

	return nil
}
