package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"lodestar/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Users            string
	Teams            string
	TeamMembers      string
	Capabilities     string
	Roles            string
	RoleCapabilities string
	Grants           string
	Folders          string
	Documents        string
	Graphs           string
	GraphDocuments   string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Users:            fmt.Sprintf("%susers", prefix),
		Teams:            fmt.Sprintf("%steams", prefix),
		TeamMembers:      fmt.Sprintf("%steam_members", prefix),
		Capabilities:     fmt.Sprintf("%scapabilities", prefix),
		Roles:            fmt.Sprintf("%sroles", prefix),
		RoleCapabilities: fmt.Sprintf("%srole_capabilities", prefix),
		Grants:           fmt.Sprintf("%sgrants", prefix),
		Folders:          fmt.Sprintf("%sfolders", prefix),
		Documents:        fmt.Sprintf("%sdocuments", prefix),
		Graphs:           fmt.Sprintf("%sgraphs", prefix),
		GraphDocuments:   fmt.Sprintf("%sgraph_documents", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// If port 6543 is detected (transaction pooler), QueryExecModeCacheDescribe
// is used instead of prepared statements, which PgBouncer in transaction
// pooling mode does not support. An explicit default_query_exec_mode in the
// connection string takes precedence.
//
// Dynamic table prefixes (dev_, test_, prod_) are interpolated into SQL
// strings before they reach the database, so each environment gets its own
// statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
