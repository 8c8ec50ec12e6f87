package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"lodestar/internal/repository/postgres"
	"lodestar/internal/seed"
	"lodestar/internal/service/authz"

	"lodestar/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, skip the permission catalog")
	flag.Parse()

	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	// Seed the permission catalog from the embedded registry. Safe to run
	// repeatedly and concurrently: every insert is by natural key.
	catalog, err := authz.NewCatalog()
	if err != nil {
		log.Fatalf("Failed to load permission catalog: %v", err)
	}

	catalogRepo := postgres.NewCatalogRepository(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})

	if err := seed.Catalog(ctx, catalogRepo, catalog, logger); err != nil {
		log.Fatalf("Failed to seed permission catalog: %v", err)
	}

	log.Println("Seeding complete")
}

// runSchema creates every table and index the platform needs. All statements
// are idempotent so the seeder can run against an existing database.
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			email TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Teams + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			owner_user_id UUID NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.TeamMembers + ` (
			team_id UUID NOT NULL REFERENCES ` + tables.Teams + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			role TEXT NOT NULL DEFAULT 'member',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (team_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Capabilities + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Roles + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			scope TEXT NOT NULL,
			system BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE (name, scope)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.RoleCapabilities + ` (
			role_id UUID NOT NULL REFERENCES ` + tables.Roles + `(id) ON DELETE CASCADE,
			capability_id UUID NOT NULL REFERENCES ` + tables.Capabilities + `(id) ON DELETE CASCADE,
			PRIMARY KEY (role_id, capability_id)
		)`,

		// Ownership exclusivity is validated in the domain layer before every
		// write; the CHECK is the database-level backstop.
		`CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			owner_type TEXT NOT NULL,
			owner_user_id UUID,
			owner_team_id UUID,
			visibility TEXT NOT NULL DEFAULT 'private',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			CHECK ((owner_user_id IS NULL) <> (owner_team_id IS NULL))
		)`,

		// The unique constraint is what makes grant creation idempotent.
		`CREATE TABLE IF NOT EXISTS ` + tables.Grants + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			subject_kind TEXT NOT NULL,
			subject_id UUID NOT NULL,
			folder_id UUID NOT NULL REFERENCES ` + tables.Folders + `(id) ON DELETE CASCADE,
			role_id UUID NOT NULL REFERENCES ` + tables.Roles + `(id),
			granted_by UUID,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (subject_kind, subject_id, folder_id, role_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			folder_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE SET NULL,
			owner_type TEXT NOT NULL,
			owner_user_id UUID,
			owner_team_id UUID,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			CHECK ((owner_user_id IS NULL) <> (owner_team_id IS NULL))
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Graphs + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			folder_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE SET NULL,
			owner_type TEXT NOT NULL,
			owner_user_id UUID,
			owner_team_id UUID,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			CHECK ((owner_user_id IS NULL) <> (owner_team_id IS NULL))
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.GraphDocuments + ` (
			graph_id UUID NOT NULL REFERENCES ` + tables.Graphs + `(id) ON DELETE CASCADE,
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			PRIMARY KEY (graph_id, document_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `grants_folder ON ` + tables.Grants + `(folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `grants_subject ON ` + tables.Grants + `(subject_kind, subject_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `team_members_user ON ` + tables.TeamMembers + `(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_visibility ON ` + tables.Folders + `(visibility)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_folder ON ` + tables.Documents + `(folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `graphs_folder ON ` + tables.Graphs + `(folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `graph_documents_document ON ` + tables.GraphDocuments + `(document_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables removes every platform table, children first.
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	ordered := []string{
		tables.GraphDocuments,
		tables.Graphs,
		tables.Documents,
		tables.Grants,
		tables.RoleCapabilities,
		tables.Roles,
		tables.Capabilities,
		tables.Folders,
		tables.TeamMembers,
		tables.Teams,
		tables.Users,
	}

	for _, table := range ordered {
		if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS `+table+` CASCADE`); err != nil {
			return err
		}
	}
	return nil
}
