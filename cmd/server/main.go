package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"lodestar/internal/auth"
	"lodestar/internal/config"
	"lodestar/internal/handler"
	"lodestar/internal/middleware"
	"lodestar/internal/repository/postgres"
	"lodestar/internal/service/authz"
	"lodestar/internal/service/content"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	domainServices "lodestar/internal/domain/services"
)

const capabilityCacheTTL = 30 * time.Second

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier against the identity provider
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgres.NewFolderRepository(repoConfig)
	docRepo := postgres.NewDocumentRepository(repoConfig)
	graphRepo := postgres.NewGraphRepository(repoConfig)
	grantRepo := postgres.NewGrantRepository(repoConfig)
	membershipRepo := postgres.NewMembershipRepository(repoConfig)
	teamRepo := postgres.NewTeamRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Load the embedded permission catalog
	catalog, err := authz.NewCatalog()
	if err != nil {
		log.Fatalf("Failed to load permission catalog: %v", err)
	}
	logger.Info("permission catalog loaded",
		"capabilities", len(catalog.Capabilities()),
		"roles", len(catalog.Roles()),
	)

	// Optional Redis-backed capability cache. The engine runs identically
	// without it.
	var capCache domainServices.CapabilityCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse REDIS_URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()

		capCache = authz.NewRedisCapabilityCache(redisClient, capabilityCacheTTL, logger)
		logger.Info("capability cache enabled", "ttl", capabilityCacheTTL)
	} else {
		logger.Info("capability cache disabled")
	}

	// Authorization engine
	evaluator := authz.NewEvaluator(grantRepo, membershipRepo, folderRepo, catalog, capCache, logger)
	validator := authz.NewVisibilityValidator(graphRepo, docRepo, folderRepo)

	// Content services
	folderService := content.NewFolderService(folderRepo, docRepo, graphRepo, grantRepo, membershipRepo, evaluator, validator, txManager, capCache, logger)
	grantService := content.NewGrantService(grantRepo, evaluator, catalog, txManager, capCache, logger)
	docService := content.NewDocumentService(docRepo, folderRepo, evaluator, txManager, logger)
	graphService := content.NewGraphService(graphRepo, docRepo, folderRepo, evaluator, validator, txManager, logger)
	teamService := content.NewTeamService(teamRepo, membershipRepo, txManager, capCache, logger)

	// Handlers
	folderHandler := handler.NewFolderHandler(folderService, docService, graphService, logger)
	grantHandler := handler.NewGrantHandler(grantService, logger)
	docHandler := handler.NewDocumentHandler(docService, logger)
	graphHandler := handler.NewGraphHandler(graphService, logger)
	teamHandler := handler.NewTeamHandler(teamService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Folder routes
	mux.HandleFunc("GET /api/folders", folderHandler.ListFolders)
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.GetFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.DeleteFolder)
	mux.HandleFunc("POST /api/folders/{id}/visibility", folderHandler.SetVisibility)
	mux.HandleFunc("POST /api/folders/{id}/transfer", folderHandler.TransferOwnership)
	mux.HandleFunc("GET /api/folders/{id}/documents", folderHandler.ListDocuments)
	mux.HandleFunc("GET /api/folders/{id}/graphs", folderHandler.ListGraphs)

	// Sharing routes
	mux.HandleFunc("GET /api/folders/{id}/grants", grantHandler.ListGrants)
	mux.HandleFunc("POST /api/folders/{id}/grants", grantHandler.CreateGrant)
	mux.HandleFunc("DELETE /api/folders/{id}/grants", grantHandler.DeleteGrant)
	mux.HandleFunc("GET /api/folders/{id}/capabilities", grantHandler.GetCapabilities)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", docHandler.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)

	// Graph routes
	mux.HandleFunc("POST /api/graphs", graphHandler.CreateGraph)
	mux.HandleFunc("GET /api/graphs/{id}", graphHandler.GetGraph)
	mux.HandleFunc("PATCH /api/graphs/{id}", graphHandler.UpdateGraph)
	mux.HandleFunc("DELETE /api/graphs/{id}", graphHandler.DeleteGraph)
	mux.HandleFunc("PUT /api/graphs/{id}/documents", graphHandler.SetDocuments)
	mux.HandleFunc("GET /api/graphs/{id}/visibility", graphHandler.GetVisibility)

	// Team routes
	mux.HandleFunc("POST /api/teams", teamHandler.CreateTeam)
	mux.HandleFunc("GET /api/teams/{id}", teamHandler.GetTeam)
	mux.HandleFunc("DELETE /api/teams/{id}", teamHandler.DeleteTeam)
	mux.HandleFunc("POST /api/teams/{id}/members", teamHandler.AddMember)
	mux.HandleFunc("DELETE /api/teams/{id}/members/{userID}", teamHandler.RemoveMember)

	// Public discovery
	mux.HandleFunc("GET /api/discover", folderHandler.Discover)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Routes
	httpHandler = middleware.AuthMiddleware(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
