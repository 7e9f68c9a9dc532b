package main

import (
	"context"
	stdsql "database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/orglens/orglens-engine/pkg/config"
	"github.com/orglens/orglens-engine/pkg/database"
	"github.com/orglens/orglens-engine/pkg/extract"
	"github.com/orglens/orglens-engine/pkg/handlers"
	"github.com/orglens/orglens-engine/pkg/llm"
	"github.com/orglens/orglens-engine/pkg/middleware"
	"github.com/orglens/orglens-engine/pkg/repositories"
	"github.com/orglens/orglens-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("llm_endpoint", cfg.LLM.Endpoint),
		zap.String("llm_model", cfg.LLM.Model))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrationDB, err := stdsql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	llmClient, err := llm.NewClient(&llm.Config{
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  cfg.LLM.Timeout(),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create completion client", zap.Error(err))
	}

	// Repositories
	documentRepo := repositories.NewDocumentRepository(db)
	cacheRepo := repositories.NewCacheRepository(db)
	historyRepo := repositories.NewQueryHistoryRepository(db)
	schemaRepo := repositories.NewSchemaRepository(db)
	jobRepo := repositories.NewJobRepository(db)

	// Services
	embedder := services.NewEmbedder(llmClient, cfg.LLM.EmbeddingModel, cfg.Engine.EmbedBatchSize, cfg.LLM.EmbeddingDimensions, logger)
	synthesizer := services.NewSynthesizer(llmClient, logger)
	discovery := services.NewSchemaDiscovery(schemaRepo, jobRepo, nil, cfg.Engine.SynonymsPath, logger)
	structured := services.NewStructuredRetriever(synthesizer, discovery, nil, cfg.Engine.MaxRows, logger)
	semantic := services.NewSemanticRetriever(documentRepo, embedder, cfg.Engine.TopK, logger)
	cache := services.NewQueryCache(cacheRepo, cfg.Engine.CacheTTL(), logger)
	history := services.NewQueryHistoryService(historyRepo, logger)
	engine := services.NewEngine(services.NewClassifier(), cache, structured, semantic, history, logger)
	ingestion := services.NewIngestionService(documentRepo, jobRepo, extract.NewPlainTextExtractor(), services.NewChunker(), embedder, logger)
	jobService := services.NewJobService(jobRepo)
	documentService := services.NewDocumentService(documentRepo, logger)

	go cache.RunPruner(ctx, cfg.Engine.CachePruneInterval())

	// Handlers
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(engine, history, logger).RegisterRoutes(mux)
	handlers.NewIngestHandler(ingestion, discovery, cfg.Engine.MaxUploadBytes, logger).RegisterRoutes(mux)
	handlers.NewSchemaHandler(discovery, logger).RegisterRoutes(mux)
	handlers.NewJobsHandler(jobService, logger).RegisterRoutes(mux)
	handlers.NewDocumentsHandler(documentService, logger).RegisterRoutes(mux)

	handler := middleware.CORS()(middleware.RequestLogger(logger)(mux))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting orglens-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
