package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/governx-inc/governx-engine/pkg/atlas"
	"github.com/governx-inc/governx-engine/pkg/config"
	"github.com/governx-inc/governx-engine/pkg/database"
	"github.com/governx-inc/governx-engine/pkg/handlers"
	"github.com/governx-inc/governx-engine/pkg/llm"
	"github.com/governx-inc/governx-engine/pkg/logging"
	"github.com/governx-inc/governx-engine/pkg/middleware"
	"github.com/governx-inc/governx-engine/pkg/profiler"
	"github.com/governx-inc/governx-engine/pkg/repositories"
	"github.com/governx-inc/governx-engine/pkg/semantics"
	"github.com/governx-inc/governx-engine/pkg/services"
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
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("atlas", cfg.Atlas.BaseURL),
		zap.Bool("ai_available", cfg.AI.IsAvailable()))

	ctx := context.Background()

	// Migrations run through database/sql; the app itself uses pgxpool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.String("error", logging.SanitizeError(err)))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.String("error", logging.SanitizeError(err)))
	}
	migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:             cfg.Database.ConnectionString(),
		MaxConnections:  cfg.Database.MaxConnections,
		MaxConnLifetime: cfg.Database.ConnLifetime(),
		MaxConnIdleTime: cfg.Database.ConnIdleTime(),
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("url", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	snapshotRepo := repositories.NewSnapshotRepository(db)
	recommendationRepo := repositories.NewRecommendationRepository(db)
	profileRepo := repositories.NewProfileRepository(db)

	catalogClient := atlas.NewClient(atlas.Config{
		BaseURL:  cfg.Atlas.BaseURL,
		Username: cfg.Atlas.Username,
		Password: cfg.Atlas.Password,
		Timeout:  cfg.Atlas.Timeout(),
	}, logger)

	profileService := services.NewProfileService(
		profiler.New(logger),
		semantics.NewClusterer(logger),
		profileRepo,
		logger)
	syncService := services.NewSyncService(catalogClient, snapshotRepo, logger)
	recommendationService := services.NewRecommendationService(snapshotRepo, recommendationRepo, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewProfileHandler(profileService, logger).RegisterRoutes(mux)
	handlers.NewCatalogHandler(syncService, snapshotRepo, logger).RegisterRoutes(mux)
	handlers.NewRecommendationHandler(recommendationService, logger).RegisterRoutes(mux)

	// Suggestion routes only exist when a completion endpoint is configured.
	if cfg.AI.IsAvailable() {
		completionClient, err := llm.NewClient(&llm.Config{
			Endpoint:    cfg.AI.Endpoint,
			Model:       cfg.AI.Model,
			APIKey:      cfg.AI.APIKey,
			Temperature: cfg.AI.Temperature,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create completion client", zap.Error(err))
		}
		suggestionService := services.NewSuggestionService(snapshotRepo, recommendationRepo, completionClient, logger)
		handlers.NewSuggestionHandler(suggestionService, logger).RegisterRoutes(mux)
		logger.Info("Suggestion routes enabled", zap.String("model", completionClient.GetModel()))
	} else {
		logger.Warn("Completion endpoint not configured, suggestion routes disabled")
	}

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting governx-engine",
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
