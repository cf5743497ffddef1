package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"expense-ingest/internal/api"
	"expense-ingest/internal/api/handlers"
	"expense-ingest/internal/classifier"
	"expense-ingest/internal/repository"
	"expense-ingest/internal/service"
	"expense-ingest/pkg/auth"
	"expense-ingest/pkg/config"
	"expense-ingest/pkg/logger"
	"expense-ingest/pkg/postgres"

	"go.uber.org/zap"
)

// @title Expense Ingest API
// @version 1.0
// @description Imports bank statements and classifies every debit into a spending category.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting expense-ingest service")

	// Initialize database
	ctx := context.Background()
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, &cfg.Database, "up", appLogger); err != nil {
			appLogger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db, logger.Named("categories"))
	expenseRepo := repository.NewExpenseRepository(db, logger.Named("expenses"))
	statementRepo := repository.NewStatementRepository(db, logger.Named("statements"))

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey)

	// Initialize classification
	keywords, err := service.LoadKeywords(&cfg.Classifier, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load keyword table", zap.Error(err))
	}
	model, err := service.NewModelProvider(ctx, cfg, keywords, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize external classifier", zap.Error(err))
	}
	defer model.Close()

	cls := classifier.New(expenseRepo, keywords, model.Classifier, logger.Named("classifier"))

	// Initialize services
	dispatcher := service.NewStatementDispatcher(cfg, appLogger)
	ingestionService := service.NewIngestionService(dispatcher, cls, categoryRepo, expenseRepo, statementRepo, logger.Named("ingestion"))
	feedbackService := service.NewFeedbackService(expenseRepo, categoryRepo, model.Feedback, logger.Named("feedback"))

	// Initialize handlers
	expenseHandler := handlers.NewExpenseHandler(ingestionService, feedbackService, appLogger)
	statementHandler := handlers.NewStatementHandler(ingestionService, appLogger)

	// Setup router
	requestCtx, cancelRequests := context.WithCancel(ctx)
	defer cancelRequests()

	app := api.SetupRouter(expenseHandler, statementHandler, jwtManager, api.RouterConfig{
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		AccessLog:    true,
		BaseContext:  requestCtx,
	}, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	cancelRequests()
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
