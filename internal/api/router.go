package api

import (
	"context"
	"time"

	"expense-ingest/docs"
	"expense-ingest/internal/api/handlers"
	"expense-ingest/pkg/auth"
	"expense-ingest/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type RouterConfig struct {
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// AccessLog enables fiber's request logger
	AccessLog bool
	// BaseContext, when set, parents every request context and is
	// cancelled on shutdown
	BaseContext context.Context
}

func SetupRouter(
	expenseHandler *handlers.ExpenseHandler,
	statementHandler *handlers.StatementHandler,
	jwtManager *auth.JWTManager,
	cfg RouterConfig,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	if cfg.AccessLog {
		app.Use(logger.New())
	}
	if cfg.BaseContext != nil {
		app.Use(middleware.RequestContext(cfg.BaseContext))
	}

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	expenses := protected.Group("/expenses")
	expenses.Post("/upload", expenseHandler.UploadStatement)
	expenses.Post("/:id/feedback", expenseHandler.SubmitFeedback)

	protected.Post("/ml/retrain", expenseHandler.Retrain)
	protected.Get("/statements", statementHandler.ListStatements)

	return app
}
