// Package app assembles repositories, services, handlers and middleware into
// a ready-to-serve Fiber application.
package app

import (
	"errors"
	"fmt"
	"time"

	"sweetshop/internal/config"
	"sweetshop/internal/handlers"
	"sweetshop/internal/middleware"
	"sweetshop/internal/repositories"
	"sweetshop/internal/services"
	"sweetshop/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Repositories bundles the storage implementations the services need.
type Repositories struct {
	Sweets   repositories.SweetRepository
	Accounts repositories.AccountRepository
}

// OpenRepositories returns repositories for the configured driver and a
// function releasing the underlying connection.
func OpenRepositories(cfg *config.Config) (Repositories, func() error, error) {
	if cfg.DBDriver == config.DriverMemory {
		return Repositories{
			Sweets:   repositories.NewMockSweetRepository(),
			Accounts: repositories.NewMockAccountRepository(),
		}, func() error { return nil }, nil
	}

	db, err := repositories.OpenDatabase(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return Repositories{}, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return Repositories{}, nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	return Repositories{
		Sweets:   repositories.NewGORMSweetRepository(db),
		Accounts: repositories.NewGORMAccountRepository(db),
	}, sqlDB.Close, nil
}

// App is the assembled HTTP application.
type App struct {
	Fiber        *fiber.App
	AuthService  *services.AuthService
	SweetService *services.SweetService
}

// New wires the application. publisher may be nil to disable stock events.
func New(cfg *config.Config, repos Repositories, publisher services.EventPublisher) *App {
	authService := services.NewAuthService(repos.Accounts, cfg.JWTSecret, cfg.TokenTTL)
	sweetService := services.NewSweetService(repos.Sweets, publisher, cfg.LowStockThreshold)

	validate := validation.New()
	authHandler := handlers.NewAuthHandler(authService, validate)
	sweetHandler := handlers.NewSweetHandler(sweetService, validate)

	app := fiber.New(fiber.Config{
		AppName:      "Sweet Shop",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: cfg.FrontendURL != "*",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API is running...")
	})

	events := "disabled"
	if publisher != nil {
		events = "enabled"
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": events,
		})
	})

	api := app.Group("/api")

	// Authentication routes (public). Registered before the protected group
	// so the auth gate never runs for them.
	authHandler.RegisterRoutes(api)

	protected := api.Group("", middleware.AuthRequired(authService))
	sweetHandler.RegisterRoutes(protected)

	return &App{
		Fiber:        app,
		AuthService:  authService,
		SweetService: sweetService,
	}
}

// errorHandler renders framework errors (unknown routes, panics recovered by
// the recover middleware) in the same {message} shape as handler errors.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"message": msg})
}
