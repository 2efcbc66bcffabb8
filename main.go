package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sweetshop/internal/app"
	"sweetshop/internal/config"
	"sweetshop/internal/models"
	"sweetshop/internal/services"
	"sweetshop/pkg/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run wires the service and blocks until SIGINT or SIGTERM.
func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// --- Initialize Repositories ---
	repos, closeRepos, err := app.OpenRepositories(cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.DBDriver, err)
	}
	defer func() {
		if err := closeRepos(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// --- Initialize RabbitMQ Client (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("Warning: stock events disabled, RabbitMQ unavailable: %v", err)
		} else {
			defer mqClient.Close()
			publisher = mqClient

			if err := mqClient.ConsumeStockEvents(rabbitmq.LogStockEvent); err != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", err)
			}
		}
	}

	// --- Initialize App ---
	application := app.New(cfg, repos, publisher)

	ctx := context.Background()
	if cfg.Admin.Enabled() {
		if _, err := application.AuthService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return fmt.Errorf("failed to bootstrap administrator: %w", err)
		}
	}
	if cfg.DBDriver == config.DriverMemory {
		seedSweets(ctx, application.SweetService)
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- application.Fiber.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}
	log.Println("Shutting down server...")

	if err := application.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
	return nil
}

// seedSweets populates the in-memory store so a demo instance is not empty.
func seedSweets(ctx context.Context, service *services.SweetService) {
	sweets := []models.Sweet{
		{Name: "Lollipop", Category: "Candy", Price: 10, Quantity: 5},
		{Name: "Dark Chocolate", Category: "Chocolate", Price: 15, Quantity: 30},
		{Name: "Gulab Jamun", Category: "Traditional", Price: 25, Quantity: 12},
	}

	for i := range sweets {
		if err := service.CreateSweet(ctx, &sweets[i]); err != nil {
			log.Printf("Error seeding sweet %s: %v", sweets[i].Name, err)
		} else {
			log.Printf("Seeded sweet: %s (ID: %s)", sweets[i].Name, sweets[i].ID)
		}
	}
}
