package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"coursedrip/config"
	"coursedrip/content"
	"coursedrip/middleware"
	"coursedrip/routes"
	"coursedrip/sequencer"
	"coursedrip/utils"
	"coursedrip/worker"
)

func main() {
	logger := log.New(os.Stdout, "DELIVERY: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry init failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Seed the shipped campaign definitions; idempotent, validates content
	// and fails fast on configuration errors
	seedLogger := log.New(os.Stdout, "SEED: ", log.LstdFlags)
	if err := sequencer.SyncSequences(config.DB, content.All(), seedLogger); err != nil {
		logger.Fatalf("Failed to seed sequences: %v", err)
	}

	// Create Fiber app
	app := fiber.New()
	app.Use(middleware.CORS())

	mailer := utils.NewSMTPMailer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
		config.AppConfig.FromEmail,
		config.AppConfig.FromName,
	)

	// Start the delivery sweep worker
	deliveryWorker := worker.NewDeliveryWorker(config.DB, mailer, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deliveryWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, mailer)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
