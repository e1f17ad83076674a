package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"

	"github.com/conservetrack/conservedb/internal/config"
	"github.com/conservetrack/conservedb/internal/database"
	"github.com/conservetrack/conservedb/internal/handlers"
	"github.com/conservetrack/conservedb/internal/middleware"

	_ "github.com/conservetrack/conservedb/docs/api" // Swagger docs
)

// @title ConserveDB API
// @version 1.0.0
// @description Conservation coverage statistics service: bulk imports and aggregated rollups
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/conservetrack/conservedb

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /api
// @schemes http https

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("conservedb")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")

	// Version middleware
	api.Use(middleware.VersionMiddleware())

	// Create handlers
	statsHandler := &handlers.StatsHandler{DB: db}
	locationsHandler := &handlers.LocationsHandler{DB: db}
	pasHandler := &handlers.ProtectedAreasHandler{DB: db}
	aggregatedHandler := &handlers.AggregatedStatsHandler{DB: db}
	healthHandler := &handlers.HealthHandler{Cfg: cfg, DB: db}

	// Bulk import routes
	stats := api.Group("/stats")
	stats.Post("/protection-coverage/:year", statsHandler.UpsertProtectionCoverage)
	stats.Post("/habitat-coverage/:year", statsHandler.UpsertHabitatCoverage)
	stats.Post("/mpaa-protection-level", statsHandler.UpsertMpaaProtectionLevels)
	stats.Post("/fishing-protection-level", statsHandler.UpsertFishingProtectionLevels)

	api.Post("/locations", locationsHandler.Upsert)
	api.Post("/pas", pasHandler.Upsert)
	api.Patch("/pas", pasHandler.Patch)

	// Read routes
	api.Get("/aggregated-stats", aggregatedHandler.Get)
	api.Get("/health", healthHandler.Get)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}
