package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/gruppe-adler/demcache/internal/metrics"
)

// NewApp creates the fiber app with all routes.
func NewApp(deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "demcache",
		BodyLimit:             8 * 1024 * 1024,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	SetupRoutes(app, deps)
	return app
}

// SetupRoutes registers all routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(requestid.New())
	app.Use(AccessLogMiddleware())

	app.Get("/health", HealthHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/dem", GenerateHandler(deps))
	v1.Post("/elevation", ElevationHandler(deps))
	v1.Get("/cache", CacheHandler(deps))
	v1.Delete("/cache", ClearCacheHandler(deps))
	v1.Delete("/cache/tiles", ClearTilesHandler(deps))
}
