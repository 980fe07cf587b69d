package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// Pinger reports whether a backing dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps carries everything RegisterRoutes wires. DB and Metrics are optional.
type Deps struct {
	DB        Pinger
	Documents service.DocumentService
	Auth      service.AuthService
	Metrics   prometheus.Gatherer
}

// HealthCheck pings the database. Without one it always reports healthy.
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. The
// document API lives under /api and requires a bearer token.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", Register(deps.Auth))
	auth.Post("/login", Login(deps.Auth))
	auth.Post("/logout", Logout(deps.Auth))

	docs := api.Group("/documents", middleware.Auth(deps.Auth))
	docs.Get("/", ListDocuments(deps.Documents))
	docs.Get("/category/:category", ListByCategory(deps.Documents))
	docs.Post("/upload", UploadDocument(deps.Documents))
	docs.Get("/download/:id", DownloadDocument(deps.Documents))
	docs.Get("/:id", GetDocument(deps.Documents))
	docs.Put("/:id", UpdateDocument(deps.Documents))
	docs.Delete("/:id", DeleteDocument(deps.Documents))
}
