// Command devserver runs the reference document backend the vault client talks to.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"docvault/internal/catalog"
	"docvault/internal/catalog/postgres"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/logger"
	"docvault/internal/otel"
	"docvault/internal/service"
	"docvault/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "devserver:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, "docvault-devserver", log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	deps := handlers.Deps{Metrics: prometheus.DefaultGatherer}

	var cat catalog.Catalog = catalog.NewMemory()
	if cfg.Server.Catalog == "postgres" {
		db, err := openCatalogDB(ctx, cfg.Server.Database, log)
		if err != nil {
			return err
		}
		defer db.Close()
		cat = postgres.NewCatalogPostgres(db)
		deps.DB = db
	}

	var blobs storage.Storage = storage.NewMemory()
	if cfg.Server.Storage == "minio" {
		blobs, err = storage.NewMinIO(ctx, cfg.Server.MinIO)
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
	}

	deps.Documents = service.NewDocumentService(blobs, cat, log)
	deps.Auth = service.NewAuthService(cat, cfg.Server.TokenTTL, log)

	prom, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})
	app.Use(middleware.RequestID())
	app.Use(middleware.Tracing(nil))
	app.Use(middleware.Logger(log))
	app.Use(prom.Handler())
	handlers.RegisterRoutes(app, deps)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Info("listening",
		zap.String("addr", addr),
		zap.String("public_host", cfg.Server.AppHost),
		zap.String("catalog", cfg.Server.Catalog),
		zap.String("storage", cfg.Server.Storage),
	)
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func openCatalogDB(ctx context.Context, c config.DatabaseConfig, log *zap.Logger) (*sql.DB, error) {
	db, err := database.NewPostgres(ctx, c, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := migration.EnsureMigrated(ctx, db, log, c.Host); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
