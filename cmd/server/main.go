package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ajharbinger/msa-market-engine/internal/api"
	"github.com/ajharbinger/msa-market-engine/internal/database"
	"github.com/ajharbinger/msa-market-engine/internal/logger"
	"github.com/ajharbinger/msa-market-engine/internal/metrics"
	"github.com/ajharbinger/msa-market-engine/internal/middleware"
	"github.com/ajharbinger/msa-market-engine/internal/services"
	"github.com/ajharbinger/msa-market-engine/pkg/config"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize configuration
	cfg := config.New()

	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	if z, ok := appLogger.(*logger.ZapLogger); ok {
		defer func() { _ = z.Sync() }()
	}

	profile, err := config.LoadEngineProfile(cfg.EngineProfilePath)
	if err != nil {
		appLogger.Fatal("Failed to load engine profile", err, "path", cfg.EngineProfilePath)
	}

	opts := api.RouterOptions{Config: cfg, Logger: appLogger, Metrics: metrics.New()}

	// Storage is optional; without it the dataset and profile endpoints answer 503
	var sqlDB *sql.DB
	if cfg.HasDatabase() {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", err)
		}
		defer db.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			appLogger.Fatal("Failed to run migrations", err)
		}
		opts.DB = db
		sqlDB = db.DB
	} else {
		appLogger.Warn("DATABASE_URL not set, dataset and profile storage disabled")
	}
	if !cfg.AuthEnabled() {
		appLogger.Warn("JWT_SECRET not set, API routes are unauthenticated")
	}

	opts.Services = services.NewServices(sqlDB, profile, appLogger, opts.Metrics)

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		appLogger.Fatal("Invalid trusted proxies", err)
	}

	// Add security middleware
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(appLogger))
	r.Use(middleware.MetricsMiddleware(opts.Metrics))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))

	// Add rate limiting in production
	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware(cfg.RateLimitPerMin))
	}

	// Add recovery middleware
	r.Use(gin.Recovery())

	// Setup API routes
	if err := api.SetupRoutes(r, opts); err != nil {
		appLogger.Fatal("Failed to setup API routes", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server starting", "port", cfg.Port, "env", cfg.Environment, "database", cfg.HasDatabase())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", err)
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	appLogger.Info("Shutdown signal received, draining requests")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Graceful shutdown failed", err)
	}
	appLogger.Info("Server stopped")
}
