package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/msa-market-engine/internal/auth"
	"github.com/ajharbinger/msa-market-engine/internal/logger"
	"github.com/ajharbinger/msa-market-engine/internal/metrics"
	"github.com/ajharbinger/msa-market-engine/internal/services"
	"github.com/ajharbinger/msa-market-engine/pkg/config"
)

// RouterOptions carries everything SetupRoutes wires into handlers
type RouterOptions struct {
	Config   *config.Config
	Services *services.Services
	// DB is nil when no database is configured
	DB      HealthChecker
	Metrics *metrics.Metrics
	Logger  logger.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, opts RouterOptions) error {
	if opts.Config == nil || opts.Services == nil {
		return fmt.Errorf("config and services are required")
	}
	cfg := opts.Config

	var jwtService *auth.JWTService
	if cfg.AuthEnabled() {
		jwtService = auth.NewJWTService(cfg.JWTSecret)
	}

	analyticsHandler := NewAnalyticsHandler(opts.Services.Analytics)
	datasetHandler := NewDatasetHandler(opts.Services.Datasets)
	profileHandler := NewProfileHandler(opts.Services.Profiles)
	authHandler := NewAuthHandler(jwtService, cfg.APIKeyHash, opts.Logger)
	healthHandler := NewHealthHandler(opts.DB)

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// Public routes
	public := r.Group("/api/v1")
	{
		public.GET("/health", healthHandler.Health)
		public.POST("/auth/token", authHandler.Token)
	}

	// Protected routes; open when no JWT secret is configured
	read := r.Group("/api/v1")
	write := r.Group("/api/v1")
	if jwtService != nil {
		read.Use(auth.JWTMiddleware(jwtService), auth.RequireScope(auth.ScopeRead))
		write.Use(auth.JWTMiddleware(jwtService), auth.RequireScope(auth.ScopeWrite))
	}
	{
		// Engine endpoints compute over the request body and change nothing
		read.POST("/score", analyticsHandler.Score)
		read.POST("/filter", analyticsHandler.Filter)
		read.POST("/analyze", analyticsHandler.Analyze)
		read.POST("/acquisition-impact", analyticsHandler.AcquisitionImpact)
		read.POST("/market/providers", analyticsHandler.Providers)

		// Configuration helpers
		read.GET("/weights/default", analyticsHandler.DefaultWeights)
		read.POST("/weights/from-buckets", analyticsHandler.WeightsFromBuckets)
		read.POST("/buckets/assign", analyticsHandler.AssignBucket)
		read.POST("/buckets/remove", analyticsHandler.RemoveFromBucket)
		read.GET("/regions/resolve", analyticsHandler.ResolveRegion)

		// Stored datasets and profiles
		read.GET("/datasets/:kind", datasetHandler.Get)
		read.GET("/profiles", profileHandler.List)
		read.GET("/profiles/:id", profileHandler.Get)
	}
	{
		write.POST("/datasets/:kind/upload", datasetHandler.Upload)
		write.POST("/profiles", profileHandler.Create)
		write.PUT("/profiles/:id", profileHandler.Update)
		write.DELETE("/profiles/:id", profileHandler.Delete)
	}

	return nil
}
