package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/config"
	"github.com/stemsi/handbook/internal/handler"
	"github.com/stemsi/handbook/internal/middleware"
	"github.com/stemsi/handbook/internal/response"
	"github.com/stemsi/handbook/internal/service"
)

// publicMaxAge is the Cache-Control max-age for public lookups, in seconds.
const publicMaxAge = 60

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Catalog *handler.CatalogHandler
	Sync    *handler.SyncHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// The returned limiter must be stopped on shutdown.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) (*gin.Engine, *middleware.RateLimiter) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request IDs first so the access log can carry them.
	router.Use(response.RequestIDMiddleware(), middleware.AccessLog(log))

	router.GET("/health", handlers.System.Health)

	// ─── 1. Public lookups (rate limited, cacheable) ───────────────────
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)

	public := router.Group("/api/v1")
	public.Use(
		limiter.Middleware(),
		middleware.Brotli(),
		middleware.CacheControl(publicMaxAge),
	)
	{
		public.GET("/majors", handlers.Catalog.ListMajors)
		public.GET("/majors/:title/units", handlers.Catalog.MajorUnits)
		public.GET("/units", handlers.Catalog.FindUnits)
		public.GET("/units/:name", handlers.Catalog.UnitsByName)
	}

	// ─── 2. Admin (JWT) ────────────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.NoStore(), middleware.RequireAdminJWT(authService))
	{
		adminAPI.POST("/sync", handlers.Sync.Sync)
		adminAPI.POST("/snapshots", handlers.Sync.ApplySnapshot)
	}

	return router, limiter
}
