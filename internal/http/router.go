// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, tenancy resolution, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → tenant → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/moldovancsaba/narimato-server/internal/config"
	"github.com/moldovancsaba/narimato-server/internal/domain"
	"github.com/moldovancsaba/narimato-server/internal/http/handlers"
	"github.com/moldovancsaba/narimato-server/internal/http/middleware"
	"github.com/moldovancsaba/narimato-server/internal/repo"
	"github.com/moldovancsaba/narimato-server/internal/services"
)

// cardRepoShim adapts the repository free functions to the services.CardRepo
// interface. This keeps services decoupled from the concrete repo package
// while reusing existing functions.
type cardRepoShim struct{}

func (cardRepoShim) Create(ctx context.Context, db *gorm.DB, tenantID, name, title, imageURL string, tags []string) (*domain.Card, error) {
	return repo.CreateCard(ctx, db, tenantID, name, title, imageURL, tags)
}

func (cardRepoShim) Get(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Card, error) {
	return repo.GetCard(ctx, db, tenantID, id)
}

func (cardRepoShim) GetByName(ctx context.Context, db *gorm.DB, tenantID, name string) (*domain.Card, error) {
	return repo.GetCardByName(ctx, db, tenantID, name)
}

func (cardRepoShim) ListActiveChildren(ctx context.Context, db *gorm.DB, tenantID, parentTag string) ([]domain.Card, error) {
	return repo.ListActiveChildren(ctx, db, tenantID, parentTag)
}

func (cardRepoShim) ListActive(ctx context.Context, db *gorm.DB, tenantID string) ([]domain.Card, error) {
	return repo.ListActiveCards(ctx, db, tenantID)
}

// playRepoShim adapts the play repository functions to services.PlayRepo.
type playRepoShim struct{}

func (playRepoShim) Create(ctx context.Context, db *gorm.DB, tenantID, deckTag string, deck []string, ttl time.Duration) (*domain.Play, error) {
	return repo.CreatePlay(ctx, db, tenantID, deckTag, deck, ttl)
}

func (playRepoShim) Get(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Play, error) {
	return repo.GetPlay(ctx, db, tenantID, id)
}

func (playRepoShim) Save(ctx context.Context, db *gorm.DB, p *domain.Play, expectedVersion int) error {
	return repo.SavePlay(ctx, db, p, expectedVersion)
}

// resultRepoShim adapts the result repository functions to services.ResultRepo.
type resultRepoShim struct{}

func (resultRepoShim) InsertIfAbsent(ctx context.Context, db *gorm.DB, r *domain.PlayResult) (*domain.PlayResult, bool, error) {
	return repo.CreateResultIfAbsent(ctx, db, r)
}

func (resultRepoShim) GetByPlay(ctx context.Context, db *gorm.DB, tenantID, playID string) (*domain.PlayResult, error) {
	return repo.GetResultByPlay(ctx, db, tenantID, playID)
}

// ratingRepoShim adapts the rating repository functions to services.RatingRepo.
type ratingRepoShim struct{}

func (ratingRepoShim) GetOrCreate(ctx context.Context, db *gorm.DB, tenantID, cardID string, seed int) (*domain.GlobalRating, error) {
	return repo.GetOrCreateRating(ctx, db, tenantID, cardID, seed)
}

func (ratingRepoShim) Save(ctx context.Context, db *gorm.DB, r *domain.GlobalRating) error {
	return repo.SaveRating(ctx, db, r)
}

func (ratingRepoShim) ListPage(ctx context.Context, db *gorm.DB, tenantID string, cardIDs []string, offset, limit int) ([]domain.GlobalRating, error) {
	return repo.ListLeaderboardPage(ctx, db, tenantID, cardIDs, offset, limit)
}

func (ratingRepoShim) Count(ctx context.Context, db *gorm.DB, tenantID string, cardIDs []string) (int64, error) {
	return repo.CountLeaderboard(ctx, db, tenantID, cardIDs)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), tenancy resolution
// and rate limiting, CORS and security headers, health and metrics endpoints,
// and then mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Tenant: resolve the tenant namespace before logging
//  4. Logger: structured access logs with tenant and correlation id
//  5. Recovery: capture panics after logger
//  6. Body size limiter and gzip compression
//  7. Metrics
//  8. Rate limiter (per tenant/IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Resolve the tenant namespace
	r.Use(middleware.Tenant())

	// 4) Structured access logging
	r.Use(middleware.Logger())

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per tenant/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByTenantAndIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Tenant-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "X-Tenant-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Tenant-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "X-Tenant-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// OpenAPI UI (generated docs package registers itself on import in cmd/server)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	ratingSvc := services.NewRatingService(db, cardRepoShim{}, ratingRepoShim{})
	ratingSvc.Seed = cfg.EloSeed
	ratingSvc.KFactor = cfg.EloKFactor
	ratingSvc.Divisor = cfg.EloDivisor

	catalogSvc := services.NewCatalogService(db, cardRepoShim{}, ratingSvc)
	catalogSvc.MinDeckSize = cfg.MinDeckSize

	playSvc := services.NewPlayService(db, cardRepoShim{}, playRepoShim{}, resultRepoShim{}, ratingSvc)
	playSvc.MinDeckSize = cfg.MinDeckSize
	playSvc.TTL = cfg.PlayTTL

	h := handlers.New(playSvc, catalogSvc, ratingSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Cards
		api.POST("/cards", h.CreateCard)
		api.GET("/cards", h.ListCards)
		api.GET("/cards/:id", h.GetCard)

		// Decks
		api.GET("/decks", h.ListDecks)
		api.GET("/decks/:tag/leaderboard", h.Leaderboard)
		api.POST("/decks/:tag/plays", h.StartPlay)

		// Plays
		api.POST("/plays/:id/swipe", h.Swipe)
		api.POST("/plays/:id/vote", h.Vote)
		api.GET("/plays/:id/results", h.GetResults)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
