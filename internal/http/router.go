// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
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
	"github.com/promowatch/go-promo-backend/internal/config"
	"github.com/promowatch/go-promo-backend/internal/domain"
	"github.com/promowatch/go-promo-backend/internal/http/handlers"
	"github.com/promowatch/go-promo-backend/internal/http/middleware"
	"github.com/promowatch/go-promo-backend/internal/repo"
	"github.com/promowatch/go-promo-backend/internal/services"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// snapshotRepoShim adapts the repository free functions to the
// services.SnapshotRepo interface expected by the snapshot and report
// services. This keeps services decoupled from the concrete repo package
// while reusing existing functions.
type snapshotRepoShim struct{}

// CreateSnapshot proxies repo.CreateSnapshot.
func (snapshotRepoShim) CreateSnapshot(ctx context.Context, db *gorm.DB, source domain.Source, discounts []domain.Discount) (*domain.Snapshot, error) {
	return repo.CreateSnapshot(ctx, db, source, discounts)
}

// GetSnapshot proxies repo.GetSnapshot.
func (snapshotRepoShim) GetSnapshot(ctx context.Context, db *gorm.DB, id string, source domain.Source) (*domain.Snapshot, error) {
	return repo.GetSnapshot(ctx, db, id, source)
}

// LatestSnapshot proxies repo.LatestSnapshot.
func (snapshotRepoShim) LatestSnapshot(ctx context.Context, db *gorm.DB, source domain.Source) (*domain.Snapshot, error) {
	return repo.LatestSnapshot(ctx, db, source)
}

// CountSnapshots proxies repo.CountSnapshots (pagination support).
func (snapshotRepoShim) CountSnapshots(ctx context.Context, db *gorm.DB, source domain.Source) (int64, error) {
	return repo.CountSnapshots(ctx, db, source)
}

// ListSnapshotsPage proxies repo.ListSnapshotsPage (pagination support).
func (snapshotRepoShim) ListSnapshotsPage(ctx context.Context, db *gorm.DB, source domain.Source, offset, limit int) ([]domain.Snapshot, error) {
	return repo.ListSnapshotsPage(ctx, db, source, offset, limit)
}

// SnapshotDiscounts proxies repo.SnapshotDiscounts.
func (snapshotRepoShim) SnapshotDiscounts(ctx context.Context, db *gorm.DB, snapshotID string) ([]domain.Discount, error) {
	return repo.SnapshotDiscounts(ctx, db, snapshotID)
}

// GetIdempotency proxies repo.GetIdempotency.
func (snapshotRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, clientID, source, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, clientID, source, key, now)
}

// CreateIdempotency proxies repo.CreateIdempotency.
func (snapshotRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, clientID, source, key, snapshotID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, clientID, source, key, snapshotID, status, ttl)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per client/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (4 MiB; snapshot uploads carry whole scrapes)
	r.Use(limitBody(4 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, clientID, source, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, clientID, source, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per client/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientOrIP())
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
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Client-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Client-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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

	// Compress responses (diffs and gap reports can be large)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Interactive API docs (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	snapSvc := services.NewSnapshotService(db, snapshotRepoShim{})
	snapSvc.MaxRecords = cfg.MaxSnapshotRecords
	snapSvc.IdempotencyTTL = cfg.IdempotencyTTL

	reportSvc := &services.ReportService{DB: db, Repo: snapshotRepoShim{}}
	h := handlers.New(snapSvc, reportSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Snapshots
		api.POST("/sources/:source/snapshots", h.IngestSnapshot)
		api.GET("/sources/:source/snapshots", h.ListSnapshots)
		api.GET("/sources/:source/diff", h.DiffSnapshots)

		// Keys
		api.POST("/keys", h.PreviewKeys)

		// Reports
		api.POST("/reports/gap", h.GapReport)
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
