// Package httpapi wires the HTTP transport (Gin) to the error pipeline,
// application services, middleware, and route handlers. It centralizes
// cross-cutting concerns such as tracing, correlation IDs, logging, panic
// recovery, metrics, CORS, compression and rate limiting.
//
// Every response body leaves through handlers.Responder: successes are
// wrapped in the configured envelope, errors (including panics, unknown
// routes and rate limiting) are translated by the pipeline.
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

	"github.com/tbourn/go-graceful-response/internal/config"
	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/fault"
	"github.com/tbourn/go-graceful-response/internal/http/handlers"
	"github.com/tbourn/go-graceful-response/internal/http/middleware"
	"github.com/tbourn/go-graceful-response/internal/pipeline"
	"github.com/tbourn/go-graceful-response/internal/repo"
	"github.com/tbourn/go-graceful-response/internal/services"
)

// itemRepoShim adapts the repository free functions to the
// services.ItemRepo interface expected by the ItemService.
type itemRepoShim struct{}

func (itemRepoShim) CreateItem(ctx context.Context, db *gorm.DB, name, description string) (*domain.Item, error) {
	return repo.CreateItem(ctx, db, name, description)
}

func (itemRepoShim) GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.Item, error) {
	return repo.GetItem(ctx, db, id)
}

func (itemRepoShim) CountItems(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountItems(ctx, db)
}

func (itemRepoShim) ListItemsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Item, error) {
	return repo.ListItemsPage(ctx, db, offset, limit)
}

func (itemRepoShim) UpdateItemDescription(ctx context.Context, db *gorm.DB, id, description string) error {
	return repo.UpdateItemDescription(ctx, db, id, description)
}

func (itemRepoShim) DeleteItem(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteItem(ctx, db, id)
}

func (itemRepoShim) ItemsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return repo.ItemsStats(ctx, db)
}

// incidentRepoShim adapts the repository free functions to
// services.IncidentRepo.
type incidentRepoShim struct{}

func (incidentRepoShim) CreateIncident(ctx context.Context, db *gorm.DB, in *domain.Incident) error {
	return repo.CreateIncident(ctx, db, in)
}

func (incidentRepoShim) CountIncidents(ctx context.Context, db *gorm.DB, code string) (int64, error) {
	return repo.CountIncidents(ctx, db, code)
}

func (incidentRepoShim) ListIncidentsPage(ctx context.Context, db *gorm.DB, code string, offset, limit int) ([]domain.Incident, error) {
	return repo.ListIncidentsPage(ctx, db, code, offset, limit)
}

func (incidentRepoShim) IncidentCountsByCode(ctx context.Context, db *gorm.DB, since *time.Time) ([]domain.CodeCount, error) {
	return repo.IncidentCountsByCode(ctx, db, since)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. ctl is the error pipeline every failure is sent through.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id, attach request metadata
//  3. Logger: request-scoped structured logs
//  4. Locale: Accept-Language for translated messages
//  5. Recovery: panics become "panic" errors in the pipeline
//  6. Errors: errors attached with c.Error reach the pipeline
//  7. Body size limiter
//  8. Metrics
//  9. Envelope exclusion rules
//  10. Rate limiter (per client/IP)
//  11. CORS and gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, ctl *pipeline.Controller, cfg config.Config) error {
	r.HandleMethodNotAllowed = true

	rc := cfg.Response
	resp := handlers.NewResponder(ctl, handlers.ResponderOptions{
		Style:          rc.Style,
		SuccessCode:    rc.SuccessCode,
		SuccessMessage: rc.SuccessMessage,
		RawTypes:       rc.ExcludeReturnTypes,
	})
	exclude, err := middleware.NewExcludeRules(rc.ExcludeURLs)
	if err != nil {
		return err
	}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2-4) Correlate requests, logs and languages
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Locale())

	// 5-6) Everything that goes wrong ends in the pipeline
	r.Use(middleware.Recovery(resp.Fail))
	r.Use(middleware.Errors(resp.Fail))

	// 7) Global body size limit
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 8) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 9) Paths whose success bodies are written raw
	r.Use(exclude.Handler())

	// 10) Token-bucket rate limiter per client/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByHeaderOrIP("X-Client-ID"))
	r.Use(rl.Handler())

	// 11) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", "X-Client-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After", "ETag"},
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
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", "X-Client-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		resp.Fail(c, fault.RouteNotFound(c.Request.URL.Path))
	})
	r.NoMethod(func(c *gin.Context) {
		resp.Fail(c, fault.MethodNotAllowed(c.Request.Method, c.Request.URL.Path))
	})

	// Liveness/health
	r.GET("/health", resp.Wrap(func(c *gin.Context) (any, error) {
		return gin.H{"status": "ok"}, nil
	}))

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	itemSvc := services.NewItemService(db, itemRepoShim{})
	incSvc := services.NewIncidentService(db, incidentRepoShim{})
	h := handlers.New(itemSvc, incSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Items
		api.POST("/items", resp.Wrap(h.CreateItem))
		api.GET("/items", resp.Wrap(h.ListItems))
		api.GET("/items/export", resp.Wrap(h.ExportItems))
		api.GET("/items/:id", resp.Wrap(h.GetItem))
		api.PATCH("/items/:id", resp.Wrap(h.UpdateItem))
		api.DELETE("/items/:id", resp.Wrap(h.DeleteItem))

		// Incident log
		api.GET("/incidents", resp.Wrap(h.ListIncidents))
		api.GET("/incidents/stats", resp.Wrap(h.IncidentStats))
	}
	return nil
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error. maxBytes <= 0 disables the cap.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
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
