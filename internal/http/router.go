// Package httpapi wires the HTTP transport (Gin) to the movie service,
// middleware, HTML pages and JSON handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, logging/redaction, panic
// recovery, metrics, CORS, security headers, idempotency, rate limiting,
// and the CSRF-protected form session.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-top-movies/internal/config"
	"github.com/tbourn/go-top-movies/internal/domain"
	"github.com/tbourn/go-top-movies/internal/http/handlers"
	"github.com/tbourn/go-top-movies/internal/http/middleware"
	"github.com/tbourn/go-top-movies/internal/http/web"
	"github.com/tbourn/go-top-movies/internal/ranking"
	"github.com/tbourn/go-top-movies/internal/repo"
	"github.com/tbourn/go-top-movies/internal/services"
)

// movieRepoShim adapts the repository free functions to services.MovieRepo.
type movieRepoShim struct{}

func (movieRepoShim) InsertMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) (uint, error) {
	return repo.InsertMovie(ctx, db, m)
}

func (movieRepoShim) GetMovie(ctx context.Context, db *gorm.DB, id uint) (*domain.Movie, error) {
	return repo.GetMovie(ctx, db, id)
}

func (movieRepoShim) DeleteMovie(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteMovie(ctx, db, id)
}

func (movieRepoShim) FindFirstMovieByTitle(ctx context.Context, db *gorm.DB, title string) (*domain.Movie, error) {
	return repo.FindFirstMovieByTitle(ctx, db, title)
}

func (movieRepoShim) ListMovies(ctx context.Context, db *gorm.DB, field, dir string) ([]domain.Movie, error) {
	return repo.ListMovies(ctx, db, field, dir)
}

func (movieRepoShim) UpdateMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) error {
	return repo.UpdateMovie(ctx, db, m)
}

func (movieRepoShim) SaveRankings(ctx context.Context, db *gorm.DB, a []ranking.Assignment) error {
	return repo.SaveRankings(ctx, db, a)
}

// RegisterRoutes attaches all middleware and endpoints to the given Gin
// engine: operational routes, the HTML pages at the root, and the JSON API
// under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with credential scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per client IP, bypass on replay)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cat services.Catalog, cfg config.Config) error {
	r.HandleMethodNotAllowed = true

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
		PageCSP:      middleware.DefaultPageCSP,
	}))

	r.NoRoute(func(c *gin.Context) {
		if middleware.WantsJSON(c) {
			handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
			return
		}
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(`<!doctype html><p>Page not found. <a href="/">Back to the list</a></p>`))
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers.RegisterValidators()
	svc := services.NewMovieService(db, movieRepoShim{}, cat)
	svc.IdempotencyTTL = cfg.IdempotencyTTL
	h := handlers.New(svc)

	// HTML pages
	pages := r.Group("/",
		middleware.Sessions(middleware.SessionOptions{
			Secret: []byte(cfg.SecretKey),
			Secure: cfg.Security.EnableHSTS,
		}),
		middleware.VerifyCSRF(),
	)
	{
		pages.GET("", h.Home)
		pages.GET("/delete/:id", h.Delete)
		pages.POST("/delete/:id", h.Delete)
		pages.GET("/add", h.Add)
		pages.POST("/add", h.Add)
		pages.GET("/select", h.Select)
		pages.POST("/select", h.Select)
		pages.GET("/update/:id", h.Update)
		pages.POST("/update/:id", h.Update)
	}

	// JSON API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/movies", h.ListMovies)
		api.POST("/movies", h.CreateMovie)
		api.GET("/movies/:id", h.GetMovie)
		api.PUT("/movies/:id/rating", h.RateMovie)
		api.DELETE("/movies/:id", h.DeleteMovie)
		api.GET("/catalog/search", h.SearchCatalog)
	}
	return nil
}

// corsMiddleware builds the API CORS posture: allow all origins when none are
// configured, otherwise echo allowlisted origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Location"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			// ACAO even without an Origin header, for curl and health probes.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader.
// Oversized bodies make downstream reads fail.
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
