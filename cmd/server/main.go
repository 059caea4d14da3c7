// Command server runs the Top Movies web app: HTML pages for building a
// personal ranked movie list plus a JSON API mirror.
//
// @title          Top Movies API
// @version        1.0
// @description    Personal ranked movie list backed by the TMDB catalog.
// @BasePath       /api/v1
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-top-movies/docs"
	"github.com/tbourn/go-top-movies/internal/catalog"
	"github.com/tbourn/go-top-movies/internal/config"
	httpapi "github.com/tbourn/go-top-movies/internal/http"
	"github.com/tbourn/go-top-movies/internal/observability"
	"github.com/tbourn/go-top-movies/internal/repo"
	"github.com/tbourn/go-top-movies/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version))
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	target := cfg.DB.Path
	if cfg.DB.Driver == repo.DriverPostgres {
		target = cfg.DB.DSN
	}
	db, err := repo.Open(cfg.DB.Driver, target)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		log.Fatal().Err(err).Msg("gorm tracing plugin")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	cat := catalog.New(catalog.Config{
		BaseURL:         cfg.Catalog.BaseURL,
		ImageBaseURL:    cfg.Catalog.ImageBaseURL,
		APIKey:          cfg.Catalog.APIKey,
		Authorization:   cfg.Catalog.Authorization,
		Timeout:         cfg.Catalog.Timeout,
		MaxRetries:      cfg.Catalog.Retries,
		RPS:             cfg.Catalog.RPS,
		BreakerFailures: cfg.Catalog.BreakerFailures,
		BreakerCooldown: cfg.Catalog.BreakerCooldown,
	})
	if cfg.Catalog.APIKey == "" && cfg.Catalog.Authorization == "" {
		log.Warn().Msg("API_KEY and AUTHORIZATION are empty; catalog searches will fail")
	}

	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = version

	r := gin.New()
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	if err := httpapi.RegisterRoutes(r, db, cat, cfg); err != nil {
		log.Fatal().Err(err).Msg("register routes")
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("db_driver", cfg.DB.Driver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
