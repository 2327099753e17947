// Command server runs the items API behind the error-envelope pipeline.
//
// @title       Graceful Response API
// @version     1.0
// @description Items and incident log. Every body is a {code, message, data} envelope.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	_ "github.com/tbourn/go-graceful-response/docs"
	"github.com/tbourn/go-graceful-response/internal/config"
	httpapi "github.com/tbourn/go-graceful-response/internal/http"
	"github.com/tbourn/go-graceful-response/internal/observability"
	"github.com/tbourn/go-graceful-response/internal/repo"
	"github.com/tbourn/go-graceful-response/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	log.Logger = sysutil.NewLogger(os.Stdout, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL,
		sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev"),
		attribute.String("response.style", cfg.Response.Style.String()),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if cfg.OTEL.Enabled {
		if err := observability.InstrumentGORM(db); err != nil {
			log.Fatal().Err(err).Msg("instrument gorm")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	set, err := config.LoadMappings(cfg.Response.MappingsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error mappings")
	}
	ctl, stopIncidents, err := httpapi.BuildPipeline(cfg.Response, set, db)
	if err != nil {
		log.Fatal().Err(err).Msg("error pipeline")
	}

	r := gin.New()
	if err := httpapi.RegisterRoutes(r, db, ctl, cfg); err != nil {
		log.Fatal().Err(err).Msg("routes")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("style", cfg.Response.Style.String()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	stopIncidents()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
