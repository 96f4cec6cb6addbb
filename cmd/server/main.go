// Command server runs the gift-recommendation HTTP backend.
//
// Startup order: .env loading, config, logging, tracing, database (with
// optional catalog seeding), router, then an http.Server with the
// configured timeouts and graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	_ "github.com/giftella/go-gift-backend/docs"
	"github.com/giftella/go-gift-backend/internal/config"
	"github.com/giftella/go-gift-backend/internal/domain"
	httpapi "github.com/giftella/go-gift-backend/internal/http"
	"github.com/giftella/go-gift-backend/internal/observability"
	"github.com/giftella/go-gift-backend/internal/repo"
	"github.com/giftella/go-gift-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// @title       Gift Recommendation API
// @version     1.0
// @description Quiz-driven gift recommendation backend. Submit a quiz answer describing the recipient, occasion and budget; receive a ranked, badged, localized list of gift ideas.
// @BasePath    /api/v1
func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// APP_VERSION overrides the build-time stamp, useful for container images
	// built without ldflags.
	version = sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	if cfg.CatalogPath != "" {
		if err := seedCatalog(ctx, db, cfg.CatalogPath); err != nil {
			log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("catalog seed failed")
		}
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg)

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
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// seedCatalog loads gift templates from a JSON file when the catalog table
// is empty. Seeding is skipped silently once any template exists, so
// restarting the server never duplicates catalog entries.
func seedCatalog(ctx context.Context, db *gorm.DB, path string) error {
	total, err := repo.CountTemplates(ctx, db)
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var templates []domain.GiftTemplate
	if err := json.Unmarshal(b, &templates); err != nil {
		return err
	}
	for i := range templates {
		if err := repo.CreateTemplate(ctx, db, &templates[i]); err != nil {
			return err
		}
	}
	log.Info().Int("templates", len(templates)).Msg("catalog seeded")
	return nil
}
