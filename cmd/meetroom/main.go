// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/meetroom-go/internal/app"
	"github.com/olegiv/meetroom-go/internal/auth"
	"github.com/olegiv/meetroom-go/internal/cache"
	"github.com/olegiv/meetroom-go/internal/config"
	"github.com/olegiv/meetroom-go/internal/geoip"
	"github.com/olegiv/meetroom-go/internal/handler/api"
	"github.com/olegiv/meetroom-go/internal/middleware"
	"github.com/olegiv/meetroom-go/internal/scheduler"
	"github.com/olegiv/meetroom-go/internal/session"
	"github.com/olegiv/meetroom-go/internal/store"
	"github.com/olegiv/meetroom-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "meetroom - meeting-room document board\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETROOM_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETROOM_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETROOM_STORAGE          sqlite|mysql|redis|memory (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETROOM_DB_PATH          SQLite database path (default: ./data/meetroom.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETROOM_ADMIN_PASSWORD   Administrator password (default: admin, development only)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETROOM_AI_API_KEY       Key for the summarization service (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETROOM_BACKUP_SCHEDULE  Cron spec for JSON backups, e.g. @daily (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	if *showVersion {
		_, _ = fmt.Printf("meetroom %s\n", versionInfo)
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo version.Info) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()

	slog.Info("opening storage", "driver", cfg.Storage)
	application, err := app.New(ctx, cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Error("error closing storage", "error", err)
		}
	}()

	logger := application.Logger
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	sessionManager := session.New(application.Backend.SQLite, cfg.IsDevelopment())
	gate := application.Gate(auth.NewSCSSessions(sessionManager))

	previewCache, err := newPreviewCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing preview cache: %w", err)
	}
	defer func() { _ = previewCache.Close() }()

	var geo *geoip.Lookup
	if cfg.GeoIPEnabled() {
		geo, err = geoip.Open(cfg.GeoIPDBPath)
		if err != nil {
			slog.Warn("GeoIP disabled", "error", err)
		} else {
			defer func() { _ = geo.Close() }()
			slog.Info("GeoIP database loaded", "path", cfg.GeoIPDBPath)
		}
	}

	if cfg.BackupsEnabled() {
		backups := scheduler.New(scheduler.Config{
			Schedule: cfg.BackupSchedule,
			Dir:      cfg.BackupDir,
			Keep:     cfg.BackupKeep,
		}, application.Exporter, logger)
		if err := backups.Start(); err != nil {
			return fmt.Errorf("starting backup scheduler: %w", err)
		}
		defer backups.Stop()
	}

	csrfMiddleware, err := middleware.CSRF(middleware.DefaultCSRFConfig(cfg.IsDevelopment()))
	if err != nil {
		return fmt.Errorf("configuring CSRF protection: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(csrfMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	apiHandler := api.NewHandler(api.Deps{
		Documents:      application.Documents,
		Attachments:    application.Attachments,
		Events:         application.Events,
		Gate:           gate,
		Exporter:       application.Exporter,
		Importer:       application.Importer,
		Storage:        application.Backend.KV,
		Previews:       previewCache,
		GeoIP:          geo,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Version:        versionInfo,
		Logger:         logger,
	})
	apiHandler.Routes(r, sessionManager)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       cfg.RequestTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newPreviewCache shares the Redis server when Redis is the storage driver.
func newPreviewCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	cc := cache.Config{
		DefaultTTL: cfg.PreviewCacheTTL,
		MaxEntries: cfg.PreviewCacheMaxSize,
	}
	if cfg.Storage == store.DriverRedis {
		cc.RedisURL = cfg.RedisURL
		cc.Prefix = cfg.RedisPrefix + "preview:"
	}
	return cache.New(ctx, cc)
}
