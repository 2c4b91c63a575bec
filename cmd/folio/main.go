// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command folio runs the portfolio site backend: JWT-cookie sessions,
// visitor analytics with IP geolocation, blog post management, and
// optional AI-powered endpoints.
package main

import (
	"context"
	"errors"
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
	"github.com/robfig/cron/v3"

	"github.com/olegiv/folio-go/internal/ai"
	"github.com/olegiv/folio-go/internal/analytics"
	"github.com/olegiv/folio-go/internal/config"
	"github.com/olegiv/folio-go/internal/geo"
	"github.com/olegiv/folio-go/internal/handler"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/session"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/token"
)

// visitRetention is how long recorded visits are kept in memory
// before the nightly sweep drops them.
const visitRetention = 90 * 24 * time.Hour

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	queries := store.New(db)

	// Sessions.
	codec := token.NewCodec([]byte(cfg.SessionSecret))
	sessions := session.NewManager(codec, queries, !cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Analytics pipeline.
	aggregator := analytics.NewAggregator()
	resolver := geo.NewResolver(cfg.GeoIPDBPath, int64(cfg.GeoCallBudget), logger)
	defer func() { _ = resolver.Close() }()
	tracker := analytics.NewTracker(aggregator, resolver, logger)
	slog.Info("analytics tracker initialized",
		"geoip_local", cfg.GeoIPEnabled(), "geo_budget", cfg.GeoCallBudget)

	// AI client. Wired unconditionally; it reports its own absence.
	var aiKey string
	if cfg.AIConfigured() {
		aiKey = cfg.OpenAIAPIKey
	}
	aiClient := ai.NewClient(aiKey)

	// Handlers.
	protection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	authHandler := handler.NewAuthHandler(sessions, protection, logger)
	analyticsHandler := handler.NewAnalyticsHandler(tracker, aggregator, logger)
	postsHandler := handler.NewPostsHandler(queries, logger)
	aiHandler := handler.NewAIHandler(aiClient, logger)
	healthHandler := handler.NewHealthHandler(db, aggregator)

	// Nightly at 03:30: drop visits past retention, reset the geo
	// call budget for the new day.
	scheduler := cron.New()
	_, _ = scheduler.AddFunc("30 3 * * *", func() {
		if removed := aggregator.Prune(visitRetention); removed > 0 {
			slog.Info("pruned old visits", "removed", removed)
		}
		resolver.ResetBudget()
	})
	scheduler.Start()
	defer scheduler.Stop()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.SkipCSRF("/api/track"))
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())))
	r.Use(middleware.LoadSubject(sessions))

	r.Get("/health", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(protection.Middleware()).Post("/login", authHandler.Login)
			r.Get("/guest", authHandler.Guest)
			r.Post("/logout", authHandler.Logout)
			r.Get("/validate", authHandler.Validate)
		})

		r.Get("/track", analyticsHandler.Track)
		r.With(middleware.RequireAdmin()).Get("/analytics", analyticsHandler.Stats)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postsHandler.List)
			r.Get("/{slug}", postsHandler.Get)

			// Mutations are admin-only; guests and anonymous
			// visitors are rejected before the role check.
			r.Group(func(r chi.Router) {
				r.Use(middleware.GuestWriteGuard())
				r.Use(middleware.RequireAdmin())
				r.Post("/", postsHandler.Create)
				r.Put("/{id}", postsHandler.Update)
				r.Delete("/{id}", postsHandler.Delete)
			})
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/search", aiHandler.SmartSearch)

			// Summarize and analyze are admin-only; search stays open
			// to any visitor.
			r.Group(func(r chi.Router) {
				r.Use(middleware.GuestWriteGuard())
				r.Use(middleware.RequireAdmin())
				r.Post("/summarize", aiHandler.Summarize)
				r.Post("/analyze", aiHandler.AnalyzeQuestions)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
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
