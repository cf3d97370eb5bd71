// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/3ddreamcrafts/dreamcrafts/internal/audit"
	"github.com/3ddreamcrafts/dreamcrafts/internal/auth"
	"github.com/3ddreamcrafts/dreamcrafts/internal/cache"
	"github.com/3ddreamcrafts/dreamcrafts/internal/content"
	"github.com/3ddreamcrafts/dreamcrafts/internal/geoip"
	"github.com/3ddreamcrafts/dreamcrafts/internal/handler"
	"github.com/3ddreamcrafts/dreamcrafts/internal/logging"
	"github.com/3ddreamcrafts/dreamcrafts/internal/render"
	"github.com/3ddreamcrafts/dreamcrafts/internal/scheduler"
	"github.com/3ddreamcrafts/dreamcrafts/internal/session"
	"github.com/3ddreamcrafts/dreamcrafts/internal/settings"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
	"github.com/3ddreamcrafts/dreamcrafts/internal/upload"
	"github.com/3ddreamcrafts/dreamcrafts/internal/version"
	"github.com/3ddreamcrafts/dreamcrafts/web"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("closing database", "error", err)
		}
	}()

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn("geoip database unavailable, country lookup disabled", "path", cfg.GeoIPDBPath, "error", err)
	}
	defer func() { _ = geo.Close() }()

	// The recorder logs through the plain logger; the wrapped one would
	// feed its own failures back into the security log.
	rec := audit.NewRecorder(db, geo, logger)
	logger = logging.New(logging.ParseLevel(cfg.LogLevel), rec)
	slog.SetDefault(logger)

	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisURL = cfg.RedisURL
	cacheCfg.Prefix = cfg.CachePrefix
	cacheCfg.DefaultTTL = cfg.CacheTTL
	c, backend := cache.New(cacheCfg, logger)
	defer func() { _ = c.Close() }()
	logger.Info("settings cache ready", "backend", backend)

	sm := session.New(db, cfg.IsDevelopment(), cfg.SessionTimeout)
	defer session.Close(sm)

	am := auth.NewManager(db, sm, rec, auth.Config{
		SessionTimeout: cfg.SessionTimeout,
		MaxAttempts:    cfg.LoginMaxAttempts,
		Window:         cfg.LoginWindow,
	}, logger)

	if cfg.DoSeed {
		created, err := am.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("seeding admin user: %w", err)
		}
		if created {
			logger.Info("admin user seeded", "username", cfg.AdminUsername)
		}
		if err := store.SeedContent(ctx, db, time.Now()); err != nil {
			return fmt.Errorf("seeding content: %w", err)
		}
	}

	uploads, err := upload.New(upload.Options{
		Root:         cfg.UploadsDir,
		MaxSize:      cfg.MaxUploadBytes,
		MaxDimension: cfg.MaxImageDimension,
	}, logger)
	if err != nil {
		return err
	}

	renderer, err := render.New(render.Config{TemplatesFS: web.Templates(), Logger: logger})
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	h := handler.New(handler.Deps{
		DB:       db,
		Content:  content.NewManager(store.Wrap(db)),
		Settings: settings.NewStore(db, c, logger),
		Auth:     am,
		Audit:    rec,
		Uploads:  uploads,
		Renderer: renderer,
		Logger:   logger,
		SiteURL:  cfg.SiteURL,
	})
	router := handler.NewRouter(h, handler.RouterConfig{
		IsDevelopment: cfg.IsDevelopment(),
		CSRFKey:       cfg.CSRFKey(),
		StaticFS:      web.Static(),
		RequestLog:    cfg.IsDevelopment(),
		Logger:        logger,
	})

	jobs := scheduler.Config{
		Logins:         am.Limiter(),
		Audit:          rec,
		AuditRetention: cfg.SecurityLogRetention,
	}
	if geo.Enabled() {
		jobs.GeoIP = geo
	}
	sched := scheduler.New(jobs, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
