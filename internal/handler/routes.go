// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/3ddreamcrafts/dreamcrafts/internal/middleware"
	"github.com/3ddreamcrafts/dreamcrafts/internal/upload"
)

// RouterConfig holds the request-level settings of the router.
type RouterConfig struct {
	IsDevelopment bool
	// CSRFKey authenticates the cross-origin protection. 32 bytes.
	CSRFKey []byte
	// StaticFS serves /static/dist/.
	StaticFS fs.FS
	// MaxBodySize caps admin request bodies.
	MaxBodySize int64
	LoginRPS    float64
	LoginBurst  int
	// RequestLog enables chi's access log.
	RequestLog bool
	Logger     *slog.Logger
}

// NewRouter wires every route of the site.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = h.logger
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = h.uploads.MaxSize() + multipartOverhead
	}
	if cfg.LoginRPS <= 0 {
		cfg.LoginRPS = middleware.DefaultLoginRPS
	}
	if cfg.LoginBurst <= 0 {
		cfg.LoginBurst = middleware.DefaultLoginBurst
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.RequestLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment)))
	r.Use(middleware.CrossOrigin(middleware.DefaultCSRFConfig(cfg.CSRFKey, cfg.IsDevelopment), logger))
	r.Use(h.auth.Sessions().LoadAndSave)

	r.NotFound(h.NotFound)

	// Public site.
	r.Get("/", h.Home)
	r.Get("/shows", h.Shows)
	r.Get("/news", h.News)
	r.Get("/news/{id}", h.Article)
	r.Get("/health", h.Health)
	r.Get("/robots.txt", h.Robots)
	r.Get("/sitemap.xml", h.Sitemap)

	if cfg.StaticFS != nil {
		r.Handle("/static/dist/*", staticCache(http.StripPrefix("/static/dist/", http.FileServerFS(cfg.StaticFS))))
	}
	r.Handle("/uploads/*", http.StripPrefix("/uploads", upload.FileServer(h.uploads.Root())))

	// Authentication.
	r.With(middleware.RedirectIfAuthenticated(h.auth, "/admin")).Get(middleware.LoginPath, h.LoginForm)
	r.With(middleware.LoginRateLimit(cfg.LoginRPS, cfg.LoginBurst, logger)).Post(middleware.LoginPath, h.Login)
	r.With(middleware.SessionCSRF(h.auth, h.audit, logger)).Post("/logout", h.Logout)

	// Admin panel.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth))
		r.Use(middleware.MaxBody(cfg.MaxBodySize))
		r.Use(middleware.SessionCSRF(h.auth, h.audit, logger))

		r.Get("/", h.Dashboard)

		r.Get("/settings", h.SettingsForm)
		r.Post("/settings", h.SaveSettings)

		r.Get("/account/password", h.PasswordForm)
		r.Post("/account/password", h.ChangePassword)

		r.Get("/security", h.SecurityLog)
		r.Post("/uploads", h.Upload)

		r.Post("/prints/{id}/feature", h.Feature)

		r.Get("/{kind}", h.List)
		r.Get("/{kind}/new", h.New)
		r.Post("/{kind}", h.Create)
		r.Get("/{kind}/{id}", h.Edit)
		r.Post("/{kind}/{id}", h.Update)
		r.Post("/{kind}/{id}/delete", h.Delete)
		r.Post("/{kind}/{id}/toggle", h.Toggle)
	})

	return r
}

// staticCache marks embedded assets as cacheable for a year.
func staticCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000")
		next.ServeHTTP(w, r)
	})
}
