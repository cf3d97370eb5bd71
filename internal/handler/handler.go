// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the public site and the admin panel.
package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/3ddreamcrafts/dreamcrafts/internal/audit"
	"github.com/3ddreamcrafts/dreamcrafts/internal/auth"
	"github.com/3ddreamcrafts/dreamcrafts/internal/content"
	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
	"github.com/3ddreamcrafts/dreamcrafts/internal/render"
	"github.com/3ddreamcrafts/dreamcrafts/internal/settings"
	"github.com/3ddreamcrafts/dreamcrafts/internal/upload"
)

// Page sizes.
const (
	NewsPerPage     = 10
	AdminPerPage    = 20
	SecurityPerPage = 50
	HomeShows       = 3
	HomeNews        = 3
)

// Deps are the collaborators of a Handler.
type Deps struct {
	DB       *sql.DB
	Content  *content.Manager
	Settings *settings.Store
	Auth     *auth.Manager
	Audit    *audit.Recorder
	Uploads  *upload.Handler
	Renderer *render.Renderer
	Logger   *slog.Logger
	// SiteURL is the public base URL used in robots.txt and the sitemap.
	// Empty derives it from each request.
	SiteURL  string
}

// Handler serves every page of the site.
type Handler struct {
	db       *sql.DB
	content  *content.Manager
	settings *settings.Store
	auth     *auth.Manager
	audit    *audit.Recorder
	uploads  *upload.Handler
	renderer *render.Renderer
	logger   *slog.Logger
	siteURL  string
	started  time.Time
}

// New creates a Handler.
func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		db:       d.DB,
		content:  d.Content,
		settings: d.Settings,
		auth:     d.Auth,
		audit:    d.Audit,
		uploads:  d.Uploads,
		renderer: d.Renderer,
		logger:   d.Logger,
		siteURL:  strings.TrimSuffix(d.SiteURL, "/"),
		started:  time.Now(),
	}
}

// page builds the data shared by every template and consumes the pending
// flash message.
func (h *Handler) page(r *http.Request, title string, data any) render.TemplateData {
	ctx := r.Context()
	td := render.TemplateData{
		Title: title,
		Theme: h.settings.Theme(ctx),
		Data:  data,
		Path:  r.URL.Path,
		Flash: h.auth.PopFlash(ctx),
	}
	if h.auth.IsAuthenticated(ctx) {
		td.User = h.auth.Username(ctx)
		td.CSRFToken = h.auth.CSRFToken(ctx)
	}
	return td
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, td render.TemplateData) {
	if err := h.renderer.Render(w, status, name, td); err != nil {
		h.serverError(w, r, err, "rendering page")
	}
}

// serverError logs err and answers with the generic error page.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.logger.Error(msg,
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimw.GetReqID(r.Context()),
	)
	h.renderer.Error(w, http.StatusInternalServerError, render.TemplateData{Theme: h.settings.Theme(r.Context())})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.Error(w, http.StatusNotFound, render.TemplateData{Theme: h.settings.Theme(r.Context())})
}

// flashRedirect stores msg for the next page and redirects with 303.
func (h *Handler) flashRedirect(w http.ResponseWriter, r *http.Request, url, msg string) {
	h.auth.Flash(r.Context(), msg)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// idParam returns the positive {id} URL parameter.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// kindParam returns the content kind named by the {kind} URL parameter.
// Settings are not handled by the generic CRUD pages.
func kindParam(r *http.Request) (model.Kind, bool) {
	kind, err := model.ParseKind(chi.URLParam(r, "kind"))
	if err != nil || kind == model.Settings {
		return 0, false
	}
	return kind, true
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(r *http.Request) int {
	p, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}
