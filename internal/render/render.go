// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the embedded HTML templates and executes them with
// the site's common page data.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/3ddreamcrafts/dreamcrafts/internal/settings"
)

// Layouts per template directory. Every page template is executed through
// its layout's "base" template.
var layouts = map[string][]string{
	"public": {"layouts/base.html", "layouts/public.html"},
	"auth":   {"layouts/base.html"},
	"admin":  {"layouts/base.html", "layouts/admin.html"},
}

// Renderer holds parsed templates keyed by "dir/name".
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
	now       func() time.Time
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS
	Logger      *slog.Logger
}

// TemplateData is passed to every page.
type TemplateData struct {
	Title       string
	Theme       settings.Theme
	User        string
	CSRFToken   string
	Flash       string
	Errors      map[string]string
	Data        any
	CurrentYear int
	Path        string
}

// New parses every page template below TemplatesFS.
func New(cfg Config) (*Renderer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &Renderer{
		templates: make(map[string]*template.Template),
		logger:    cfg.Logger,
		now:       time.Now,
	}

	partials, err := fs.Glob(cfg.TemplatesFS, "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing partials: %w", err)
	}

	for dir, base := range layouts {
		pages, err := fs.Glob(cfg.TemplatesFS, dir+"/*.html")
		if err != nil {
			return nil, fmt.Errorf("listing %s templates: %w", dir, err)
		}
		for _, page := range pages {
			name := dir + "/" + strings.TrimSuffix(path.Base(page), ".html")

			files := append(append(append([]string{}, base...), partials...), page)
			tmpl, err := template.New("").Funcs(Funcs()).ParseFS(cfg.TemplatesFS, files...)
			if err != nil {
				return nil, fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.templates[name] = tmpl
		}
	}
	return r, nil
}

// Has reports whether a template named name was parsed.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render executes name into a buffer and writes it with status. Execution
// errors are returned without writing anything.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	if data.CurrentYear == 0 {
		data.CurrentYear = r.now().Year()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

// Error renders the generic error page, falling back to plain text.
func (r *Renderer) Error(w http.ResponseWriter, status int, data TemplateData) {
	if data.Title == "" {
		data.Title = http.StatusText(status)
	}
	data.Data = map[string]any{"Status": status, "Message": errorMessage(status)}
	if err := r.Render(w, status, "public/error", data); err != nil {
		r.logger.Error("rendering error page", "status", status, "error", err)
		http.Error(w, errorMessage(status), status)
	}
}

func errorMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "The page you were looking for does not exist."
	case http.StatusForbidden:
		return "You are not allowed to do that."
	case http.StatusTooManyRequests:
		return "Too many requests. Please wait a moment and try again."
	}
	if status >= 500 {
		return "Something went wrong on our side. Please try again later."
	}
	return http.StatusText(status)
}
