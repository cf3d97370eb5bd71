// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/3ddreamcrafts/dreamcrafts/internal/audit"
	"github.com/3ddreamcrafts/dreamcrafts/internal/content"
	"github.com/3ddreamcrafts/dreamcrafts/internal/middleware"
	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
)

// DashboardData is the admin landing page model.
type DashboardData struct {
	Stats  []content.KindStats
	Recent []store.SecurityLog
}

// ListData is an admin list page.
type ListData struct {
	Kind       model.Kind
	Rows       []store.Row
	Pagination Pagination
}

// FormData is an admin create/edit form.
type FormData struct {
	Kind   model.Kind
	ID     int64
	Fields []content.FormField
	Values map[string]string
	Errors map[string]string
	Action string
}

// IsNew reports whether the form creates a row.
func (f FormData) IsNew() bool { return f.ID == 0 }

func adminURL(kind model.Kind) string { return "/admin/" + kind.Slug() }

// Dashboard handles GET /admin.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.content.Stats(r.Context())
	if err != nil {
		h.serverError(w, r, err, "loading dashboard stats")
		return
	}
	recent, err := h.audit.List(r.Context(), 1, 5)
	if err != nil {
		h.serverError(w, r, err, "loading recent security events")
		return
	}
	h.render(w, r, http.StatusOK, "admin/dashboard", h.page(r, "Dashboard", DashboardData{
		Stats:  stats,
		Recent: recent.Items,
	}))
}

// List handles GET /admin/{kind}.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	page, err := h.content.List(r.Context(), kind, pageParam(r), AdminPerPage)
	if err != nil {
		h.serverError(w, r, err, "listing "+kind.String())
		return
	}
	h.render(w, r, http.StatusOK, "admin/list", h.page(r, kind.Label(), ListData{
		Kind:       kind,
		Rows:       page.Items,
		Pagination: paginationFor(page, adminURL(kind), r),
	}))
}

// New handles GET /admin/{kind}/new.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	h.renderForm(w, r, http.StatusOK, FormData{Kind: kind, Values: defaultValues(kind)})
}

// Create handles POST /admin/{kind}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	form, ok := h.submittedForm(w, r, kind)
	if !ok {
		return
	}
	fd := FormData{Kind: kind, Values: flatten(form)}

	in, err := content.FormInput(kind, form)
	if err == nil {
		_, err = h.content.Create(r.Context(), in)
	}
	if h.handleSaveError(w, r, err, fd) {
		return
	}
	h.flashRedirect(w, r, adminURL(kind), kind.Singular()+" created.")
}

// Edit handles GET /admin/{kind}/{id}.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := h.kindAndID(w, r)
	if !ok {
		return
	}
	row, err := h.content.Get(r.Context(), kind, id)
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err, "loading "+kind.String())
		return
	}
	h.renderForm(w, r, http.StatusOK, FormData{Kind: kind, ID: id, Values: rowValues(kind, row)})
}

// Update handles POST /admin/{kind}/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := h.kindAndID(w, r)
	if !ok {
		return
	}
	if _, err := h.content.Get(r.Context(), kind, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.notFound(w, r)
			return
		}
		h.serverError(w, r, err, "loading "+kind.String())
		return
	}
	form, ok := h.submittedForm(w, r, kind)
	if !ok {
		return
	}
	fd := FormData{Kind: kind, ID: id, Values: flatten(form)}

	in, err := content.FormInput(kind, form)
	if err == nil {
		err = h.content.Update(r.Context(), kind, id, in)
	}
	if h.handleSaveError(w, r, err, fd) {
		return
	}
	h.flashRedirect(w, r, adminURL(kind), kind.Singular()+" updated.")
}

// Delete handles POST /admin/{kind}/{id}/delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := h.kindAndID(w, r)
	if !ok {
		return
	}
	err := h.content.Delete(r.Context(), kind, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.flashRedirect(w, r, adminURL(kind), kind.Singular()+" not found.")
	case err != nil:
		h.serverError(w, r, err, "deleting "+kind.String())
	default:
		h.logger.Info("content deleted", "kind", kind.String(), "id", id, "user", h.auth.Username(r.Context()))
		h.flashRedirect(w, r, adminURL(kind), kind.Singular()+" deleted.")
	}
}

// Toggle handles POST /admin/{kind}/{id}/toggle, flipping the visibility
// flag.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := h.kindAndID(w, r)
	if !ok {
		return
	}
	on, err := h.content.Toggle(r.Context(), kind, id, "")
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.flashRedirect(w, r, adminURL(kind), kind.Singular()+" not found.")
	case err != nil:
		h.serverError(w, r, err, "toggling "+kind.String())
	default:
		h.flashRedirect(w, r, adminURL(kind), kind.Singular()+" "+toggleVerb(kind, on)+".")
	}
}

// Feature handles POST /admin/prints/{id}/feature.
func (h *Handler) Feature(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	err := h.content.Feature(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.flashRedirect(w, r, adminURL(model.FeaturedPrints), "Featured print not found.")
	case err != nil:
		h.serverError(w, r, err, "featuring print")
	default:
		h.flashRedirect(w, r, adminURL(model.FeaturedPrints), "Featured print is now shown on the homepage.")
	}
}

func toggleVerb(kind model.Kind, on bool) string {
	switch {
	case kind == model.NewsArticles && on:
		return "published"
	case kind == model.NewsArticles:
		return "unpublished"
	case on:
		return "activated"
	default:
		return "deactivated"
	}
}

func (h *Handler) kindAndID(w http.ResponseWriter, r *http.Request) (model.Kind, int64, bool) {
	kind, ok := kindParam(r)
	if !ok {
		h.notFound(w, r)
		return 0, 0, false
	}
	id, ok := idParam(r)
	if !ok {
		h.notFound(w, r)
		return 0, 0, false
	}
	return kind, id, true
}

// submittedForm parses the posted form. For featured prints an attached
// image file is uploaded first and its path replaces image_path.
func (h *Handler) submittedForm(w http.ResponseWriter, r *http.Request, kind model.Kind) (url.Values, bool) {
	if err := parseForm(r, h.uploads.MaxSize()); err != nil {
		h.flashRedirect(w, r, adminURL(kind), "Invalid form data.")
		return nil, false
	}
	form := r.PostForm
	if kind != model.FeaturedPrints {
		return form, true
	}

	res, err := h.uploadFromForm(r, "image_file", "prints")
	if err != nil {
		fd := FormData{Kind: kind, Values: flatten(form), Errors: map[string]string{"image_path": uploadMessage(err)}}
		if id, ok := idParam(r); ok {
			fd.ID = id
		}
		h.renderForm(w, r, http.StatusUnprocessableEntity, fd)
		return nil, false
	}
	if res != nil {
		form.Set("image_path", res.Path)
	}
	return form, true
}

// handleSaveError answers validation and storage failures. It returns false
// when err is nil.
func (h *Handler) handleSaveError(w http.ResponseWriter, r *http.Request, err error, fd FormData) bool {
	if err == nil {
		return false
	}
	if verrs, ok := content.AsValidation(err); ok {
		fd.Errors = verrs.Fields()
		h.renderForm(w, r, http.StatusUnprocessableEntity, fd)
		return true
	}
	h.serverError(w, r, err, "saving "+fd.Kind.String())
	return true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, fd FormData) {
	fd.Fields = content.FormFields(fd.Kind)
	fd.Action = adminURL(fd.Kind)
	title := "New " + fd.Kind.Singular()
	if !fd.IsNew() {
		fd.Action += "/" + strconv.FormatInt(fd.ID, 10)
		title = "Edit " + fd.Kind.Singular()
	}
	td := h.page(r, title, fd)
	td.Errors = fd.Errors
	h.render(w, r, status, "admin/form", td)
}

// flatten keeps the last value per key, so a hidden "0" followed by a
// checked checkbox reads as checked.
func flatten(form url.Values) map[string]string {
	m := make(map[string]string, len(form))
	for k, v := range form {
		if len(v) > 0 {
			m[k] = v[len(v)-1]
		}
	}
	return m
}

func defaultValues(kind model.Kind) map[string]string {
	m := make(map[string]string)
	if col := kind.FlagColumn(); col != "" && kind != model.NewsArticles {
		m[col] = "1"
	}
	return m
}

// rowValues converts a stored row to form values. Stored text is unescaped
// so the template escapes it exactly once.
func rowValues(kind model.Kind, row store.Row) map[string]string {
	m := make(map[string]string)
	for _, f := range content.FormFields(kind) {
		switch f.Input {
		case "checkbox":
			if row.Bool(f.Column) {
				m[f.Column] = "1"
			}
		case "datetime-local":
			if t := row.Time(f.Column); !t.IsZero() {
				m[f.Column] = t.UTC().Format("2006-01-02T15:04")
			}
		case "text", "textarea":
			m[f.Column] = model.UnescapeText(row.String(f.Column))
		default:
			m[f.Column] = row.String(f.Column)
		}
	}
	return m
}

// recordUploadRejection writes a security log entry for a refused file.
func (h *Handler) recordUploadRejection(r *http.Request, filename string, err error) {
	c := middleware.Client(r)
	h.logger.Info("upload refused", "filename", filename, "reason", err.Error(), "ip", c.IP)
	if rerr := h.audit.Record(r.Context(), audit.Event{
		Type:      audit.UploadRejected,
		IP:        c.IP,
		Username:  h.auth.Username(r.Context()),
		UserAgent: c.UserAgent,
		Details:   map[string]string{"filename": filename, "reason": err.Error()},
	}); rerr != nil {
		h.logger.Error("recording upload rejection", "error", rerr)
	}
}
