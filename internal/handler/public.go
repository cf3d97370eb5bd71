// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/3ddreamcrafts/dreamcrafts/internal/content"
	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
	"github.com/3ddreamcrafts/dreamcrafts/internal/render"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
)

// HomeData is the homepage model. Print is nil when no print is active.
type HomeData struct {
	Print *model.FeaturedPrint
	Shows []model.CraftShow
	News  []model.NewsArticle
}

// NewsData is one page of the news archive.
type NewsData struct {
	Articles   []model.NewsArticle
	Pagination Pagination
}

// Home handles GET /.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	featured, err := h.content.ActiveFeaturedPrint(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, err, "loading featured print")
		return
	}
	shows, err := h.content.UpcomingShows(ctx, HomeShows)
	if err != nil {
		h.serverError(w, r, err, "loading upcoming shows")
		return
	}
	news, err := h.content.PublishedNews(ctx, 1, HomeNews)
	if err != nil {
		h.serverError(w, r, err, "loading news")
		return
	}

	h.render(w, r, http.StatusOK, "public/home", h.page(r, "", HomeData{
		Print: featured,
		Shows: shows,
		News:  news.Items,
	}))
}

// Shows handles GET /shows.
func (h *Handler) Shows(w http.ResponseWriter, r *http.Request) {
	shows, err := h.content.UpcomingShows(r.Context(), 0)
	if err != nil {
		h.serverError(w, r, err, "loading upcoming shows")
		return
	}
	h.render(w, r, http.StatusOK, "public/shows", h.page(r, "Craft Shows", shows))
}

// News handles GET /news.
func (h *Handler) News(w http.ResponseWriter, r *http.Request) {
	page, err := h.content.PublishedNews(r.Context(), pageParam(r), NewsPerPage)
	if err != nil {
		h.serverError(w, r, err, "loading news")
		return
	}
	h.render(w, r, http.StatusOK, "public/news", h.page(r, "News", NewsData{
		Articles:   page.Items,
		Pagination: paginationFor(page, "/news", r),
	}))
}

// Article handles GET /news/{id}. Unpublished articles are not found.
func (h *Handler) Article(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	article, err := h.content.PublishedArticle(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err, "loading article")
		return
	}
	h.render(w, r, http.StatusOK, "public/article", h.page(r, model.UnescapeText(article.Title), article))
}

// NotFound renders the 404 page for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.Error(w, http.StatusNotFound, render.TemplateData{Theme: h.settings.Theme(r.Context())})
}

func paginationFor[T any](p content.Page[T], baseURL string, r *http.Request) Pagination {
	return BuildPagination(p.CurrentPage, p.TotalPages, p.TotalItems, baseURL, r.URL.Query())
}
