// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/3ddreamcrafts/dreamcrafts/internal/seo"
)

const sitemapBatch = 100

// Robots handles GET /robots.txt.
func (h *Handler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(seo.Robots(h.baseURL(r))))
}

// Sitemap handles GET /sitemap.xml. It lists the section pages and every
// published article.
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	b := seo.NewSitemapBuilder(h.baseURL(r))
	b.AddStaticPages()

	for page := 1; ; page++ {
		p, err := h.content.PublishedNews(r.Context(), page, sitemapBatch)
		if err != nil {
			h.serverError(w, r, err, "loading news for sitemap")
			return
		}
		for _, a := range p.Items {
			b.AddArticle(seo.Article{ID: a.ID, UpdatedAt: a.UpdatedAt})
		}
		if !p.HasNext() {
			break
		}
	}

	data, err := b.Build()
	if err != nil {
		h.serverError(w, r, err, "building sitemap")
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

// baseURL returns the configured site URL or one built from the request.
func (h *Handler) baseURL(r *http.Request) string {
	if h.siteURL != "" {
		return h.siteURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
