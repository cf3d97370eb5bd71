// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3ddreamcrafts/dreamcrafts/internal/content"
)

func TestHomeWithoutContent(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	html := body(t, rec)
	assert.Contains(t, html, "Check back soon")
	assert.Contains(t, html, "No upcoming shows scheduled.")
	assert.Contains(t, html, "3DDreamCrafts")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestPublicPagesShowContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	nextMonth := time.Now().AddDate(0, 1, 0).Format(time.DateOnly)
	lastYear := time.Now().AddDate(-1, 0, 0).Format(time.DateOnly)

	_, err := f.content.Create(ctx, content.FeaturedPrintInput{Title: content.String("Dragon"), IsActive: content.Bool(true)})
	require.NoError(t, err)
	_, err = f.content.Create(ctx, content.CraftShowInput{
		Title: content.String("Spring Fair"), EventDate: content.String(nextMonth), Location: content.String("Town Hall"),
	})
	require.NoError(t, err)
	_, err = f.content.Create(ctx, content.CraftShowInput{
		Title: content.String("Old Fair"), EventDate: content.String(lastYear), Location: content.String("Barn"),
	})
	require.NoError(t, err)
	published, err := f.content.Create(ctx, content.NewsArticleInput{
		Title: content.String("<b>Sale</b> & more"), Content: content.String("**Big** news"), IsPublished: content.Bool(true),
	})
	require.NoError(t, err)
	draft, err := f.content.Create(ctx, content.NewsArticleInput{
		Title: content.String("Draft"), Content: content.String("secret"),
	})
	require.NoError(t, err)

	home := body(t, f.get(t, "/", nil))
	assert.Contains(t, home, "Dragon")
	assert.Contains(t, home, "Spring Fair")
	assert.NotContains(t, home, "Old Fair")

	shows := f.get(t, "/shows", nil)
	require.Equal(t, http.StatusOK, shows.Code)
	assert.Contains(t, body(t, shows), "Town Hall")

	news := body(t, f.get(t, "/news", nil))
	assert.Contains(t, news, "&lt;b&gt;Sale&lt;/b&gt; &amp; more")
	assert.NotContains(t, news, "&amp;lt;", "stored text must be escaped exactly once")
	assert.NotContains(t, news, "Draft")

	article := f.get(t, "/news/"+strconv.FormatInt(published, 10), nil)
	require.Equal(t, http.StatusOK, article.Code)
	assert.Contains(t, body(t, article), "<strong>Big</strong>")

	assert.Equal(t, http.StatusNotFound, f.get(t, "/news/"+strconv.FormatInt(draft, 10), nil).Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/news/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/news/99999", nil).Code)
}

func TestNotFoundPage(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/no-such-page", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body(t, rec), "does not exist")
}

func TestStaticAssets(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/static/dist/site.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age")
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var anon map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &anon))
	assert.Equal(t, "healthy", anon["status"])
	assert.NotContains(t, anon, "version")
	assert.NotContains(t, anon, "checks")

	cookie, _ := f.login(t)
	rec = f.get(t, "/health", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var full HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &full))
	assert.Equal(t, "healthy", full.Status)
	require.NotNil(t, full.Version)
	assert.Equal(t, "healthy", full.Checks["database"].Status)
	assert.Equal(t, "healthy", full.Checks["uploads"].Status)
}

func TestRobotsAndSitemap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	published, err := f.content.Create(ctx, content.NewsArticleInput{
		Title: content.String("Open studio"), Content: content.String("Come by"), IsPublished: content.Bool(true),
	})
	require.NoError(t, err)
	draft, err := f.content.Create(ctx, content.NewsArticleInput{
		Title: content.String("Draft"), Content: content.String("later"),
	})
	require.NoError(t, err)

	robots := f.get(t, "/robots.txt", nil)
	require.Equal(t, http.StatusOK, robots.Code)
	assert.Contains(t, robots.Body.String(), "Disallow: /admin\n")
	assert.Contains(t, robots.Body.String(), "Sitemap: http://example.com/sitemap.xml")

	sitemap := f.get(t, "/sitemap.xml", nil)
	require.Equal(t, http.StatusOK, sitemap.Code)
	assert.Contains(t, sitemap.Header().Get("Content-Type"), "application/xml")
	xml := sitemap.Body.String()
	assert.Contains(t, xml, "<loc>http://example.com/shows</loc>")
	assert.Contains(t, xml, "<loc>http://example.com/news/"+strconv.FormatInt(published, 10)+"</loc>")
	assert.NotContains(t, xml, "/news/"+strconv.FormatInt(draft, 10)+"<")
}
