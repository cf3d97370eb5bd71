// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3ddreamcrafts/dreamcrafts/internal/audit"
	"github.com/3ddreamcrafts/dreamcrafts/internal/auth"
	"github.com/3ddreamcrafts/dreamcrafts/internal/content"
	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
)

func pngFile(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartRequest builds a multipart POST with form fields and one file
// part.
func multipartRequest(t *testing.T, path string, fields map[string]string, fileField, fileName string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	cookie, _ := f.login(t)

	rec := f.get(t, "/admin", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	html := body(t, rec)
	assert.Contains(t, html, "Featured Prints")
	assert.Contains(t, html, "Craft Shows")
	assert.Contains(t, html, "News Articles")
	assert.Contains(t, html, audit.LoginSuccess)
}

func TestAdminCraftShowLifecycle(t *testing.T) {
	f := newFixture(t)
	cookie, token := f.login(t)
	date := time.Now().AddDate(0, 2, 0).Format(time.DateOnly)

	rec := f.get(t, "/admin/shows/new", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body(t, rec), `name="event_date"`)

	rec = f.postForm(t, "/admin/shows", url.Values{
		"csrf_token": {token},
		"title":      {"Harvest <Market>"},
		"event_date": {date},
		"location":   {"Main St"},
		"is_active":  {"0", "1"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code, body(t, rec))
	assert.Equal(t, "/admin/shows", rec.Header().Get("Location"))

	page, err := f.content.List(context.Background(), model.CraftShows, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	row := page.Items[0]
	id := strconv.FormatInt(row.Int64("id"), 10)
	assert.Equal(t, "Harvest &lt;Market&gt;", row.String("title"))
	assert.True(t, row.Bool("is_active"))

	list := body(t, f.get(t, "/admin/shows", cookie))
	assert.Contains(t, list, "Craft show created.")
	assert.Contains(t, list, "Harvest &lt;Market&gt;")

	edit := f.get(t, "/admin/shows/"+id, cookie)
	require.Equal(t, http.StatusOK, edit.Code)
	assert.Contains(t, body(t, edit), `value="Harvest &lt;Market&gt;"`)

	rec = f.postForm(t, "/admin/shows/"+id, url.Values{
		"csrf_token": {token},
		"title":      {"Harvest Market"},
		"event_date": {date},
		"location":   {"Main St"},
		"is_active":  {"0"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	got, err := f.content.Get(context.Background(), model.CraftShows, row.Int64("id"))
	require.NoError(t, err)
	assert.Equal(t, "Harvest Market", got.String("title"))
	assert.False(t, got.Bool("is_active"))

	rec = f.postForm(t, "/admin/shows/"+id+"/toggle", url.Values{"csrf_token": {token}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	got, err = f.content.Get(context.Background(), model.CraftShows, row.Int64("id"))
	require.NoError(t, err)
	assert.True(t, got.Bool("is_active"))

	rec = f.postForm(t, "/admin/shows/"+id+"/delete", url.Values{"csrf_token": {token}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/admin/shows/"+id, cookie).Code)
}

func TestAdminCreateValidation(t *testing.T) {
	f := newFixture(t)
	cookie, token := f.login(t)

	rec := f.postForm(t, "/admin/shows", url.Values{
		"csrf_token": {token},
		"title":      {"Fair"},
		"event_date": {"2025-02-30"},
		"location":   {""},
	}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	html := body(t, rec)
	assert.Contains(t, html, `value="Fair"`, "submitted values are kept")
	assert.Contains(t, html, `class="error"`)

	page, err := f.content.List(context.Background(), model.CraftShows, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestAdminUnknownKindAndID(t *testing.T) {
	f := newFixture(t)
	cookie, token := f.login(t)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/admin/widgets", cookie).Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/admin/shows/abc", cookie).Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/admin/news/42", cookie).Code)

	rec := f.postForm(t, "/admin/news/42", url.Values{"csrf_token": {token}, "title": {"x"}}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.postForm(t, "/admin/news/42/delete", url.Values{"csrf_token": {token}}, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdminRejectsMissingCSRFToken(t *testing.T) {
	f := newFixture(t)
	cookie, _ := f.login(t)

	tests := []url.Values{
		{"title": {"No token"}},
		{"title": {"Bad token"}, "csrf_token": {"forged"}},
	}
	for _, form := range tests {
		rec := f.postForm(t, "/admin/news", form, cookie)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}
	assert.Equal(t, 2, f.securityEvents(t, audit.CSRFFailure))

	page, err := f.content.List(context.Background(), model.NewsArticles, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestFeaturePrint(t *testing.T) {
	f := newFixture(t)
	cookie, token := f.login(t)
	ctx := context.Background()

	first, err := f.content.Create(ctx, content.FeaturedPrintInput{Title: content.String("First"), IsActive: content.Bool(true)})
	require.NoError(t, err)
	second, err := f.content.Create(ctx, content.FeaturedPrintInput{Title: content.String("Second"), IsActive: content.Bool(false)})
	require.NoError(t, err)

	rec := f.postForm(t, "/admin/prints/"+strconv.FormatInt(second, 10)+"/feature", url.Values{"csrf_token": {token}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	active, err := f.content.ActiveFeaturedPrint(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, active.ID)
	row, err := f.content.Get(ctx, model.FeaturedPrints, first)
	require.NoError(t, err)
	assert.False(t, row.Bool("is_active"))
}

func TestCreatePrintWithImage(t *testing.T) {
	f := newFixture(t)
	cookie, token := f.login(t)

	req := multipartRequest(t, "/admin/prints", map[string]string{
		"csrf_token": token,
		"title":      "Octopus",
		"is_active":  "1",
	}, "image_file", "Octopus Print.png", pngFile(t))
	rec := f.do(t, req, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code, body(t, rec))

	active, err := f.content.ActiveFeaturedPrint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "prints/octopus-print.png", active.ImagePath)
	_, err = os.Stat(filepath.Join(f.uploads.Root(), "prints", "octopus-print.png"))
	assert.NoError(t, err)

	img := f.get(t, "/uploads/prints/octopus-print.png", nil)
	assert.Equal(t, http.StatusOK, img.Code)
}

func TestCreatePrintRejectsBadImage(t *testing.T) {
	f := newFixture(t)
	cookie, token := f.login(t)

	req := multipartRequest(t, "/admin/prints", map[string]string{
		"csrf_token": token,
		"title":      "Sneaky",
	}, "image_file", "shell.php", []byte("<?php echo 1; ?>"))
	rec := f.do(t, req, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body(t, rec), "File type not allowed")
	assert.Equal(t, 1, f.securityEvents(t, audit.UploadRejected))
}

func TestUploadEndpoint(t *testing.T) {
	f := newFixture(t)
	cookie, token := f.login(t)

	upload := func(name string, data []byte, dir string) *httptest.ResponseRecorder {
		req := multipartRequest(t, "/admin/uploads", map[string]string{"dir": dir}, "file", name, data)
		req.Header.Set("X-CSRF-Token", token)
		req.Header.Set("Accept", "application/json")
		return f.do(t, req, cookie)
	}

	rec := upload("logo.png", pngFile(t), "prints")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ok struct {
		Success bool `json:"success"`
		File    struct {
			Path string `json:"path"`
			URL  string `json:"url"`
		} `json:"file"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.True(t, ok.Success)
	assert.Equal(t, "prints/logo.png", ok.File.Path)
	assert.Equal(t, "/uploads/prints/logo.png", ok.File.URL)

	tests := []struct {
		name string
		file string
		data []byte
		dir  string
		code int
	}{
		{"php", "shell.php", []byte("<?php"), "prints", http.StatusBadRequest},
		{"mismatch", "fake.jpg", pngFile(t), "prints", http.StatusBadRequest},
		{"traversal dir", "a.png", pngFile(t), "../etc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(tt.file, tt.data, tt.dir)
			assert.Equal(t, tt.code, rec.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			assert.NotEmpty(t, resp["error"])
		})
	}
	assert.Equal(t, len(tests), f.securityEvents(t, audit.UploadRejected))

	req := multipartRequest(t, "/admin/uploads", map[string]string{"dir": "prints"}, "", "", nil)
	req.Header.Set("X-CSRF-Token", token)
	assert.Equal(t, http.StatusBadRequest, f.do(t, req, cookie).Code)
}

func TestSettingsPage(t *testing.T) {
	f := newFixture(t)
	cookie, token := f.login(t)
	ctx := context.Background()

	rec := f.get(t, "/admin/settings", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	html := body(t, rec)
	assert.Contains(t, html, `name="primary_color" type="color"`)
	assert.Contains(t, html, `name="facebook_url" type="url"`)

	rec = f.postForm(t, "/admin/settings", url.Values{
		"csrf_token":    {token},
		"site_title":    {"Dream & Craft"},
		"primary_color": {"#ABC"},
		"new_key":       {"footer_note"},
		"new_value":     {"Made in Ohio"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code, body(t, rec))
	assert.Equal(t, "Dream & Craft", f.settings.Theme(ctx).SiteTitle)
	assert.Equal(t, "Made in Ohio", f.settings.Get(ctx, "footer_note"))

	home := body(t, f.get(t, "/", nil))
	assert.Contains(t, home, "Dream &amp; Craft")

	rec = f.postForm(t, "/admin/settings", url.Values{
		"csrf_token":    {token},
		"primary_color": {"red"},
		"site_title":    {"Changed"},
	}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Dream & Craft", f.settings.Theme(ctx).SiteTitle, "nothing is saved when a value is rejected")

	rec = f.postForm(t, "/admin/settings", url.Values{
		"csrf_token": {token},
		"new_key":    {"Bad Key!"},
		"new_value":  {"x"},
	}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body(t, rec), "Invalid setting name")
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	cookie, token := f.login(t)

	tests := []struct {
		name    string
		current string
		next    string
		confirm string
		errText string
	}{
		{"wrong current", "nope", "new password 1", "new password 1", "Current password is incorrect."},
		{"too short", testPassword, "short", "short", auth.ErrWeakPassword.Error()},
		{"mismatch", testPassword, "new password 1", "new password 2", "Passwords do not match."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.postForm(t, "/admin/account/password", url.Values{
				"csrf_token":       {token},
				"current_password": {tt.current},
				"new_password":     {tt.next},
				"confirm_password": {tt.confirm},
			}, cookie)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, body(t, rec), tt.errText)
		})
	}

	rec := f.postForm(t, "/admin/account/password", url.Values{
		"csrf_token":       {token},
		"current_password": {testPassword},
		"new_password":     {"a much better one"},
		"confirm_password": {"a much better one"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	login := f.postForm(t, "/login", url.Values{"username": {testUser}, "password": {"a much better one"}}, nil)
	assert.Equal(t, http.StatusSeeOther, login.Code)
}

func TestSecurityLogPage(t *testing.T) {
	f := newFixture(t)
	cookie, _ := f.login(t)

	rec := f.get(t, "/admin/security", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	html := body(t, rec)
	assert.Contains(t, html, audit.LoginSuccess)
	assert.Contains(t, html, "192.0.2.1")
}
