// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3ddreamcrafts/dreamcrafts/internal/audit"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
	"github.com/3ddreamcrafts/dreamcrafts/internal/testutil"
)

func TestDefaultCSRFConfig(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	dev := DefaultCSRFConfig(key, true)
	assert.Equal(t, key, dev.AuthKey)
	assert.ElementsMatch(t, []string{"localhost:8080", "127.0.0.1:8080"}, dev.TrustedOrigins)

	prod := DefaultCSRFConfig(key, false)
	assert.Empty(t, prod.TrustedOrigins)
}

func TestCrossOrigin(t *testing.T) {
	h := CrossOrigin(DefaultCSRFConfig([]byte("12345678901234567890123456789012"), false), testutil.TestLoggerSilent())(okHandler())

	tests := []struct {
		name   string
		method string
		site   string
		want   int
	}{
		{"safe method from anywhere", http.MethodGet, "cross-site", http.StatusOK},
		{"same-origin post", http.MethodPost, "same-origin", http.StatusOK},
		{"cross-site post", http.MethodPost, "cross-site", http.StatusForbidden},
		{"no fetch metadata", http.MethodPost, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "https://example.com/admin/prints", nil)
			if tt.site != "" {
				req.Header.Set("Sec-Fetch-Site", tt.site)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSessionCSRF(t *testing.T) {
	f := newFixture(t)
	cookie, token := f.login(t)
	h := f.sm.LoadAndSave(SessionCSRF(f.am, f.rec, testutil.TestLoggerSilent())(okHandler()))

	form := func(v string) *http.Request {
		body := url.Values{CSRFFormField: {v}, "title": {"x"}}.Encode()
		req := httptest.NewRequest(http.MethodPost, "/admin/prints", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		return req
	}

	tests := []struct {
		name string
		req  func() *http.Request
		want int
	}{
		{"get needs no token", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/admin/prints", nil)
			req.AddCookie(cookie)
			return req
		}, http.StatusOK},
		{"valid form token", func() *http.Request { return form(token) }, http.StatusOK},
		{"valid header token", func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/admin/uploads", nil)
			req.Header.Set(CSRFHeader, token)
			req.AddCookie(cookie)
			return req
		}, http.StatusOK},
		{"missing token", func() *http.Request { return form("") }, http.StatusForbidden},
		{"wrong token", func() *http.Request { return form(strings.Repeat("0", 64)) }, http.StatusForbidden},
		{"token without session", func() *http.Request {
			body := url.Values{CSRFFormField: {token}}.Encode()
			req := httptest.NewRequest(http.MethodPost, "/admin/prints", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req
		}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req())
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	n, err := store.New(f.db).CountSecurityLogByType(context.Background(), audit.CSRFFailure)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestSessionCSRFJSONError(t *testing.T) {
	f := newFixture(t)
	cookie, _ := f.login(t)
	h := f.sm.LoadAndSave(SessionCSRF(f.am, nil, nil)(okHandler()))

	req := httptest.NewRequest(http.MethodPost, "/admin/uploads", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"invalid CSRF token"}`, rec.Body.String())
}
