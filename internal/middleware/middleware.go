// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication, CSRF
// protection, login throttling and security headers.
package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/3ddreamcrafts/dreamcrafts/internal/auth"
)

// ClientIP returns the caller's address without port. chi's RealIP has
// already rewritten RemoteAddr when a proxy header was present.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// Client describes the caller for auth and audit calls.
func Client(r *http.Request) auth.Client {
	return auth.Client{IP: ClientIP(r), UserAgent: r.UserAgent()}
}

// wantsJSON reports whether the caller expects a JSON error body.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
