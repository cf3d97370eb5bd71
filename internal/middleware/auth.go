// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"

	"github.com/3ddreamcrafts/dreamcrafts/internal/auth"
)

// LoginPath is where unauthenticated admin requests are sent.
const LoginPath = "/login"

// RequireAuth rejects requests without a live admin session. Browsers are
// redirected to the login page with a flash message, JSON callers get 401.
func RequireAuth(am *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !am.IsAuthenticated(r.Context()) {
				if wantsJSON(r) {
					writeJSONError(w, http.StatusUnauthorized, "authentication required")
					return
				}
				am.Flash(r.Context(), "Please log in to continue.")
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			// Admin pages must not be kept by shared caches or the back button.
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectIfAuthenticated sends logged in users away from the login page.
func RedirectIfAuthenticated(am *auth.Manager, target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if am.IsAuthenticated(r.Context()) {
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
