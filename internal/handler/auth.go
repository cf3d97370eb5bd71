// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/3ddreamcrafts/dreamcrafts/internal/auth"
	"github.com/3ddreamcrafts/dreamcrafts/internal/middleware"
)

// LoginData is the login form model.
type LoginData struct {
	Username  string
	Error     string
	LoggedOut bool
}

// LoginForm handles GET /login.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "auth/login", h.page(r, "Log in", LoginData{
		LoggedOut: r.URL.Query().Has("logged_out"),
	}))
}

// Login handles POST /login. Failures never reveal whether the username
// exists.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, "", "Invalid form data.")
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	err := h.auth.Login(r.Context(), username, password, middleware.Client(r))
	switch {
	case err == nil:
		h.flashRedirect(w, r, "/admin", "Welcome back, "+username+".")
	case errors.Is(err, auth.ErrTooManyAttempts):
		h.renderLogin(w, r, http.StatusTooManyRequests, username,
			"Too many failed login attempts. Please try again later.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.renderLogin(w, r, http.StatusUnauthorized, username, "Invalid username or password.")
	default:
		h.serverError(w, r, err, "logging in")
	}
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, username, msg string) {
	h.render(w, r, status, "auth/login", h.page(r, "Log in", LoginData{Username: username, Error: msg}))
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.Client(r)); err != nil {
		h.serverError(w, r, err, "logging out")
		return
	}
	http.Redirect(w, r, "/login?logged_out=1", http.StatusSeeOther)
}
