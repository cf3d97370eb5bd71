// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/3ddreamcrafts/dreamcrafts/internal/auth"
)

// PasswordForm handles GET /admin/account/password.
func (h *Handler) PasswordForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "admin/password", h.page(r, "Change password", nil))
}

// ChangePassword handles POST /admin/account/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashRedirect(w, r, "/admin/account/password", "Invalid form data.")
		return
	}
	current := r.PostForm.Get("current_password")
	next := r.PostForm.Get("new_password")
	confirm := r.PostForm.Get("confirm_password")
	userID := h.auth.UserID(r.Context())

	errs := make(map[string]string)
	ok, err := h.auth.CheckUserPassword(r.Context(), userID, current)
	if err != nil {
		h.serverError(w, r, err, "checking password")
		return
	}
	if !ok {
		errs["current_password"] = "Current password is incorrect."
	}
	if len(next) < auth.MinPasswordLength {
		errs["new_password"] = auth.ErrWeakPassword.Error()
	}
	if next != confirm {
		errs["confirm_password"] = "Passwords do not match."
	}
	if len(errs) > 0 {
		td := h.page(r, "Change password", nil)
		td.Errors = errs
		h.render(w, r, http.StatusUnprocessableEntity, "admin/password", td)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), userID, next); err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			td := h.page(r, "Change password", nil)
			td.Errors = map[string]string{"new_password": err.Error()}
			h.render(w, r, http.StatusUnprocessableEntity, "admin/password", td)
			return
		}
		h.serverError(w, r, err, "changing password")
		return
	}
	h.flashRedirect(w, r, "/admin", "Password changed.")
}
