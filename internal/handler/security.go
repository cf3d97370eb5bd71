// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
)

// SecurityLogData is one page of the security log viewer.
type SecurityLogData struct {
	Entries    []store.SecurityLog
	Pagination Pagination
}

// SecurityLog handles GET /admin/security.
func (h *Handler) SecurityLog(w http.ResponseWriter, r *http.Request) {
	page, err := h.audit.List(r.Context(), pageParam(r), SecurityPerPage)
	if err != nil {
		h.serverError(w, r, err, "loading security log")
		return
	}
	h.render(w, r, http.StatusOK, "admin/security", h.page(r, "Security log", SecurityLogData{
		Entries:    page.Items,
		Pagination: paginationFor(page, "/admin/security", r),
	}))
}
