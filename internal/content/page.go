// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

// Pagination defaults.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Page is one page of a listing.
type Page[T any] struct {
	Items       []T   `json:"content"`
	TotalItems  int64 `json:"total_items"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	PerPage     int   `json:"per_page"`
}

// HasPrev reports whether there is a page before this one.
func (p Page[T]) HasPrev() bool { return p.CurrentPage > 1 }

// HasNext reports whether there is a page after this one.
func (p Page[T]) HasNext() bool { return p.CurrentPage < p.TotalPages }

// PrevPage returns the previous page number.
func (p Page[T]) PrevPage() int { return p.CurrentPage - 1 }

// NextPage returns the next page number.
func (p Page[T]) NextPage() int { return p.CurrentPage + 1 }

// clampPage normalizes page to >= 1 and perPage to [1, MaxPerPage], with
// DefaultPerPage for non-positive values.
func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

func totalPages(total int64, perPage int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Window normalizes page and perPage and returns the matching row offset.
func Window(page, perPage int) (int, int, int) {
	page, perPage = clampPage(page, perPage)
	return page, perPage, (page - 1) * perPage
}

// NewPage assembles a page from already windowed items.
func NewPage[T any](items []T, total int64, page, perPage int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		TotalItems:  total,
		CurrentPage: page,
		TotalPages:  totalPages(total, perPage),
		PerPage:     perPage,
	}
}
