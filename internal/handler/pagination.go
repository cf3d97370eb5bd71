// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/url"
)

// Pagination holds page links for list templates.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	HasPrev     bool
	HasNext     bool
	Pages       []PaginationLink
	BaseURL     string
	QueryString string
}

// PaginationLink is one numbered link, or an ellipsis.
type PaginationLink struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// BuildPagination creates page links around the current page. Query
// parameters other than page are preserved.
func BuildPagination(currentPage, totalPages int, totalItems int64, baseURL string, query url.Values) Pagination {
	if totalPages < 1 {
		totalPages = 1
	}
	if currentPage < 1 {
		currentPage = 1
	}

	p := Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
		BaseURL:     baseURL,
	}

	if query != nil {
		params := make(url.Values)
		for k, v := range query {
			if k != "page" && len(v) > 0 && v[0] != "" {
				params[k] = v
			}
		}
		if len(params) > 0 {
			p.QueryString = params.Encode()
		}
	}

	// Five numbered links around the current page, plus first and last.
	start, end := currentPage-2, currentPage+2
	if start < 1 {
		start, end = 1, 5
	}
	if end > totalPages {
		end = totalPages
		start = max(end-4, 1)
	}

	if start > 1 {
		p.Pages = append(p.Pages, PaginationLink{Number: 1, URL: p.PageURL(1)})
		if start > 2 {
			p.Pages = append(p.Pages, PaginationLink{IsEllipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		p.Pages = append(p.Pages, PaginationLink{Number: i, URL: p.PageURL(i), IsCurrent: i == currentPage})
	}
	if end < totalPages {
		if end < totalPages-1 {
			p.Pages = append(p.Pages, PaginationLink{IsEllipsis: true})
		}
		p.Pages = append(p.Pages, PaginationLink{Number: totalPages, URL: p.PageURL(totalPages)})
	}
	return p
}

// PageURL returns the URL of page n.
func (p Pagination) PageURL(n int) string {
	if p.QueryString != "" {
		return fmt.Sprintf("%s?%s&page=%d", p.BaseURL, p.QueryString, n)
	}
	return fmt.Sprintf("%s?page=%d", p.BaseURL, n)
}

// PrevURL returns the previous page URL.
func (p Pagination) PrevURL() string { return p.PageURL(p.CurrentPage - 1) }

// NextURL returns the next page URL.
func (p Pagination) NextURL() string { return p.PageURL(p.CurrentPage + 1) }

// ShouldShow reports whether there is more than one page.
func (p Pagination) ShouldShow() bool { return p.TotalPages > 1 }
