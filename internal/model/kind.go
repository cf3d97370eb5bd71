// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the content kinds managed by the site, their entity
// types and the field validators shared by the content and settings layers.
package model

import (
	"errors"
	"strings"
)

// ErrInvalidKind is returned when a table name or slug does not name a
// manageable content kind.
var ErrInvalidKind = errors.New("Invalid table name") //nolint:staticcheck // user-facing message

// Kind is one of the manageable content kinds.
type Kind int

// Content kinds.
const (
	FeaturedPrints Kind = iota + 1
	CraftShows
	NewsArticles
	Settings
)

type kindInfo struct {
	table string
	slug  string
	label string
	// singular is used in flash messages ("Craft show created").
	singular string
}

var kinds = map[Kind]kindInfo{
	FeaturedPrints: {table: "featured_prints", slug: "prints", label: "Featured Prints", singular: "Featured print"},
	CraftShows:     {table: "craft_shows", slug: "shows", label: "Craft Shows", singular: "Craft show"},
	NewsArticles:   {table: "news_articles", slug: "news", label: "News Articles", singular: "News article"},
	Settings:       {table: "settings", slug: "settings", label: "Settings", singular: "Setting"},
}

// ContentKinds lists the kinds handled by the generic CRUD engine, in admin
// menu order.
func ContentKinds() []Kind {
	return []Kind{FeaturedPrints, CraftShows, NewsArticles}
}

// ParseKind accepts either the table name ("craft_shows") or the URL slug
// ("shows").
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for k, info := range kinds {
		if s == info.table || s == info.slug {
			return k, nil
		}
	}
	return 0, ErrInvalidKind
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Table returns the SQLite table backing the kind.
func (k Kind) Table() string { return kinds[k].table }

// Slug returns the URL segment used by the admin routes.
func (k Kind) Slug() string { return kinds[k].slug }

// Label returns the plural display name.
func (k Kind) Label() string { return kinds[k].label }

// Singular returns the singular display name.
func (k Kind) Singular() string { return kinds[k].singular }

// String implements fmt.Stringer.
func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return k.Table()
}

// FlagColumn returns the boolean column that gates public visibility.
func (k Kind) FlagColumn() string {
	if k == NewsArticles {
		return "is_published"
	}
	if k == FeaturedPrints || k == CraftShows {
		return "is_active"
	}
	return ""
}
