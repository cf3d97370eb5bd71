// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// FeaturedPrint is a showcased 3D print. By convention one print is active at
// a time and shown on the homepage.
type FeaturedPrint struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImagePath   string    `json:"image_path"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CraftShow is an event where the shop has a booth.
type CraftShow struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	EventDate   string    `json:"event_date"` // YYYY-MM-DD
	Location    string    `json:"location"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Date parses EventDate. It returns the zero time for malformed values.
func (s *CraftShow) Date() time.Time {
	t, err := time.Parse(time.DateOnly, s.EventDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsUpcoming reports whether the show is active and takes place on or after
// the calendar day of now.
func (s *CraftShow) IsUpcoming(now time.Time) bool {
	return s.IsActive && s.EventDate >= now.Format(time.DateOnly)
}

// NewsArticle is a news post. Content is markdown.
type NewsArticle struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	PublishedDate time.Time `json:"published_date"`
	IsPublished   bool      `json:"is_published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
