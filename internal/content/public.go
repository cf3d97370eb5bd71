// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
)

// FeaturedPrint returns print id.
func (m *Manager) FeaturedPrint(ctx context.Context, id int64) (*model.FeaturedPrint, error) {
	row, err := m.Get(ctx, model.FeaturedPrints, id)
	if err != nil {
		return nil, err
	}
	p := toFeaturedPrint(row)
	return &p, nil
}

// CraftShow returns show id.
func (m *Manager) CraftShow(ctx context.Context, id int64) (*model.CraftShow, error) {
	row, err := m.Get(ctx, model.CraftShows, id)
	if err != nil {
		return nil, err
	}
	s := toCraftShow(row)
	return &s, nil
}

// NewsArticle returns article id whether or not it is published.
func (m *Manager) NewsArticle(ctx context.Context, id int64) (*model.NewsArticle, error) {
	row, err := m.Get(ctx, model.NewsArticles, id)
	if err != nil {
		return nil, err
	}
	a := toNewsArticle(row)
	return &a, nil
}

// ActiveFeaturedPrint returns the most recently updated active print, or
// store.ErrNotFound.
func (m *Manager) ActiveFeaturedPrint(ctx context.Context) (*model.FeaturedPrint, error) {
	row, err := m.db.QueryOne(ctx,
		"SELECT * FROM featured_prints WHERE is_active = 1 ORDER BY updated_at DESC, id DESC LIMIT 1")
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading featured print: %w", err)
	}
	p := toFeaturedPrint(row)
	return &p, nil
}

// UpcomingShows returns active shows dated today or later, soonest first.
// A non-positive limit returns all of them.
func (m *Manager) UpcomingShows(ctx context.Context, limit int) ([]model.CraftShow, error) {
	if limit <= 0 {
		limit = -1
	}
	today := m.now().Format(time.DateOnly)
	rows, err := m.db.Query(ctx,
		`SELECT * FROM craft_shows
		 WHERE is_active = 1 AND event_date >= ?
		 ORDER BY event_date ASC, id ASC
		 LIMIT ?`, today, limit)
	if err != nil {
		return nil, fmt.Errorf("listing upcoming shows: %w", err)
	}

	shows := make([]model.CraftShow, 0, len(rows))
	for _, row := range rows {
		shows = append(shows, toCraftShow(row))
	}
	return shows, nil
}

// PublishedNews returns one page of published articles, newest first.
func (m *Manager) PublishedNews(ctx context.Context, page, perPage int) (Page[model.NewsArticle], error) {
	rows, err := m.paginate(ctx, "news_articles", "is_published = 1", "published_date DESC, id DESC", page, perPage)
	if err != nil {
		return Page[model.NewsArticle]{}, err
	}

	articles := make([]model.NewsArticle, 0, len(rows.Items))
	for _, row := range rows.Items {
		articles = append(articles, toNewsArticle(row))
	}
	return Page[model.NewsArticle]{
		Items:       articles,
		TotalItems:  rows.TotalItems,
		CurrentPage: rows.CurrentPage,
		TotalPages:  rows.TotalPages,
		PerPage:     rows.PerPage,
	}, nil
}

// PublishedArticle returns article id only if it is published.
func (m *Manager) PublishedArticle(ctx context.Context, id int64) (*model.NewsArticle, error) {
	row, err := m.db.QueryOne(ctx,
		"SELECT * FROM news_articles WHERE id = ? AND is_published = 1", id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading article %d: %w", id, err)
	}
	a := toNewsArticle(row)
	return &a, nil
}

func toFeaturedPrint(r store.Row) model.FeaturedPrint {
	return model.FeaturedPrint{
		ID:          r.Int64("id"),
		Title:       r.String("title"),
		Description: r.String("description"),
		ImagePath:   r.String("image_path"),
		IsActive:    r.Bool("is_active"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
}

func toCraftShow(r store.Row) model.CraftShow {
	return model.CraftShow{
		ID:          r.Int64("id"),
		Title:       r.String("title"),
		EventDate:   r.String("event_date"),
		Location:    r.String("location"),
		Description: r.String("description"),
		IsActive:    r.Bool("is_active"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
}

func toNewsArticle(r store.Row) model.NewsArticle {
	return model.NewsArticle{
		ID:            r.Int64("id"),
		Title:         r.String("title"),
		Content:       r.String("content"),
		PublishedDate: r.Time("published_date"),
		IsPublished:   r.Bool("is_published"),
		CreatedAt:     r.Time("created_at"),
		UpdatedAt:     r.Time("updated_at"),
	}
}
