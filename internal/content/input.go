// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"net/url"

	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
)

// Input is a set of field values for one content kind. Only the fields that
// are set appear in Values, which is what makes partial updates work.
type Input interface {
	Kind() model.Kind
	Values() map[string]any
}

// FeaturedPrintInput carries featured print fields. Nil fields are not set.
type FeaturedPrintInput struct {
	Title       *string
	Description *string
	ImagePath   *string
	IsActive    *bool
}

func (in FeaturedPrintInput) Kind() model.Kind { return model.FeaturedPrints }

func (in FeaturedPrintInput) Values() map[string]any {
	v := make(map[string]any)
	setString(v, "title", in.Title)
	setString(v, "description", in.Description)
	setString(v, "image_path", in.ImagePath)
	setBool(v, "is_active", in.IsActive)
	return v
}

// CraftShowInput carries craft show fields. EventDate is YYYY-MM-DD.
type CraftShowInput struct {
	Title       *string
	EventDate   *string
	Location    *string
	Description *string
	IsActive    *bool
}

func (in CraftShowInput) Kind() model.Kind { return model.CraftShows }

func (in CraftShowInput) Values() map[string]any {
	v := make(map[string]any)
	setString(v, "title", in.Title)
	setString(v, "event_date", in.EventDate)
	setString(v, "location", in.Location)
	setString(v, "description", in.Description)
	setBool(v, "is_active", in.IsActive)
	return v
}

// NewsArticleInput carries news article fields. An empty PublishedDate means
// "now".
type NewsArticleInput struct {
	Title         *string
	Content       *string
	PublishedDate *string
	IsPublished   *bool
}

func (in NewsArticleInput) Kind() model.Kind { return model.NewsArticles }

func (in NewsArticleInput) Values() map[string]any {
	v := make(map[string]any)
	setString(v, "title", in.Title)
	setString(v, "content", in.Content)
	setString(v, "published_date", in.PublishedDate)
	setBool(v, "is_published", in.IsPublished)
	return v
}

// RawInput is an untyped field bag. Keys outside the kind's schema are
// rejected by validation.
type RawInput struct {
	For    model.Kind
	Fields map[string]any
}

func (in RawInput) Kind() model.Kind { return in.For }

func (in RawInput) Values() map[string]any {
	v := make(map[string]any, len(in.Fields))
	for k, val := range in.Fields {
		v[k] = val
	}
	return v
}

// FormInput builds the typed input for kind from a submitted form. Only keys
// present in the form are set. Flags use the last submitted value so a
// hidden "0" followed by a checked checkbox reads as true.
func FormInput(kind model.Kind, form url.Values) (Input, error) {
	str := func(key string) *string {
		if !form.Has(key) {
			return nil
		}
		s := form.Get(key)
		return &s
	}

	var errs ValidationErrors
	flag := func(key, label string) *bool {
		vals, ok := form[key]
		if !ok || len(vals) == 0 {
			return nil
		}
		b, valid := parseFlag(vals[len(vals)-1])
		if !valid {
			errs.add(key, label+" must be a yes/no value")
			return nil
		}
		return &b
	}

	var in Input
	switch kind {
	case model.FeaturedPrints:
		in = FeaturedPrintInput{
			Title:       str("title"),
			Description: str("description"),
			ImagePath:   str("image_path"),
			IsActive:    flag("is_active", "Active"),
		}
	case model.CraftShows:
		in = CraftShowInput{
			Title:       str("title"),
			EventDate:   str("event_date"),
			Location:    str("location"),
			Description: str("description"),
			IsActive:    flag("is_active", "Active"),
		}
	case model.NewsArticles:
		in = NewsArticleInput{
			Title:         str("title"),
			Content:       str("content"),
			PublishedDate: str("published_date"),
			IsPublished:   flag("is_published", "Published"),
		}
	default:
		return nil, model.ErrInvalidKind
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return in, nil
}

// String returns a pointer to s, for building inputs.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building inputs.
func Bool(b bool) *bool { return &b }

func setString(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func setBool(m map[string]any, key string, v *bool) {
	if v != nil {
		m[key] = *v
	}
}
