// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package settings stores the site's key/value settings (title, theme
// colors, font, social links) with defaults and a cache in front.
package settings

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/3ddreamcrafts/dreamcrafts/internal/cache"
	"github.com/3ddreamcrafts/dreamcrafts/internal/content"
	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
)

// Setting keys.
const (
	SiteTitle       = "site_title"
	SiteTagline     = "site_tagline"
	PrimaryColor    = "primary_color"
	SecondaryColor  = "secondary_color"
	AccentColor     = "accent_color"
	BackgroundColor = "background_color"
	TextColor       = "text_color"
	FontFamily      = "font_family"
	FacebookURL     = "facebook_url"
	InstagramURL    = "instagram_url"
	EtsyURL         = "etsy_url"
	TikTokURL       = "tiktok_url"
	YouTubeURL      = "youtube_url"
	ContactEmail    = "contact_email"
)

type valueType int

const (
	typeText valueType = iota
	typeColor
	typeURL
	typeEmail
)

type definition struct {
	key      string
	label    string
	typ      valueType
	maxLen   int
	fallback string
}

// definitions is the known settings in admin form order.
var definitions = []definition{
	{SiteTitle, "Site title", typeText, 100, "3DDreamCrafts"},
	{SiteTagline, "Tagline", typeText, 255, "Handmade 3D printed art and gifts"},
	{PrimaryColor, "Primary color", typeColor, 0, "#2563eb"},
	{SecondaryColor, "Secondary color", typeColor, 0, "#1e293b"},
	{AccentColor, "Accent color", typeColor, 0, "#f59e0b"},
	{BackgroundColor, "Background color", typeColor, 0, "#ffffff"},
	{TextColor, "Text color", typeColor, 0, "#111827"},
	{FontFamily, "Font family", typeText, 100, "Inter, sans-serif"},
	{FacebookURL, "Facebook URL", typeURL, 500, ""},
	{InstagramURL, "Instagram URL", typeURL, 500, ""},
	{EtsyURL, "Etsy URL", typeURL, 500, ""},
	{TikTokURL, "TikTok URL", typeURL, 500, ""},
	{YouTubeURL, "YouTube URL", typeURL, 500, ""},
	{ContactEmail, "Contact email", typeEmail, 254, ""},
}

// maxCustomLen bounds values of settings outside the known set.
const maxCustomLen = 2000

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

const cacheKey = "settings:all"

// Store reads and writes settings.
type Store struct {
	db     *store.DB
	cache  *cache.TypedCache[map[string]string]
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a settings store. c may be nil to disable caching.
func NewStore(db *sql.DB, c cache.Cache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{db: store.Wrap(db), logger: logger, now: time.Now}
	if c != nil {
		s.cache = cache.NewTypedCache[map[string]string](c, time.Hour)
	}
	return s
}

// Defaults returns the built-in value of every known setting.
func Defaults() map[string]string {
	m := make(map[string]string, len(definitions))
	for _, d := range definitions {
		m[d.key] = d.fallback
	}
	return m
}

// Keys returns the known setting keys in form order.
func Keys() []string {
	keys := make([]string, len(definitions))
	for i, d := range definitions {
		keys[i] = d.key
	}
	return keys
}

// Label returns the display label of a known key, or the key itself.
func Label(key string) string {
	if d, ok := lookup(key); ok {
		return d.label
	}
	return key
}

// InputType returns the HTML input type used to edit key.
func InputType(key string) string {
	d, _ := lookup(key)
	switch d.typ {
	case typeColor:
		return "color"
	case typeURL:
		return "url"
	case typeEmail:
		return "email"
	}
	return "text"
}

func lookup(key string) (definition, bool) {
	for _, d := range definitions {
		if d.key == key {
			return d, true
		}
	}
	return definition{}, false
}

// All returns every stored setting merged over the defaults.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	if s.cache == nil {
		return s.load(ctx)
	}
	return s.cache.GetOrLoad(ctx, cacheKey, s.load)
}

func (s *Store) load(ctx context.Context) (map[string]string, error) {
	rows, err := store.New(s.db.SQL()).ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	all := Defaults()
	for _, r := range rows {
		all[r.SettingName] = r.SettingValue
	}
	return all, nil
}

// Get returns one setting, its default, or "" when unknown. Load failures
// are logged and fall back to the default.
func (s *Store) Get(ctx context.Context, key string) string {
	all, err := s.All(ctx)
	if err != nil {
		s.logger.Error("reading settings", "error", err)
		d, _ := lookup(key)
		return d.fallback
	}
	return all[key]
}

// Update validates and writes values in one transaction, then invalidates
// the cache. Nothing is written if any value is rejected.
func (s *Store) Update(ctx context.Context, values map[string]string) error {
	clean, err := Validate(values)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	err = s.db.WithTx(ctx, func(tx *store.Tx) error {
		q := store.New(tx.Raw())
		for _, key := range sortedKeys(clean) {
			if err := q.UpsertSetting(ctx, store.UpsertSettingParams{
				SettingName:  key,
				SettingValue: clean[key],
				UpdatedAt:    now,
			}); err != nil {
				return fmt.Errorf("saving setting %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Invalidate(ctx)
	return nil
}

// Invalidate drops the cached settings.
func (s *Store) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		s.logger.Warn("invalidating settings cache", "error", err)
	}
}

// Validate normalizes values by key type. Unknown keys with a well-formed
// name are kept as escaped text.
func Validate(values map[string]string) (map[string]string, error) {
	var errs content.ValidationErrors
	clean := make(map[string]string, len(values))

	for _, key := range sortedKeys(values) {
		raw := values[key]
		d, known := lookup(key)
		if !known {
			if !keyPattern.MatchString(key) {
				errs = append(errs, content.FieldError{Field: key, Message: fmt.Sprintf("Invalid setting name %q", key)})
				continue
			}
			d = definition{key: key, label: key, typ: typeText, maxLen: maxCustomLen}
		}

		v, ok := normalizeValue(d, raw)
		if !ok {
			errs = append(errs, content.FieldError{Field: key, Message: invalidMessage(d)})
			continue
		}
		clean[key] = v
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return clean, nil
}

func normalizeValue(d definition, raw string) (string, bool) {
	switch d.typ {
	case typeColor:
		return model.ValidateHexColor(raw)
	case typeURL:
		u, ok := model.ValidateURL(raw)
		if !ok || len(u) > d.maxLen {
			return "", false
		}
		return u, true
	case typeEmail:
		return model.ValidateEmail(raw)
	default:
		return model.ValidateText(raw, d.maxLen)
	}
}

func invalidMessage(d definition) string {
	switch d.typ {
	case typeColor:
		return d.label + " must be a hex color like #2563eb"
	case typeURL:
		return d.label + " must be an http(s) URL"
	case typeEmail:
		return d.label + " must be a valid email address"
	default:
		return fmt.Sprintf("%s must be at most %d characters", d.label, d.maxLen)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
