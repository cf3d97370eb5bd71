// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package settings

import (
	"context"

	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
)

// SocialLink is one entry of the footer's social links.
type SocialLink struct {
	Name string
	URL  string
}

// Theme is the typed view of settings used by templates. Text values are
// stored escaped and are unescaped here; templates escape them again.
type Theme struct {
	SiteTitle       string
	Tagline         string
	PrimaryColor    string
	SecondaryColor  string
	AccentColor     string
	BackgroundColor string
	TextColor       string
	FontFamily      string
	ContactEmail    string
	Social          []SocialLink
}

// Theme returns the current theme. It falls back to defaults for any value
// that fails to load or no longer validates.
func (s *Store) Theme(ctx context.Context) Theme {
	all, err := s.All(ctx)
	if err != nil {
		s.logger.Error("loading theme settings", "error", err)
		all = Defaults()
	}
	return ThemeFrom(all)
}

// ThemeFrom builds a Theme from a settings map.
func ThemeFrom(all map[string]string) Theme {
	defaults := Defaults()
	color := func(key string) string {
		if c, ok := model.ValidateHexColor(all[key]); ok {
			return c
		}
		return defaults[key]
	}
	text := func(key string) string {
		if v := all[key]; v != "" {
			return model.UnescapeText(v)
		}
		return defaults[key]
	}

	t := Theme{
		SiteTitle:       text(SiteTitle),
		Tagline:         model.UnescapeText(all[SiteTagline]),
		PrimaryColor:    color(PrimaryColor),
		SecondaryColor:  color(SecondaryColor),
		AccentColor:     color(AccentColor),
		BackgroundColor: color(BackgroundColor),
		TextColor:       color(TextColor),
		FontFamily:      text(FontFamily),
		ContactEmail:    all[ContactEmail],
	}

	for _, l := range []SocialLink{
		{"Facebook", all[FacebookURL]},
		{"Instagram", all[InstagramURL]},
		{"Etsy", all[EtsyURL]},
		{"TikTok", all[TikTokURL]},
		{"YouTube", all[YouTubeURL]},
	} {
		if u, ok := model.ValidateURL(l.URL); ok && u != "" {
			t.Social = append(t.Social, SocialLink{Name: l.Name, URL: u})
		}
	}
	return t
}
