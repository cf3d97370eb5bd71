// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"bytes"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
)

var (
	md           = goldmark.New(goldmark.WithExtensions(extension.GFM))
	// ugcPolicy is safe for concurrent use once built.
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Funcs returns the template function map.
func Funcs() template.FuncMap {
	return template.FuncMap{
		// Stored text is HTML-escaped; templates unescape it and let
		// html/template escape it again for the output context.
		"text":           model.UnescapeText,
		"markdown":       Markdown,
		"excerpt":        Excerpt,
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"formatEventDate": func(s string) string {
			t, err := time.Parse(time.DateOnly, s)
			if err != nil {
				return s
			}
			return t.Format("Monday, January 2, 2006")
		},
		"datetimeLocal": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2006-01-02T15:04")
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},
	}
}

// Markdown converts stored (escaped) markdown to sanitized HTML.
func Markdown(stored string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(model.UnescapeText(stored)), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(model.UnescapeText(stored)))
	}
	return template.HTML(ugcPolicy.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized by bluemonday
}

// Excerpt returns the first n characters of the plain text of stored
// markdown.
func Excerpt(stored string, n int) string {
	plain := strictPolicy.Sanitize(string(Markdown(stored)))
	plain = strings.TrimSpace(model.UnescapeText(plain))
	if utf8.RuneCountInString(plain) <= n {
		return plain
	}
	runes := []rune(plain)
	return string(runes[:n]) + "..."
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}
