// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"html"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidateHexColor normalizes a hex color to lowercase "#rrggbb". The leading
// '#' is optional and three digit shorthand is expanded. ok is false for
// anything else.
func ValidateHexColor(s string) (color string, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 3 && len(s) != 6 {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return "", false
		}
	}
	s = strings.ToLower(s)
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	return "#" + s, true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// ValidateDate checks a calendar date in YYYY-MM-DD form.
func ValidateDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	time.DateOnly,
}

// ValidateDateTime parses a date with optional time of day. Values without a
// zone are taken as UTC.
func ValidateDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ValidateText trims s, checks it is at most maxLen characters and returns
// it HTML-escaped for storage. ok is false when the trimmed input is too long.
func ValidateText(s string, maxLen int) (escaped string, ok bool) {
	s = strings.TrimSpace(s)
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		return "", false
	}
	return html.EscapeString(s), true
}

// UnescapeText reverses the store-time escaping for form redisplay.
func UnescapeText(s string) string {
	return html.UnescapeString(s)
}

// ValidateURL accepts an empty string or an absolute http(s) URL.
func ValidateURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// ValidateEmail accepts an empty string or a bare address.
func ValidateEmail(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", false
	}
	return addr.Address, true
}

// ValidateUploadPath accepts an empty string or a relative, forward-slash
// path with no traversal segments, as produced by the upload handler.
func ValidateUploadPath(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if strings.HasPrefix(s, "/") || strings.Contains(s, "\\") || strings.ContainsRune(s, 0) {
		return "", false
	}
	for _, seg := range strings.Split(s, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", false
		}
	}
	return s, true
}
