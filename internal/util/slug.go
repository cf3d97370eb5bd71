// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util holds filename and path helpers shared by the upload
// pipeline and the file server.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars    = regexp.MustCompile(`[^a-z0-9_]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	segmentPattern  = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// Slugify reduces s to lowercase ASCII letters, digits, '_' and single
// hyphens. Accents are stripped and other scripts transliterated, so
// "Über München" becomes "uber-munchen".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	result := strings.ToLower(unidecode.Unidecode(stripped))
	result = nonSlugChars.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-_")
}

// IsSafeSegment reports whether s is a non-empty path segment made of
// lowercase letters, digits, '_' and '-'.
func IsSafeSegment(s string) bool {
	return segmentPattern.MatchString(s)
}

// IsSafeSubdir reports whether dir is empty or a '/'-separated list of safe
// segments.
func IsSafeSubdir(dir string) bool {
	if dir == "" {
		return true
	}
	for _, seg := range strings.Split(dir, "/") {
		if !IsSafeSegment(seg) {
			return false
		}
	}
	return true
}
