// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
)

// DisallowedPaths are never offered to crawlers.
var DisallowedPaths = []string{"/admin", "/login", "/logout"}

// Robots returns robots.txt content for siteURL. An empty siteURL omits the
// sitemap reference.
func Robots(siteURL string) string {
	var sb strings.Builder
	sb.WriteString("User-agent: *\n")
	for _, p := range DisallowedPaths {
		sb.WriteString("Disallow: ")
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	sb.WriteString("Allow: /\n")

	if siteURL != "" {
		sb.WriteString("\nSitemap: ")
		sb.WriteString(strings.TrimSuffix(siteURL, "/"))
		sb.WriteString("/sitemap.xml\n")
	}
	return sb.String()
}
