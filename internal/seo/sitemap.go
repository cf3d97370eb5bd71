// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds robots.txt and sitemap.xml for the public site.
package seo

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the site.
const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// Article is a published news article listed in the sitemap.
type Article struct {
	ID        int64
	UpdatedAt time.Time
}

// SitemapBuilder collects the public URLs of the site.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a builder for absolute URLs below siteURL.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{siteURL: strings.TrimSuffix(siteURL, "/")}
}

// AddStaticPages adds the homepage and the section pages.
func (b *SitemapBuilder) AddStaticPages() {
	b.urls = append(b.urls,
		SitemapURL{Loc: b.siteURL + "/", ChangeFreq: ChangeFreqDaily, Priority: "1.0"},
		SitemapURL{Loc: b.siteURL + "/shows", ChangeFreq: ChangeFreqWeekly, Priority: "0.8"},
		SitemapURL{Loc: b.siteURL + "/news", ChangeFreq: ChangeFreqDaily, Priority: "0.8"},
	)
}

// AddArticle adds one news article.
func (b *SitemapBuilder) AddArticle(a Article) {
	u := SitemapURL{
		Loc:        b.siteURL + "/news/" + strconv.FormatInt(a.ID, 10),
		ChangeFreq: ChangeFreqMonthly,
		Priority:   "0.6",
	}
	if !a.UpdatedAt.IsZero() {
		u.LastMod = a.UpdatedAt.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, u)
}

// Len returns the number of collected URLs.
func (b *SitemapBuilder) Len() int { return len(b.urls) }

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	out := []byte(xml.Header)
	body, err := xml.MarshalIndent(Sitemap{XMLNS: XMLNamespace, URLs: b.urls}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, body...), nil
}
