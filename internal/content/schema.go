// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
)

type fieldType int

const (
	fieldText fieldType = iota
	fieldDate
	fieldDateTime
	fieldFlag
	fieldPath
)

// field is one writable column of a content kind. Column names here are the
// only identifiers ever placed into SQL text.
type field struct {
	column   string
	label    string
	typ      fieldType
	required bool
	maxLen   int
	// flagDefault is used on create when a flag is not supplied.
	flagDefault bool
}

// Field length limits.
const (
	MaxTitleLen       = 255
	MaxLocationLen    = 255
	MaxDescriptionLen = 5000
	MaxImagePathLen   = 500
	MaxContentLen     = 50000
)

var schemas = map[model.Kind][]field{
	model.FeaturedPrints: {
		{column: "title", label: "Title", typ: fieldText, required: true, maxLen: MaxTitleLen},
		{column: "description", label: "Description", typ: fieldText, maxLen: MaxDescriptionLen},
		{column: "image_path", label: "Image path", typ: fieldPath, maxLen: MaxImagePathLen},
		{column: "is_active", label: "Active", typ: fieldFlag, flagDefault: true},
	},
	model.CraftShows: {
		{column: "title", label: "Title", typ: fieldText, required: true, maxLen: MaxTitleLen},
		{column: "event_date", label: "Event date", typ: fieldDate, required: true},
		{column: "location", label: "Location", typ: fieldText, required: true, maxLen: MaxLocationLen},
		{column: "description", label: "Description", typ: fieldText, maxLen: MaxDescriptionLen},
		{column: "is_active", label: "Active", typ: fieldFlag, flagDefault: true},
	},
	model.NewsArticles: {
		{column: "title", label: "Title", typ: fieldText, required: true, maxLen: MaxTitleLen},
		{column: "content", label: "Content", typ: fieldText, required: true, maxLen: MaxContentLen},
		{column: "published_date", label: "Published date", typ: fieldDateTime},
		{column: "is_published", label: "Published", typ: fieldFlag, flagDefault: false},
	},
}

func schemaFor(kind model.Kind) ([]field, error) {
	fields, ok := schemas[kind]
	if !ok {
		return nil, model.ErrInvalidKind
	}
	return fields, nil
}

func lookupField(kind model.Kind, column string) (field, bool) {
	for _, f := range schemas[kind] {
		if f.column == column {
			return f, true
		}
	}
	return field{}, false
}

// Columns returns the writable columns of kind in form order.
func Columns(kind model.Kind) []string {
	fields := schemas[kind]
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return cols
}

type column struct {
	name  string
	value any
}

// validate checks values against the kind's schema. On create every required
// field must be present and missing flags and dates get their defaults; on
// update only the supplied fields are checked. The returned columns follow
// schema order.
func validate(kind model.Kind, values map[string]any, create bool, now time.Time) ([]column, error) {
	fields, err := schemaFor(kind)
	if err != nil {
		return nil, err
	}

	var errs ValidationErrors
	unknown := make([]string, 0)
	for key := range values {
		if _, ok := lookupField(kind, key); !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs.add(key, fmt.Sprintf("Unknown field %q", key))
	}

	var cols []column
	for _, f := range fields {
		raw, present := values[f.column]
		if !present {
			if !create {
				continue
			}
			switch {
			case f.required:
				errs.add(f.column, f.label+" is required")
			case f.typ == fieldFlag:
				cols = append(cols, column{f.column, boolInt(f.flagDefault)})
			case f.typ == fieldDateTime:
				cols = append(cols, column{f.column, now})
			case f.typ == fieldText || f.typ == fieldPath:
				cols = append(cols, column{f.column, ""})
			}
			continue
		}

		v, msg := normalize(f, raw, now)
		if msg != "" {
			errs.add(f.column, msg)
			continue
		}
		cols = append(cols, column{f.column, v})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return cols, nil
}

// normalize converts one supplied value. It returns a user-facing message
// when the value is rejected.
func normalize(f field, raw any, now time.Time) (any, string) {
	switch f.typ {
	case fieldFlag:
		b, ok := asBool(raw)
		if !ok {
			return nil, f.label + " must be a yes/no value"
		}
		return boolInt(b), ""

	case fieldDateTime:
		if t, ok := raw.(time.Time); ok {
			return t.UTC(), ""
		}
		s, ok := raw.(string)
		if !ok {
			return nil, "Invalid date format"
		}
		if strings.TrimSpace(s) == "" {
			if f.required {
				return nil, f.label + " is required"
			}
			// Clearing the publish date on edit republishes "now".
			return now, ""
		}
		t, ok := model.ValidateDateTime(s)
		if !ok {
			return nil, "Invalid date format"
		}
		return t, ""
	}

	s, ok := raw.(string)
	if !ok {
		return nil, f.label + " must be text"
	}
	if strings.TrimSpace(s) == "" {
		if f.required {
			return nil, f.label + " is required"
		}
		return "", ""
	}

	switch f.typ {
	case fieldDate:
		d, ok := model.ValidateDate(s)
		if !ok {
			return nil, "Invalid date format"
		}
		return d, ""
	case fieldPath:
		if len([]rune(strings.TrimSpace(s))) > f.maxLen {
			return nil, fmt.Sprintf("%s must be at most %d characters", f.label, f.maxLen)
		}
		p, ok := model.ValidateUploadPath(s)
		if !ok {
			return nil, f.label + " is not a valid upload path"
		}
		return p, ""
	default:
		text, ok := model.ValidateText(s, f.maxLen)
		if !ok {
			return nil, fmt.Sprintf("%s must be at most %d characters", f.label, f.maxLen)
		}
		return text, ""
	}
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case int:
		return b != 0, b == 0 || b == 1
	case int64:
		return b != 0, b == 0 || b == 1
	case string:
		return parseFlag(b)
	}
	return false, false
}

func parseFlag(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true, true
	case "0", "false", "off", "no", "":
		return false, true
	}
	return false, false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FormField describes one writable column for form rendering.
type FormField struct {
	Column   string
	Label    string
	Input    string // text, textarea, date, datetime-local, checkbox or image
	Required bool
	MaxLen   int
}

// FormFields returns the form layout of kind, or nil for unknown kinds.
func FormFields(kind model.Kind) []FormField {
	fields := schemas[kind]
	out := make([]FormField, 0, len(fields))
	for _, f := range fields {
		ff := FormField{Column: f.column, Label: f.label, Required: f.required, MaxLen: f.maxLen}
		switch f.typ {
		case fieldDate:
			ff.Input = "date"
		case fieldDateTime:
			ff.Input = "datetime-local"
		case fieldFlag:
			ff.Input = "checkbox"
		case fieldPath:
			ff.Input = "image"
		default:
			ff.Input = "text"
			if f.maxLen > MaxTitleLen {
				ff.Input = "textarea"
			}
		}
		out = append(out, ff)
	}
	return out
}
