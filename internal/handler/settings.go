// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"slices"
	"strings"

	"github.com/3ddreamcrafts/dreamcrafts/internal/content"
	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
	"github.com/3ddreamcrafts/dreamcrafts/internal/settings"
)

// SettingField is one row of the settings form.
type SettingField struct {
	Key    string
	Label  string
	Input  string
	Value  string
	Custom bool
}

// SettingsData is the settings form model.
type SettingsData struct {
	Fields   []SettingField
	NewKey   string
	NewValue string
}

// SettingsForm handles GET /admin/settings.
func (h *Handler) SettingsForm(w http.ResponseWriter, r *http.Request) {
	all, err := h.settings.All(r.Context())
	if err != nil {
		h.serverError(w, r, err, "loading settings")
		return
	}
	values := make(map[string]string, len(all))
	for k, v := range all {
		values[k] = model.UnescapeText(v)
	}
	h.renderSettings(w, r, http.StatusOK, SettingsData{Fields: settingFields(values)}, nil)
}

// SaveSettings handles POST /admin/settings. Every known key present in the
// form is saved; new_key/new_value adds a custom setting.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashRedirect(w, r, "/admin/settings", "Invalid form data.")
		return
	}
	all, err := h.settings.All(r.Context())
	if err != nil {
		h.serverError(w, r, err, "loading settings")
		return
	}

	values := make(map[string]string)
	for key := range all {
		if r.PostForm.Has(key) {
			values[key] = r.PostForm.Get(key)
		}
	}
	for _, key := range settings.Keys() {
		if r.PostForm.Has(key) {
			values[key] = r.PostForm.Get(key)
		}
	}
	newKey := strings.TrimSpace(r.PostForm.Get("new_key"))
	newValue := r.PostForm.Get("new_value")
	if newKey != "" {
		values[newKey] = newValue
	}

	if err := h.settings.Update(r.Context(), values); err != nil {
		verrs, ok := content.AsValidation(err)
		if !ok {
			h.serverError(w, r, err, "saving settings")
			return
		}
		shown := make(map[string]string, len(all))
		for k, v := range all {
			shown[k] = model.UnescapeText(v)
		}
		for k, v := range values {
			if k != newKey {
				shown[k] = v
			}
		}
		errs := verrs.Fields()
		if msg, ok := errs[newKey]; ok && newKey != "" {
			delete(errs, newKey)
			errs["new_key"] = msg
		}
		h.renderSettings(w, r, http.StatusUnprocessableEntity, SettingsData{
			Fields:   settingFields(shown),
			NewKey:   newKey,
			NewValue: newValue,
		}, errs)
		return
	}

	h.logger.Info("settings updated", "keys", len(values), "user", h.auth.Username(r.Context()))
	h.flashRedirect(w, r, "/admin/settings", "Settings saved.")
}

func (h *Handler) renderSettings(w http.ResponseWriter, r *http.Request, status int, data SettingsData, errs map[string]string) {
	td := h.page(r, "Settings", data)
	td.Errors = errs
	h.render(w, r, status, "admin/settings", td)
}

// settingFields lists known settings in form order followed by custom ones
// alphabetically.
func settingFields(values map[string]string) []SettingField {
	known := settings.Keys()
	fields := make([]SettingField, 0, len(values))
	for _, key := range known {
		fields = append(fields, SettingField{
			Key:   key,
			Label: settings.Label(key),
			Input: settings.InputType(key),
			Value: values[key],
		})
	}

	var custom []string
	for key := range values {
		if !slices.Contains(known, key) {
			custom = append(custom, key)
		}
	}
	slices.Sort(custom)
	for _, key := range custom {
		fields = append(fields, SettingField{Key: key, Label: key, Input: "text", Value: values[key], Custom: true})
	}
	return fields
}
