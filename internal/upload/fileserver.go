// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package upload

import (
	"net/http"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/3ddreamcrafts/dreamcrafts/internal/util"
)

// FileServer serves image files below root. Anything that is not a regular
// file with an allowed image extension is a 404, and directories are never
// listed. Mount it with http.StripPrefix.
func FileServer(root string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if !slices.Contains(AllowedExtensions, extension(rel)) {
			http.NotFound(w, r)
			return
		}
		full, err := util.SafeJoin(root, rel)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		f, err := os.Open(full)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer func() { _ = f.Close() }()

		st, err := f.Stat()
		if err != nil || !st.Mode().IsRegular() {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeContent(w, r, st.Name(), st.ModTime(), f)
	})
}
