// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/3ddreamcrafts/dreamcrafts/internal/upload"
	"github.com/3ddreamcrafts/dreamcrafts/internal/util"
)

// multipartOverhead covers form fields and part headers around the file.
const multipartOverhead = 1 << 20

// parseForm parses url-encoded and multipart bodies. Calling it again after
// a middleware has parsed the body is harmless.
func parseForm(r *http.Request, maxFile int64) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxFile + multipartOverhead); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return err
		}
		return nil
	}
	return r.ParseForm()
}

// uploadFromForm stores the file in field, if one was sent. It returns a nil
// result when the field is absent or empty.
func (h *Handler) uploadFromForm(r *http.Request, field, subdir string) (*upload.Result, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	if hdr.Filename == "" && hdr.Size == 0 {
		return nil, nil
	}

	res, err := h.uploads.Upload(r.Context(), upload.File{Name: hdr.Filename, Size: hdr.Size, Reader: file}, subdir)
	if err != nil {
		if uploadStatus(err) != http.StatusInternalServerError {
			h.recordUploadRejection(r, hdr.Filename, err)
		}
		return nil, err
	}
	return res, nil
}

var uploadErrors = []error{
	upload.ErrEmptyFile,
	upload.ErrNoExtension,
	upload.ErrExtensionNotAllowed,
	upload.ErrFileTooLarge,
	upload.ErrInvalidFilename,
	upload.ErrMimeMismatch,
	upload.ErrInvalidImage,
	upload.ErrInvalidSubdir,
}

// uploadStatus maps an upload error to an HTTP status.
func uploadStatus(err error) int {
	var tooBig *http.MaxBytesError
	if errors.Is(err, upload.ErrFileTooLarge) || errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge
	}
	for _, known := range uploadErrors {
		if errors.Is(err, known) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// uploadMessage turns an upload error into a message safe to show.
func uploadMessage(err error) string {
	for _, known := range uploadErrors {
		if errors.Is(err, known) {
			msg := known.Error()
			return strings.ToUpper(msg[:1]) + msg[1:] + "."
		}
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return "File is too large."
	}
	return "Upload failed."
}

// Upload handles POST /admin/uploads. It expects a multipart body with a
// "file" part and an optional "dir" field, and answers with JSON.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r, h.uploads.MaxSize()); err != nil {
		if uploadStatus(err) == http.StatusRequestEntityTooLarge {
			writeJSONError(w, http.StatusRequestEntityTooLarge, uploadMessage(err))
			return
		}
		writeJSONError(w, http.StatusBadRequest, "Invalid upload.")
		return
	}
	if r.MultipartForm == nil {
		writeJSONError(w, http.StatusBadRequest, "Expected a multipart upload.")
		return
	}

	dir := r.PostForm.Get("dir")
	if !util.IsSafeSubdir(dir) {
		h.recordUploadRejection(r, dir, upload.ErrInvalidSubdir)
		writeJSONError(w, http.StatusBadRequest, uploadMessage(upload.ErrInvalidSubdir))
		return
	}

	res, err := h.uploadFromForm(r, "file", dir)
	if err == nil && res == nil {
		err = upload.ErrEmptyFile
	}
	if err != nil {
		status := uploadStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("storing upload", "error", err)
		}
		writeJSONError(w, status, uploadMessage(err))
		return
	}
	writeJSONSuccess(w, map[string]any{"file": res})
}
