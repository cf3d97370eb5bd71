// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package upload stores admin image uploads below a root directory after
// validating, sanitizing and re-encoding them.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/3ddreamcrafts/dreamcrafts/internal/imaging"
	"github.com/3ddreamcrafts/dreamcrafts/internal/util"
)

// Defaults.
const (
	DefaultMaxSize   int64 = 5 << 20
	DefaultURLPrefix       = "/uploads"
	maxNameAttempts        = 100
	maxStemLength          = 80
)

// Errors returned by Upload, FileInfo and Delete.
var (
	ErrEmptyFile           = errors.New("no file uploaded")
	ErrNoExtension         = errors.New("file has no extension")
	ErrExtensionNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge        = errors.New("file is too large")
	ErrInvalidFilename     = errors.New("invalid filename")
	ErrMimeMismatch        = errors.New("file content does not match its extension")
	ErrInvalidImage        = errors.New("file is not a valid image")
	ErrInvalidSubdir       = errors.New("invalid upload directory")
	ErrOutsideRoot         = errors.New("path is outside the upload directory")
)

// AllowedExtensions lists accepted extensions in lowercase without dot.
var AllowedExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}

// File is an incoming upload. Size is the declared size; a negative value
// means unknown.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Result describes a stored upload. Path is relative to the root and
// slash-separated.
type Result struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Resized  bool   `json:"resized"`
}

// Info describes a stored file.
type Info struct {
	Path    string
	URL     string
	Size    int64
	ModTime time.Time
}

// Options configures a Handler.
type Options struct {
	Root         string
	URLPrefix    string
	MaxSize      int64
	MaxDimension int
}

// Handler validates and stores uploads.
type Handler struct {
	root         string
	urlPrefix    string
	maxSize      int64
	maxDimension int
	logger       *slog.Logger
}

// New creates a Handler and its root directory.
func New(opts Options, logger *slog.Logger) (*Handler, error) {
	if opts.Root == "" {
		return nil, errors.New("upload root is required")
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = imaging.DefaultMaxDimension
	}
	if opts.URLPrefix == "" {
		opts.URLPrefix = DefaultURLPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving upload root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload root: %w", err)
	}

	return &Handler{
		root:         root,
		urlPrefix:    strings.TrimRight(opts.URLPrefix, "/"),
		maxSize:      opts.MaxSize,
		maxDimension: opts.MaxDimension,
		logger:       logger,
	}, nil
}

// Root returns the absolute upload directory.
func (h *Handler) Root() string { return h.root }

// MaxSize returns the byte limit per file.
func (h *Handler) MaxSize() int64 { return h.maxSize }

// URL returns the public URL of a stored relative path.
func (h *Handler) URL(rel string) string {
	return h.urlPrefix + "/" + strings.TrimLeft(rel, "/")
}

// Upload validates f, re-encodes the image and stores it below subdir.
func (h *Handler) Upload(ctx context.Context, f File, subdir string) (*Result, error) {
	if f.Reader == nil || f.Size == 0 {
		return nil, ErrEmptyFile
	}

	ext := extension(f.Name)
	if ext == "" {
		return nil, ErrNoExtension
	}
	format, ok := imaging.FormatFromExtension(ext)
	if !ok {
		return nil, fmt.Errorf("%w: .%s", ErrExtensionNotAllowed, ext)
	}
	if f.Size > h.maxSize {
		return nil, ErrFileTooLarge
	}
	if strings.ContainsRune(f.Name, 0) {
		return nil, ErrInvalidFilename
	}
	if !util.IsSafeSubdir(subdir) {
		return nil, ErrInvalidSubdir
	}

	data, err := io.ReadAll(io.LimitReader(f.Reader, h.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > h.maxSize {
		return nil, ErrFileTooLarge
	}

	sniffed, err := imaging.DetectFormat(data)
	if err != nil || sniffed != format {
		return nil, fmt.Errorf("%w: got %s", ErrMimeMismatch, imaging.SniffMimeType(data))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Process(data, format, h.maxDimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	stem, err := sanitizeStem(f.Name)
	if err != nil {
		return nil, err
	}
	rel, err := h.write(subdir, stem, img.Format.Extension(), img.Data)
	if err != nil {
		return nil, err
	}

	h.logger.Info("image uploaded", "path", rel, "size", len(img.Data), "resized", img.Resized)
	return &Result{
		Filename: path.Base(rel),
		Path:     rel,
		URL:      h.URL(rel),
		Width:    img.Width,
		Height:   img.Height,
		Size:     int64(len(img.Data)),
		MimeType: img.Format.MimeType(),
		Resized:  img.Resized,
	}, nil
}

// write stores data under a collision-free name and returns its relative
// path.
func (h *Handler) write(subdir, stem, ext string, data []byte) (string, error) {
	dir, err := util.SafeJoin(h.root, subdir)
	if err != nil {
		return "", ErrInvalidSubdir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	candidates := make([]string, 0, maxNameAttempts+1)
	candidates = append(candidates, stem+"."+ext)
	for i := 1; i < maxNameAttempts; i++ {
		candidates = append(candidates, stem+"-"+strconv.Itoa(i)+"."+ext)
	}
	candidates = append(candidates, stem+"-"+uuid.NewString()+"."+ext)

	for _, name := range candidates {
		full := filepath.Join(dir, name)
		file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", name, err)
		}
		if _, err := file.Write(data); err != nil {
			_ = file.Close()
			_ = os.Remove(full)
			return "", fmt.Errorf("writing %s: %w", name, err)
		}
		if err := file.Close(); err != nil {
			_ = os.Remove(full)
			return "", fmt.Errorf("closing %s: %w", name, err)
		}
		return path.Join(subdir, name), nil
	}
	return "", fmt.Errorf("no free filename for %s.%s", stem, ext)
}

// FileInfo describes a stored file by its relative path.
func (h *Handler) FileInfo(rel string) (*Info, error) {
	full, err := h.resolve(rel)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s: %w", rel, fs.ErrNotExist)
	}
	clean := filepath.ToSlash(strings.TrimPrefix(full, h.root+string(filepath.Separator)))
	return &Info{Path: clean, URL: h.URL(clean), Size: st.Size(), ModTime: st.ModTime()}, nil
}

// Delete removes a stored file by its relative path.
func (h *Handler) Delete(rel string) error {
	full, err := h.resolve(rel)
	if err != nil {
		return err
	}
	st, err := os.Lstat(full)
	if err != nil {
		return err
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory", rel)
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("deleting %s: %w", rel, err)
	}
	h.logger.Info("upload deleted", "path", rel)
	return nil
}

func (h *Handler) resolve(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, h.urlPrefix+"/")
	full, err := util.SafeJoin(h.root, rel)
	if err != nil {
		return "", ErrOutsideRoot
	}
	if full == h.root {
		return "", ErrOutsideRoot
	}
	return full, nil
}

// extension returns the lowercase extension of name without the dot.
func extension(name string) string {
	base := name
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	ext := path.Ext(base)
	if ext == "" || ext == base {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// sanitizeStem returns a safe lowercase base name without extension.
// Inner dots become hyphens, so "a.php.jpg" yields "a-php".
func sanitizeStem(name string) (string, error) {
	base, err := util.SanitizeFilename(name)
	if err != nil {
		return "", ErrInvalidFilename
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	stem = util.Slugify(stem)
	if len(stem) > maxStemLength {
		stem = strings.Trim(stem[:maxStemLength], "-_")
	}
	if stem == "" {
		stem = "image"
	}
	return stem, nil
}
