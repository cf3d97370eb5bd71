// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned for paths that escape their base directory.
var ErrPathTraversal = errors.New("path escapes base directory")

// SanitizeFilename returns only the base name of filename, treating both
// '/' and '\' as separators.
func SanitizeFilename(filename string) (string, error) {
	safe := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if safe == "." || safe == ".." || safe == "/" || safe == "" {
		return "", fmt.Errorf("invalid filename: %q", filename)
	}
	return safe, nil
}

// WithinBase reports ErrPathTraversal unless target is base or lies below
// it. Both are cleaned and made absolute; existing paths have their
// symlinks resolved first.
func WithinBase(base, target string) error {
	absBase, err := resolve(base)
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}
	absTarget, err := resolve(target)
	if err != nil {
		return fmt.Errorf("invalid target path: %w", err)
	}

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return ErrPathTraversal
	}
	return nil
}

// SafeJoin joins a slash-separated relative path onto base and verifies the
// result stays within base.
func SafeJoin(base, rel string) (string, error) {
	if strings.ContainsRune(rel, 0) || strings.Contains(rel, `\`) ||
		path.IsAbs(rel) || filepath.IsAbs(rel) || ContainsPathTraversal(rel) {
		return "", ErrPathTraversal
	}
	full := filepath.Join(base, filepath.FromSlash(path.Clean("/"+rel)))
	if err := WithinBase(base, full); err != nil {
		return "", err
	}
	return full, nil
}

// ContainsPathTraversal reports whether a slash-separated path has a ".."
// segment.
func ContainsPathTraversal(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// resolve makes p absolute and evaluates symlinks along the longest
// existing prefix, so paths that do not exist yet can still be checked.
func resolve(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", err
	}

	existing, rest := abs, ""
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
}
