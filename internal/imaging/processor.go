// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging decodes uploaded images, applies their EXIF orientation,
// downsamples oversized ones and re-encodes them without metadata.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // webp decoder
)

// Format is an image encoding.
type Format string

// Supported formats.
const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	GIF  Format = "gif"
	WebP Format = "webp"
)

// DefaultMaxDimension is the longest side kept without downsampling.
const DefaultMaxDimension = 2048

const jpegQuality = 90

// ErrUnsupportedFormat is returned for data that is not a supported image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// MimeType returns the format's MIME type.
func (f Format) MimeType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	case GIF:
		return "image/gif"
	case WebP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// Output is the format written for f. WebP has no pure Go encoder and is
// stored as JPEG.
func (f Format) Output() Format {
	if f == WebP {
		return JPEG
	}
	return f
}

// Extension returns the file extension (without dot) used for f.
func (f Format) Extension() string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}

// FormatFromExtension maps a lowercase extension without dot to a format.
func FormatFromExtension(ext string) (Format, bool) {
	switch ext {
	case "jpg", "jpeg":
		return JPEG, true
	case "png":
		return PNG, true
	case "gif":
		return GIF, true
	case "webp":
		return WebP, true
	default:
		return "", false
	}
}

// SniffMimeType returns the content-sniffed MIME type of data without
// parameters.
func SniffMimeType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// DetectFormat returns the format of data by its magic bytes. TIFF is
// rejected outright (CVE-2023-36308 in disintegration/imaging).
func DetectFormat(data []byte) (Format, error) {
	switch SniffMimeType(data) {
	case "image/jpeg":
		return JPEG, nil
	case "image/png":
		return PNG, nil
	case "image/gif":
		return GIF, nil
	case "image/webp":
		return WebP, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Result is a processed image.
type Result struct {
	Data    []byte
	Format  Format
	Width   int
	Height  int
	Resized bool
}

// Process decodes data, fixes its orientation, fits it within
// maxDimension x maxDimension and encodes it in format's output format.
func Process(data []byte, format Format, maxDimension int) (*Result, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, readOrientation(bytes.NewReader(data)))

	resized := false
	b := img.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
		resized = true
	}

	out := format.Output()
	var buf bytes.Buffer
	if err := encode(&buf, img, out); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", out, err)
	}

	b = img.Bounds()
	return &Result{
		Data:    buf.Bytes(),
		Format:  out,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Resized: resized,
	}, nil
}

func encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case GIF:
		return gif.Encode(w, img, nil)
	default:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	}
}

// readOrientation returns the EXIF orientation tag, or 1 when absent.
func readOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// applyOrientation undoes EXIF orientations 2-8 so the pixels are upright.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
