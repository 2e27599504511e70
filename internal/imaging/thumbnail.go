// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging renders preview thumbnails for image documents and
// attachments.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// DefaultThumbnailSize is the bounding box edge of preview thumbnails.
const DefaultThumbnailSize = 320

const jpegQuality = 82

// Thumbnail is an encoded preview image.
type Thumbnail struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// MakeThumbnail decodes data (JPEG, PNG, GIF or WebP), applies the EXIF
// orientation and scales it to fit a size x size box. Images already
// smaller than the box are not enlarged. PNG and GIF sources produce PNG
// output to keep transparency; everything else becomes JPEG.
func MakeThumbnail(data []byte, size int) (Thumbnail, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Thumbnail{}, fmt.Errorf("decoding image: %w", err)
	}

	if format == "jpeg" {
		img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))
	}

	b := img.Bounds()
	if b.Dx() > size || b.Dy() > size {
		img = imaging.Fit(img, size, size, imaging.Lanczos)
	}

	var buf bytes.Buffer
	mime := "image/jpeg"
	switch format {
	case "png", "gif":
		mime = "image/png"
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return Thumbnail{}, fmt.Errorf("encoding thumbnail: %w", err)
	}

	out := img.Bounds()
	return Thumbnail{Data: buf.Bytes(), MIME: mime, Width: out.Dx(), Height: out.Dy()}, nil
}

// IsImage reports whether data looks like an image the standard sniffer knows.
func IsImage(data []byte) bool {
	ct := http.DetectContentType(data)
	return len(ct) > 6 && ct[:6] == "image/"
}

// readExifOrientation returns the EXIF orientation tag, or 1 (normal).
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation undoes the camera rotation recorded in EXIF values 2..8.
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
