// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// fallbackName is used when nothing printable is left of a file name.
const fallbackName = "download"

// BaseName strips any directory part a client sent with a file name,
// accepting both slash styles. It never returns an empty string.
func BaseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == ".." || base == "" {
		return fallbackName
	}
	return base
}

// ASCIIFileName transliterates name to an ASCII file name that keeps the
// extension: "Biên bản họp.PDF" becomes "bien-ban-hop.pdf".
func ASCIIFileName(name string) string {
	base := BaseName(name)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	slug := Slugify(stem)
	if slug == "" {
		slug = fallbackName
	}
	if extSlug := Slugify(strings.TrimPrefix(ext, ".")); extSlug != "" {
		return slug + "." + extSlug
	}
	return slug
}

// ContentDisposition builds a Content-Disposition header value with an
// ASCII filename and the original UTF-8 name in filename* (RFC 6266).
func ContentDisposition(disposition, name string) string {
	base := BaseName(name)
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`,
		disposition, ASCIIFileName(base), url.PathEscape(base))
}
