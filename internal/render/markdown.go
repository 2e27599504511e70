// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render converts summary text to sanitized HTML for clients that
// display it as rich text.
package render

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

	// htmlSanitizer allows the safe subset of HTML produced for user content.
	htmlSanitizer = bluemonday.UGCPolicy()
)

// Markdown renders source as Markdown and sanitizes the result. Invalid
// input falls back to escaped plain text.
func Markdown(source string) template.HTML {
	if source == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes()))
}
