// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package filedata converts uploaded files to and from the self-describing
// text form stored on documents and attachments (RFC 2397 data URLs).
package filedata

import (
	"encoding/base64"
	"errors"
	"strings"
)

// Kind classifies encoded content for the preview affordance.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindDownload Kind = "download"
)

// DefaultMIME is used when nothing better is known about a file.
const DefaultMIME = "application/octet-stream"

// ErrNotDataURL is returned by Decode for strings without the data: scheme
// or without a base64 payload separator.
var ErrNotDataURL = errors.New("filedata: not a data URL")

// Encode returns data as a base64 data URL carrying the given MIME type.
func Encode(mime string, data []byte) string {
	if mime == "" {
		mime = DefaultMIME
	}
	var sb strings.Builder
	sb.Grow(len("data:;base64,") + len(mime) + base64.StdEncoding.EncodedLen(len(data)))
	sb.WriteString("data:")
	sb.WriteString(mime)
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String()
}

// Decode parses a data URL produced by Encode (or by a browser's
// FileReader.readAsDataURL) and returns its MIME type and raw bytes.
// Only base64 payloads are accepted.
func Decode(s string) (string, []byte, error) {
	header, payload, ok := splitDataURL(s)
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mime, isBase64 := parseHeader(header)
	if !isBase64 {
		return "", nil, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Join(ErrNotDataURL, err)
	}
	return mime, data, nil
}

// MIMEOf returns the MIME type declared by an encoded value, or "" when the
// value is not a data URL.
func MIMEOf(s string) string {
	header, _, ok := splitDataURL(s)
	if !ok {
		return ""
	}
	mime, _ := parseHeader(header)
	return mime
}

// KindOf classifies an encoded value: images and PDFs can be previewed,
// everything else is download-only.
func KindOf(s string) Kind {
	mime := MIMEOf(s)
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case mime == "application/pdf":
		return KindDocument
	default:
		return KindDownload
	}
}

func splitDataURL(s string) (header, payload string, ok bool) {
	rest, found := strings.CutPrefix(s, "data:")
	if !found {
		return "", "", false
	}
	return strings.Cut(rest, ",")
}

// parseHeader splits "image/png;base64" into the MIME type and the base64 flag.
// Parameters such as charset are dropped.
func parseHeader(header string) (string, bool) {
	parts := strings.Split(header, ";")
	mime := strings.ToLower(strings.TrimSpace(parts[0]))
	isBase64 := false
	for _, p := range parts[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if mime == "" {
		mime = "text/plain"
	}
	return mime, isBase64
}
