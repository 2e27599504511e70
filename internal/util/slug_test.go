// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple", input: "Hello World", want: "hello-world"},
		{name: "vietnamese", input: "Biên bản cuộc họp", want: "bien-ban-cuoc-hop"},
		{name: "d with stroke", input: "Đại hội đồng", want: "dai-hoi-dong"},
		{name: "decomposed accents", input: "Cafe\u0301", want: "cafe"},
		{name: "punctuation", input: "Q3 report (final)!", want: "q3-report-final"},
		{name: "collapse hyphens", input: "a -- b", want: "a-b"},
		{name: "trim hyphens", input: "  -x-  ", want: "x"},
		{name: "only symbols", input: "!!!", want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":                 "report.pdf",
		"../../etc/passwd":           "passwd",
		`C:\Users\lan\Desktop\a.doc`: "a.doc",
		"":                           "download",
		"..":                         "download",
		"/":                          "download",
	}
	for in, want := range tests {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestASCIIFileName(t *testing.T) {
	tests := map[string]string{
		"Biên bản họp.PDF":   "bien-ban-hop.pdf",
		"ảnh.jpg":            "anh.jpg",
		"README":             "readme",
		"!!!.txt":            "download.txt",
		"archive.tar.gz":     "archive-tar.gz",
		"../secret/plan.doc": "plan.doc",
	}
	for in, want := range tests {
		if got := ASCIIFileName(in); got != want {
			t.Errorf("ASCIIFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContentDisposition(t *testing.T) {
	got := ContentDisposition("attachment", "Biên bản.pdf")

	if !strings.HasPrefix(got, `attachment; filename="bien-ban.pdf"; filename*=UTF-8''`) {
		t.Errorf("ContentDisposition() = %q", got)
	}
	if strings.ContainsAny(got, "êả") {
		t.Errorf("header must be ASCII: %q", got)
	}
}
