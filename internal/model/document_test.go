// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSortDocuments_StableByOrder(t *testing.T) {
	docs := []MeetingDocument{
		{ID: "c", Order: 3},
		{ID: "a1", Order: 1},
		{ID: "b", Order: 2},
		{ID: "a2", Order: 1},
		{ID: "a3", Order: 1},
	}

	sorted := SortDocuments(docs)

	want := []string{"a1", "a2", "a3", "b", "c"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("sorted[%d] = %q, want %q (full: %v)", i, sorted[i].ID, id, sorted)
		}
	}

	// Input is left untouched.
	if docs[0].ID != "c" {
		t.Errorf("SortDocuments mutated its input: %v", docs)
	}
}

func TestSortDocuments_Empty(t *testing.T) {
	if got := SortDocuments(nil); len(got) != 0 {
		t.Errorf("SortDocuments(nil) = %v, want empty", got)
	}
}

func TestFindDocument(t *testing.T) {
	docs := []MeetingDocument{{ID: "x"}, {ID: "y"}}
	if got := FindDocument(docs, "y"); got != 1 {
		t.Errorf("FindDocument(y) = %d, want 1", got)
	}
	if got := FindDocument(docs, "z"); got != -1 {
		t.Errorf("FindDocument(z) = %d, want -1", got)
	}
}

func TestMeetingDocument_DecodesBrowserBlob(t *testing.T) {
	raw := `[{"id":"1718000000000","order":2,"content":"Báo cáo quý","presenter":"Lan",
		"fileName":"a.pdf","fileData":"data:application/pdf;base64,JVBERg==",
		"createdAt":"2024-06-10T08:00:00.000Z"}]`

	var docs []MeetingDocument
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("len = %d, want 1", len(docs))
	}
	d := docs[0]
	if d.Order != 2 || d.Presenter != "Lan" || !d.HasFile() || d.AISummary != "" {
		t.Errorf("decoded = %+v", d)
	}
	if !d.CreatedAt.Equal(time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", d.CreatedAt)
	}
}
