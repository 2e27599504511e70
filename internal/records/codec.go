// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package records

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SchemaVersion is written into every envelope. Blobs without an envelope
// (a bare JSON array, as written by the browser app) are version 0.
const SchemaVersion = 1

type envelope[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

func encodeItems[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(envelope[T]{Version: SchemaVersion, Items: items})
}

func decodeItems[T any](raw []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return nonNil(items), nil

	case '{':
		var env envelope[T]
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		if env.Version < 1 || env.Version > SchemaVersion {
			return nil, fmt.Errorf("unsupported schema version %d", env.Version)
		}
		return nonNil(env.Items), nil

	default:
		return nil, fmt.Errorf("unexpected leading byte %q", trimmed[0])
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
