// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned when a non-administrator attempts a mutation.
	ErrForbidden = errors.New("administrator role required")

	// ErrNotFound is returned when a document or attachment id is unknown.
	ErrNotFound = errors.New("record not found")

	// ErrIDExhausted is returned when every generated id collided with an
	// existing record.
	ErrIDExhausted = errors.New("could not generate a unique record id")

	// ErrInvalidDraft is wrapped by every ValidationError.
	ErrInvalidDraft = errors.New("invalid draft")
)

// ValidationError describes a rejected submission field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDraft
}
