// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no record matches the given identifier.
var ErrNotFound = errors.New("record not found")

// DuplicateError is returned when an insert collides with an existing record's
// unique identifier. The storage layer's uniqueness constraint is the final
// arbiter for concurrent creates; this error surfaces it to callers.
type DuplicateError struct {
	Kind       string // "event" or "agent"
	Identifier string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s with identifier %q", e.Kind, e.Identifier)
}

// IsDuplicate reports whether err is a DuplicateError.
func IsDuplicate(err error) bool {
	var dup *DuplicateError
	return errors.As(err, &dup)
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
