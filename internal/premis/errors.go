// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package premis

import (
	"errors"
	"fmt"
)

// ErrNoIdentifier is returned when neither the Atom envelope nor the embedded
// PREMIS element carries a resolvable identifier.
var ErrNoIdentifier = errors.New("no identifier found in document")

// MissingFieldError is returned when a required nested element cannot be
// located in an inbound document. It names the logical field that failed so
// callers can distinguish, say, a missing agent identifier from a missing
// agent name.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("unable to set %q: element not found", e.Field)
}

// IsMissingField reports whether err is a MissingFieldError.
func IsMissingField(err error) bool {
	var mf *MissingFieldError
	return errors.As(err, &mf)
}

// DateError is returned when an event date cannot be parsed.
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("unable to parse %q into a datetime", e.Value)
}
