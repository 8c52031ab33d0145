// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the preservation event records stored by the service.
package model

import (
	"time"
)

// Event holds all data for a preservation event, along with its linked objects.
//
// Ordinal is assigned by the database on insert and is strictly increasing in
// insertion order. It exists only to serve as a pagination cursor; the public
// identifier of an event is EventIdentifier.
type Event struct {
	Ordinal                     int64
	EventIdentifier             string
	EventIdentifierType         string
	EventType                   string
	EventDateTime               time.Time
	EventAdded                  time.Time
	EventDetail                 string
	EventOutcome                string
	EventOutcomeDetail          string
	LinkingAgentIdentifierType  string
	LinkingAgentIdentifierValue string
	LinkingAgentRole            string

	// LinkingObjects are the external objects this event is about, in the
	// order their join rows were created.
	LinkingObjects []LinkObject
}

// LinkObjectIdentifiers returns the identifiers of all linked objects.
func (e *Event) LinkObjectIdentifiers() []string {
	ids := make([]string, 0, len(e.LinkingObjects))
	for _, lo := range e.LinkingObjects {
		ids = append(ids, lo.ObjectIdentifier)
	}
	return ids
}

// LinkObject is an external object (e.g. an archival package) that an event
// pertains to. Many events may link to the same object.
type LinkObject struct {
	ObjectIdentifier string
	ObjectType       string
	ObjectRole       string
}

// Sort directions accepted by EventQuery.
const (
	OrderAscending  = "ascending"
	OrderDescending = "descending"
)

// EventQuery is the explicit query specification passed to the storage layer.
// Zero values mean "no constraint".
type EventQuery struct {
	StartDate      time.Time
	EndDate        time.Time
	Outcome        string
	EventType      string
	LinkedObjectID string

	// OrderBy names an event column for the unfiltered listing. Empty means
	// ordinal order.
	OrderBy  string
	OrderDir string

	// MinOrdinal, when positive, restricts the window to ordinal <= MinOrdinal.
	MinOrdinal int64

	Page    int
	PerPage int
}

// IsFiltered reports whether any record-narrowing constraint is set.
// Ordering and paging parameters do not count as filters.
func (q EventQuery) IsFiltered() bool {
	return !q.StartDate.IsZero() || !q.EndDate.IsZero() ||
		q.Outcome != "" || q.EventType != "" || q.LinkedObjectID != ""
}
