// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package premis maps event and agent records to and from PREMIS v2 XML.
//
// The mapping is driven by an ordered field-to-path table: each logical field
// names the chain of nested element local names that holds its value. The
// table is walked in declared order on output so elements appear in the
// schema's sequence order, and consulted entry by entry on input with
// namespace-agnostic (local name) lookup to tolerate producer prefix
// variance.
package premis

import (
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/codalib/premisd/internal/model"
)

// Namespace is the PREMIS v2 XML namespace.
const Namespace = "info:lc/xmlns/premis-v2"

// Event date formats. Output always carries an explicit offset; input
// additionally accepts the two legacy offsetless forms, with any fractional
// seconds dropped.
const (
	dateFormat    = "2006-01-02 15:04:05"
	altDateFormat = "2006-01-02T15:04:05"
)

// fieldMapping pairs a logical field with its element path and accessors.
type fieldMapping struct {
	field string
	path  []string
	get   func(*model.Event) string
	set   func(*model.Event, string) error
}

// eventFieldTable is the ordered field-to-path table for events. Order
// matters: it is the PREMIS event element sequence order.
var eventFieldTable = []fieldMapping{
	{
		field: "event_identifier_type",
		path:  []string{"eventIdentifier", "eventIdentifierType"},
		get:   func(e *model.Event) string { return e.EventIdentifierType },
		set:   func(e *model.Event, v string) error { e.EventIdentifierType = v; return nil },
	},
	{
		field: "event_identifier",
		path:  []string{"eventIdentifier", "eventIdentifierValue"},
		get:   func(e *model.Event) string { return e.EventIdentifier },
		set:   func(e *model.Event, v string) error { e.EventIdentifier = v; return nil },
	},
	{
		field: "event_type",
		path:  []string{"eventType"},
		get:   func(e *model.Event) string { return e.EventType },
		set:   func(e *model.Event, v string) error { e.EventType = v; return nil },
	},
	{
		field: "event_date_time",
		path:  []string{"eventDateTime"},
		get: func(e *model.Event) string {
			if e.EventDateTime.IsZero() {
				return ""
			}
			return e.EventDateTime.UTC().Format(time.RFC3339)
		},
		set: func(e *model.Event, v string) error {
			t, err := ParseEventTime(v)
			if err != nil {
				return err
			}
			e.EventDateTime = t
			return nil
		},
	},
	{
		field: "event_detail",
		path:  []string{"eventDetail"},
		get:   func(e *model.Event) string { return e.EventDetail },
		set:   func(e *model.Event, v string) error { e.EventDetail = v; return nil },
	},
	{
		field: "event_outcome",
		path:  []string{"eventOutcomeInformation", "eventOutcome"},
		get:   func(e *model.Event) string { return e.EventOutcome },
		set:   func(e *model.Event, v string) error { e.EventOutcome = v; return nil },
	},
	{
		field: "event_outcome_detail",
		path:  []string{"eventOutcomeInformation", "eventOutcomeDetail", "eventOutcomeDetailNote"},
		get:   func(e *model.Event) string { return e.EventOutcomeDetail },
		set:   func(e *model.Event, v string) error { e.EventOutcomeDetail = v; return nil },
	},
	{
		field: "linking_agent_identifier_type",
		path:  []string{"linkingAgentIdentifier", "linkingAgentIdentifierType"},
		get:   func(e *model.Event) string { return e.LinkingAgentIdentifierType },
		set:   func(e *model.Event, v string) error { e.LinkingAgentIdentifierType = v; return nil },
	},
	{
		field: "linking_agent_identifier_value",
		path:  []string{"linkingAgentIdentifier", "linkingAgentIdentifierValue"},
		get:   func(e *model.Event) string { return e.LinkingAgentIdentifierValue },
		set:   func(e *model.Event, v string) error { e.LinkingAgentIdentifierValue = v; return nil },
	},
	{
		field: "linking_agent_role",
		path:  []string{"linkingAgentIdentifier", "linkingAgentRole"},
		get:   func(e *model.Event) string { return e.LinkingAgentRole },
		set:   func(e *model.Event, v string) error { e.LinkingAgentRole = v; return nil },
	},
}

// ParseEventTime parses an event timestamp. RFC3339 with offset is the
// canonical form; the two offsetless legacy layouts are accepted with
// fractional seconds stripped, and are read as UTC.
func ParseEventTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	bare := strings.SplitN(value, ".", 2)[0]
	if t, err := time.ParseInLocation(dateFormat, bare, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(altDateFormat, bare, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, &DateError{Value: value}
}

// findChild returns the first child of el whose local name matches name,
// regardless of namespace prefix.
func findChild(el *etree.Element, name string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, child := range el.ChildElements() {
		if child.Tag == name {
			return child
		}
	}
	return nil
}

// findChildren returns all children of el whose local name matches name.
func findChildren(el *etree.Element, name string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == name {
			out = append(out, child)
		}
	}
	return out
}

// childText returns the trimmed text of the first child with the given local
// name, or "" when the child is absent or empty.
func childText(el *etree.Element, name string) string {
	child := findChild(el, name)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

// walkChain descends from el through the given chain of local names.
// Returns nil as soon as a link is missing.
func walkChain(el *etree.Element, chain []string) *etree.Element {
	current := el
	for _, name := range chain {
		current = findChild(current, name)
		if current == nil {
			return nil
		}
	}
	return current
}

// findOrCreateChain descends from el through the chain of local names,
// creating (namespaced) elements as needed. Existing parents are reused so
// sibling fields share their common ancestors.
func findOrCreateChain(el *etree.Element, chain []string) *etree.Element {
	current := el
	for _, name := range chain {
		next := findChild(current, name)
		if next == nil {
			next = current.CreateElement("premis:" + name)
		}
		current = next
	}
	return current
}

// EventToXML renders ev as a premis:event element.
func EventToXML(ev *model.Event) *etree.Element {
	root := etree.NewElement("premis:event")
	root.CreateAttr("xmlns:premis", Namespace)

	for _, fm := range eventFieldTable {
		value := fm.get(ev)
		leaf := findOrCreateChain(root, fm.path)
		leaf.SetText(value)
	}

	for _, lo := range ev.LinkingObjects {
		loEl := root.CreateElement("premis:linkingObjectIdentifier")
		loEl.CreateElement("premis:linkingObjectIdentifierType").SetText(lo.ObjectType)
		loEl.CreateElement("premis:linkingObjectIdentifierValue").SetText(lo.ObjectIdentifier)
		loEl.CreateElement("premis:linkingObjectRole").SetText(lo.ObjectRole)
	}
	return root
}

// EventFromXML maps a premis event element onto a new Event record. Absent
// optional elements leave their fields at the zero value; they are never
// overwritten with empty strings. An absent or non-UUID event identifier is
// replaced with a freshly generated one.
func EventFromXML(el *etree.Element) (*model.Event, error) {
	ev := &model.Event{}
	for _, fm := range eventFieldTable {
		leaf := walkChain(el, fm.path)
		if leaf == nil {
			continue
		}
		value := strings.TrimSpace(leaf.Text())
		if value == "" {
			continue
		}
		if err := fm.set(ev, value); err != nil {
			return nil, err
		}
	}

	if _, err := uuid.Parse(ev.EventIdentifier); err != nil {
		ev.EventIdentifier = strings.ReplaceAll(uuid.New().String(), "-", "")
	}

	for _, loEl := range findChildren(el, "linkingObjectIdentifier") {
		value := childText(loEl, "linkingObjectIdentifierValue")
		if value == "" {
			continue
		}
		ev.LinkingObjects = append(ev.LinkingObjects, model.LinkObject{
			ObjectIdentifier: value,
			ObjectType:       childText(loEl, "linkingObjectIdentifierType"),
			ObjectRole:       childText(loEl, "linkingObjectRole"),
		})
	}
	return ev, nil
}

// UpdateEventFromXML applies the codec-mapped field subset found in el onto
// an existing record. Only fields present and non-empty in the document are
// touched.
func UpdateEventFromXML(ev *model.Event, el *etree.Element) error {
	for _, fm := range eventFieldTable {
		if fm.field == "event_identifier" {
			continue
		}
		leaf := walkChain(el, fm.path)
		if leaf == nil {
			continue
		}
		value := strings.TrimSpace(leaf.Text())
		if value == "" {
			continue
		}
		if err := fm.set(ev, value); err != nil {
			return err
		}
	}
	return nil
}

// EmbeddedEventIdentifier extracts the PREMIS event identifier value from el.
func EmbeddedEventIdentifier(el *etree.Element) (string, error) {
	leaf := walkChain(el, []string{"eventIdentifier", "eventIdentifierValue"})
	if leaf == nil {
		return "", &MissingFieldError{Field: "event_identifier"}
	}
	value := strings.TrimSpace(leaf.Text())
	if value == "" {
		return "", &MissingFieldError{Field: "event_identifier"}
	}
	return value, nil
}
