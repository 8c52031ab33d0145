// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package atom builds and unwraps the Atom envelopes used for AtomPub
// transport of PREMIS documents.
package atom

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// Namespace is the Atom XML namespace.
const Namespace = "http://www.w3.org/2005/Atom"

// AppNamespace is the AtomPub protocol namespace, used by service documents.
const AppNamespace = "http://www.w3.org/2007/app"

// TimeFormat is the timestamp layout used in Atom updated elements.
const TimeFormat = "2006-01-02T15:04:05Z"

// ErrMalformed is returned when a request body cannot be parsed as XML.
var ErrMalformed = errors.New("malformed XML document")

// ParseDocument parses body and returns its root element.
func ParseDocument(body []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrMalformed
	}
	return root, nil
}

// WrapEntry creates an Atom entry embedding xml as its content. A zero
// updated time means "now".
func WrapEntry(xml *etree.Element, id, title, author string, updated time.Time) *etree.Element {
	entry := etree.NewElement("entry")
	entry.CreateAttr("xmlns", Namespace)

	entry.CreateElement("title").SetText(title)
	entry.CreateElement("id").SetText(id)

	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	entry.CreateElement("updated").SetText(updated.UTC().Format(TimeFormat))

	if author != "" {
		authorEl := entry.CreateElement("author")
		authorEl.CreateElement("name").SetText(author)
	}

	content := entry.CreateElement("content")
	content.CreateAttr("type", "application/xml")
	content.AddChild(xml)
	return entry
}

// EntryContent unwraps an Atom entry down to the embedded element with the
// given local name (entry > content > localName). A bare element of the
// expected local name is accepted as-is, so producers may omit the envelope.
func EntryContent(root *etree.Element, localName string) (*etree.Element, error) {
	if root == nil {
		return nil, ErrMalformed
	}
	if root.Tag == localName {
		return root, nil
	}
	content := findChild(root, "content")
	if content == nil {
		return nil, fmt.Errorf("%w: no content element", ErrMalformed)
	}
	inner := findChild(content, localName)
	if inner == nil {
		return nil, fmt.Errorf("%w: no %s element in content", ErrMalformed, localName)
	}
	return inner, nil
}

// EnvelopeIdentifier returns the text of the entry's Atom id element, or ""
// when the element is absent or empty.
func EnvelopeIdentifier(root *etree.Element) string {
	if root == nil {
		return ""
	}
	id := findChild(root, "id")
	if id == nil {
		return ""
	}
	return strings.TrimSpace(id.Text())
}

// LastPathSegment reduces a URI identifier to its final path segment. A value
// that does not look like a URI is returned unchanged.
func LastPathSegment(identifier string) string {
	if !strings.Contains(identifier, "://") {
		return identifier
	}
	u, err := url.Parse(identifier)
	if err != nil {
		return identifier
	}
	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return identifier
	}
	segments := strings.Split(trimmed, "/")
	return segments[len(segments)-1]
}

// Link is a feed-level rel link.
type Link struct {
	Rel  string
	Href string
}

// NewFeed creates an Atom feed element with its id, title, updated timestamp,
// and rel links. Entries are appended by the caller.
func NewFeed(id, title string, updated time.Time, links []Link) *etree.Element {
	feed := etree.NewElement("feed")
	feed.CreateAttr("xmlns", Namespace)

	feed.CreateElement("id").SetText(id)
	feed.CreateElement("title").SetText(title)
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	feed.CreateElement("updated").SetText(updated.UTC().Format(TimeFormat))

	for _, l := range links {
		linkEl := feed.CreateElement("link")
		linkEl.CreateAttr("rel", l.Rel)
		linkEl.CreateAttr("href", l.Href)
	}
	return feed
}

// Collection describes one collection in the AtomPub service document.
type Collection struct {
	Title  string
	Href   string
	Accept string
}

// ServiceDoc builds the AtomPub service document.
func ServiceDoc(title string, collections []Collection) *etree.Element {
	service := etree.NewElement("service")
	service.CreateAttr("xmlns", AppNamespace)
	workspace := service.CreateElement("workspace")

	titleEl := workspace.CreateElement("atom:title")
	titleEl.CreateAttr("xmlns:atom", Namespace)
	titleEl.SetText(title)

	for _, c := range collections {
		colEl := workspace.CreateElement("collection")
		colEl.CreateAttr("href", c.Href)
		colTitle := colEl.CreateElement("atom:title")
		colTitle.CreateAttr("xmlns:atom", Namespace)
		colTitle.SetText(c.Title)
		colEl.CreateElement("accept").SetText(c.Accept)
	}
	return service
}

// Serialize renders root as a standalone document with an XML declaration.
func Serialize(root *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0"`)
	doc.AddChild(root)
	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}
	return out, nil
}

// findChild returns the first child element with the given local name.
func findChild(el *etree.Element, name string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == name {
			return child
		}
	}
	return nil
}
