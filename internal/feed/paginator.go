// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package feed computes stable page windows over the growing event collection.
//
// The unfiltered listing never pages by row offset: the collection is large
// and append-only, and OFFSET deep into it is prohibitively slow. Instead each
// page is anchored at an ordinal cursor (ordinal <= cursor, descending), which
// stays correct while concurrent writers append rows above any captured
// cursor. Filtered result sets are assumed small, so plain offset math is
// acceptable there, with the same cursor mechanism honored when a caller
// supplies one.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/codalib/premisd/internal/model"
	"github.com/codalib/premisd/internal/store"
)

// WindowRadius is how many page numbers on each side of the current page are
// annotated with cursors.
const WindowRadius = 5

// InvalidPageError is returned when the requested page exceeds the last
// available page. It is a client error, distinct from an empty result.
type InvalidPageError struct {
	Page     int
	NumPages int
}

func (e *InvalidPageError) Error() string {
	return fmt.Sprintf("page %d is past the last page (%d)", e.Page, e.NumPages)
}

// IsInvalidPage reports whether err is an InvalidPageError.
func IsInvalidPage(err error) bool {
	var ip *InvalidPageError
	return errors.As(err, &ip)
}

// EventSource is the slice of the storage port the paginator needs.
type EventSource interface {
	SearchEvents(ctx context.Context, q model.EventQuery, offset, limit int) ([]model.Event, error)
	CountEvents(ctx context.Context, q model.EventQuery) (int64, error)
	OrdinalAt(ctx context.Context, q model.EventQuery, offset int64, descending bool) (int64, error)
}

// PageCursor annotates a nearby page number with the ordinal that anchors it.
type PageCursor struct {
	Number  int
	Cursor  int64
	Current bool
}

// Page is one resolved window of the collection plus the metadata needed to
// build first/prev/self/next/last navigation.
type Page struct {
	Events   []model.Event
	Number   int
	PerPage  int
	Total    int64
	NumPages int
	Window   []PageCursor

	// NextCursor anchors the page after this one; zero when there is none.
	NextCursor int64
}

// HasPrev reports whether a previous page exists.
func (p *Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a further page exists.
func (p *Page) HasNext() bool { return p.Number < p.NumPages }

// Paginator resolves query specifications into pages.
type Paginator struct {
	src     EventSource
	perPage int
}

// NewPaginator creates a Paginator serving perPage records per page.
func NewPaginator(src EventSource, perPage int) *Paginator {
	return &Paginator{src: src, perPage: perPage}
}

// Resolve computes the page described by q. The page number defaults to 1;
// requesting a page past the last yields InvalidPageError. When q carries a
// MinOrdinal cursor the window is anchored there; otherwise the anchor is
// derived from the page number.
func (p *Paginator) Resolve(ctx context.Context, q model.EventQuery) (*Page, error) {
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = p.perPage
	}
	pageNum := q.Page
	if pageNum <= 0 {
		pageNum = 1
	}

	total, err := p.src.CountEvents(ctx, q)
	if err != nil {
		return nil, err
	}
	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}
	if pageNum > numPages {
		return nil, &InvalidPageError{Page: pageNum, NumPages: numPages}
	}

	window := q
	window.PerPage = perPage
	offset := (pageNum - 1) * perPage
	if window.MinOrdinal > 0 {
		// A cursor already anchors the window; the page number is kept only
		// for navigation math.
		offset = 0
	}

	// The unfiltered full-table listing is anchored at a cursor even when the
	// client sent only a page number; resolving the cursor is an index-only
	// lookup, unlike a row-offset scan over the whole table.
	if window.MinOrdinal == 0 && !q.IsFiltered() && offset > 0 && total > 0 {
		cursor, err := p.src.OrdinalAt(ctx, q, int64(offset), true)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &InvalidPageError{Page: pageNum, NumPages: numPages}
			}
			return nil, err
		}
		window.MinOrdinal = cursor
		offset = 0
	}

	events, err := p.src.SearchEvents(ctx, window, offset, perPage)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Events:   events,
		Number:   pageNum,
		PerPage:  perPage,
		Total:    total,
		NumPages: numPages,
	}
	if pageNum < numPages && len(events) > 0 {
		// Anchor the next page just below the smallest ordinal seen here, so
		// rows appended meanwhile can never resurface or displace records.
		page.NextCursor = events[len(events)-1].Ordinal - 1
	}

	// Cursor annotation is only meaningful in default ordinal order.
	if q.OrderBy == "" {
		if err := p.annotateWindow(ctx, q, page); err != nil {
			return nil, err
		}
	}
	return page, nil
}

// annotateWindow fills page.Window with the cursors for the nearby page
// numbers: one stride walk descending from the top of the collection for
// pages in the upper half, one ascending from the bottom for pages in the
// lower half, merged into a single run.
func (p *Paginator) annotateWindow(ctx context.Context, q model.EventQuery, page *Page) error {
	q.MinOrdinal = 0

	first := page.Number - WindowRadius
	if first < 1 {
		first = 1
	}
	last := page.Number + WindowRadius
	if last > page.NumPages {
		last = page.NumPages
	}

	for n := first; n <= last; n++ {
		topOffset := int64(n-1) * int64(page.PerPage)
		cursor := int64(0)
		if page.Total > 0 {
			var err error
			if bottomOffset := page.Total - topOffset - 1; bottomOffset < topOffset {
				cursor, err = p.src.OrdinalAt(ctx, q, bottomOffset, false)
			} else {
				cursor, err = p.src.OrdinalAt(ctx, q, topOffset, true)
			}
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return err
			}
		}
		page.Window = append(page.Window, PageCursor{
			Number:  n,
			Cursor:  cursor,
			Current: n == page.Number,
		})
	}
	return nil
}
