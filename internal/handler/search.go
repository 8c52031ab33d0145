// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"
	"time"
)

// jsonLink is one rel link in the JSON search feed.
type jsonLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// jsonEventEntry is one event in the JSON search feed.
type jsonEventEntry struct {
	Identifier    string `json:"identifier"`
	EventType     string `json:"event_type"`
	Outcome       string `json:"outcome"`
	Date          string `json:"date"`
	LinkedObjects string `json:"linked_objects"`
}

// jsonEventFeed mirrors the OpenSearch-flavored shape of the JSON search
// results.
type jsonEventFeed struct {
	Entry        []jsonEventEntry    `json:"entry"`
	Link         []jsonLink          `json:"link"`
	Query        map[string][]string `json:"opensearch:Query"`
	ItemsPerPage int                 `json:"opensearch:itemsPerPage"`
	StartIndex   string              `json:"opensearch:startIndex"`
	TotalResults int64               `json:"opensearch:totalResults"`
	Title        string              `json:"title"`
}

// searchEventsJSON handles GET /event/search.json. An empty result set is a
// bare JSON array, not an empty feed object.
func (h *Handler) searchEventsJSON(w http.ResponseWriter, r *http.Request) {
	q, err := parseEventQuery(r, h.cfg.FeedPerPage)
	if err != nil {
		h.writeError(w, err)
		return
	}

	page, err := h.pager.Resolve(r.Context(), q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if page.Total == 0 {
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	webRoot := h.webRoot(r)
	links := []jsonLink{
		{Rel: "self", Href: pageURL(r, webRoot, page.Number, q.MinOrdinal)},
		{Rel: "first", Href: pageURL(r, webRoot, 1, 0)},
		{Rel: "last", Href: pageURL(r, webRoot, page.NumPages, 0)},
	}
	if page.HasPrev() {
		links = append(links, jsonLink{Rel: "previous", Href: pageURL(r, webRoot, page.Number-1, 0)})
	}
	if page.HasNext() {
		links = append(links, jsonLink{Rel: "next", Href: pageURL(r, webRoot, page.Number+1, page.NextCursor)})
	}

	entries := make([]jsonEventEntry, 0, len(page.Events))
	for i := range page.Events {
		ev := &page.Events[i]
		entries = append(entries, jsonEventEntry{
			Identifier:    ev.EventIdentifier,
			EventType:     ev.EventType,
			Outcome:       ev.EventOutcome,
			Date:          ev.EventDateTime.UTC().Format(time.DateTime),
			LinkedObjects: strings.Join(ev.LinkObjectIdentifiers(), ", "),
		})
	}

	writeJSON(w, http.StatusOK, map[string]jsonEventFeed{
		"feed": {
			Entry:        entries,
			Link:         links,
			Query:        r.URL.Query(),
			ItemsPerPage: page.PerPage,
			StartIndex:   "1",
			TotalResults: page.Total,
			Title:        "Premis Event Search",
		},
	})
}
