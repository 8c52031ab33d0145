// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestSearchEventsJSONEmpty(t *testing.T) {
	router := testRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/event/search.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty search body = %q, want []", got)
	}
}

func TestSearchEventsJSON(t *testing.T) {
	router := testRouter(t)
	mustCreateEvent(t, router, testEventID, fixityCheck, "2024-03-09T14:22:05Z", outcomeGood, "ark:/67531/coda1s9vt")
	mustCreateEvent(t, router, testEventID2, "ingestion", "2024-04-01T08:00:00Z", outcomeGood, "")

	rec := doRequest(t, router, http.MethodGet, "/event/search.json?outcome="+outcomeGood, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Feed struct {
			Entry []struct {
				Identifier    string `json:"identifier"`
				EventType     string `json:"event_type"`
				Outcome       string `json:"outcome"`
				Date          string `json:"date"`
				LinkedObjects string `json:"linked_objects"`
			} `json:"entry"`
			Link []struct {
				Rel  string `json:"rel"`
				Href string `json:"href"`
			} `json:"link"`
			ItemsPerPage int    `json:"opensearch:itemsPerPage"`
			TotalResults int64  `json:"opensearch:totalResults"`
			Title        string `json:"title"`
		} `json:"feed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding body: %v", err)
	}

	if payload.Feed.TotalResults != 2 || len(payload.Feed.Entry) != 2 {
		t.Fatalf("total=%d entries=%d, want 2/2", payload.Feed.TotalResults, len(payload.Feed.Entry))
	}
	if payload.Feed.Title != "Premis Event Search" {
		t.Errorf("title = %q", payload.Feed.Title)
	}

	// Newest first; the older event carries its linked object.
	if payload.Feed.Entry[0].Identifier != testEventID2 {
		t.Errorf("first entry = %s, want %s", payload.Feed.Entry[0].Identifier, testEventID2)
	}
	if payload.Feed.Entry[1].LinkedObjects != "ark:/67531/coda1s9vt" {
		t.Errorf("linked_objects = %q", payload.Feed.Entry[1].LinkedObjects)
	}
	if payload.Feed.Entry[1].Date != "2024-03-09 14:22:05" {
		t.Errorf("date = %q", payload.Feed.Entry[1].Date)
	}

	rels := map[string]bool{}
	for _, l := range payload.Feed.Link {
		rels[l.Rel] = true
		if !strings.HasPrefix(l.Href, "http://example.com/event/search.json?") {
			t.Errorf("link %s href = %q", l.Rel, l.Href)
		}
	}
	for _, want := range []string{"self", "first", "last"} {
		if !rels[want] {
			t.Errorf("missing %s link", want)
		}
	}
	if rels["previous"] || rels["next"] {
		t.Error("single page should not advertise previous/next")
	}
}

func TestSearchEventsJSONPagination(t *testing.T) {
	router := testRouter(t)
	for i := 0; i < 25; i++ {
		mustCreateEvent(t, router, eventIDForIndex(i), fixityCheck, "2024-03-09T14:22:05Z", outcomeGood, "")
	}

	rec := doRequest(t, router, http.MethodGet, "/event/search.json?type="+fixityCheck+"&page=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"rel": "previous"`) {
		t.Error("page 2 missing previous link")
	}
	if strings.Contains(body, `"rel": "next"`) {
		t.Error("last page should not carry a next link")
	}

	if rec := doRequest(t, router, http.MethodGet, "/event/search.json?page=3", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("page past end: status %d, want 400", rec.Code)
	}
}
