// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/codalib/premisd/internal/config"
	"github.com/codalib/premisd/internal/store"
)

func testRouter(t *testing.T) chi.Router {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	cfg := &config.Config{
		FeedPerPage:     20,
		EventIDType:     "http://purl.org/net/untl/vocabularies/identifier-qualifiers/#UUID",
		LinkAgentIDType: "http://purl.org/net/untl/vocabularies/identifier-qualifiers/#URL",
		LinkAgentRole:   "http://purl.org/net/untl/vocabularies/linkingAgentRoles/#executingProgram",
		AgentIDType:     "PES:Agent",
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, store.New(db), log).Routes()
}

func doRequest(t *testing.T, router chi.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// eventBody builds an Atom entry embedding a premis event for POSTing.
func eventBody(identifier, eventType, dateTime, outcome, linkedObject string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?>
<entry xmlns="http://www.w3.org/2005/Atom">
  <title>` + identifier + `</title>
  <id>` + identifier + `</id>
  <content type="application/xml">
    <premis:event xmlns:premis="info:lc/xmlns/premis-v2">
`)
	if identifier != "" {
		sb.WriteString(`      <premis:eventIdentifier>
        <premis:eventIdentifierType>UUID</premis:eventIdentifierType>
        <premis:eventIdentifierValue>` + identifier + `</premis:eventIdentifierValue>
      </premis:eventIdentifier>
`)
	}
	if eventType != "" {
		sb.WriteString("      <premis:eventType>" + eventType + "</premis:eventType>\n")
	}
	if dateTime != "" {
		sb.WriteString("      <premis:eventDateTime>" + dateTime + "</premis:eventDateTime>\n")
	}
	if outcome != "" {
		sb.WriteString(`      <premis:eventOutcomeInformation>
        <premis:eventOutcome>` + outcome + `</premis:eventOutcome>
      </premis:eventOutcomeInformation>
`)
	}
	if linkedObject != "" {
		sb.WriteString(`      <premis:linkingObjectIdentifier>
        <premis:linkingObjectIdentifierType>ARK</premis:linkingObjectIdentifierType>
        <premis:linkingObjectIdentifierValue>` + linkedObject + `</premis:linkingObjectIdentifierValue>
      </premis:linkingObjectIdentifier>
`)
	}
	sb.WriteString(`    </premis:event>
  </content>
</entry>`)
	return sb.String()
}

func mustCreateEvent(t *testing.T, router chi.Router, identifier, eventType, dateTime, outcome, linkedObject string) {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/APP/event/",
		eventBody(identifier, eventType, dateTime, outcome, linkedObject))
	if rec.Code != http.StatusCreated {
		t.Fatalf("creating event %s: status %d, body %s", identifier, rec.Code, rec.Body.String())
	}
}

// eventIDForIndex derives a distinct valid identifier from a test index.
func eventIDForIndex(i int) string {
	return fmt.Sprintf("%032d", i)
}

const (
	testEventID  = "5b5cefc2f76a4db8aa2038a1b4b4c375"
	testEventID2 = "0d2e98f1a0c44b1fbb4c8b0f0c2f7f56"
	fixityCheck  = "http://purl.org/net/untl/vocabularies/preservationEvents/#fixityCheck"
	outcomeGood  = "http://purl.org/net/untl/vocabularies/eventOutcomes/#success"
)

func TestCreateEvent(t *testing.T) {
	router := testRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/APP/event/",
		eventBody(testEventID, fixityCheck, "2024-03-09T14:22:05Z", outcomeGood, "ark:/67531/coda1s9vt"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/atom+xml" {
		t.Errorf("Content-Type = %q", got)
	}
	wantLoc := "http://example.com/APP/event/" + testEventID + "/"
	if got := rec.Header().Get("Location"); got != wantLoc {
		t.Errorf("Location = %q, want %q", got, wantLoc)
	}
	if !strings.Contains(rec.Body.String(), testEventID) {
		t.Error("response does not carry the event identifier")
	}
	if !strings.Contains(rec.Body.String(), "ark:/67531/coda1s9vt") {
		t.Error("response does not carry the linked object")
	}
}

func TestCreateEventDuplicate(t *testing.T) {
	router := testRouter(t)
	body := eventBody(testEventID, fixityCheck, "2024-03-09T14:22:05Z", outcomeGood, "")

	if rec := doRequest(t, router, http.MethodPost, "/APP/event/", body); rec.Code != http.StatusCreated {
		t.Fatalf("first POST: status %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPost, "/APP/event/", body); rec.Code != http.StatusConflict {
		t.Fatalf("second POST: status %d, want 409", rec.Code)
	}
}

func TestCreateEventGeneratesIdentifier(t *testing.T) {
	router := testRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/APP/event/",
		eventBody("", fixityCheck, "2024-03-09T14:22:05Z", "", ""))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Location") == "http://example.com/APP/event//" {
		t.Error("no identifier was generated")
	}
}

func TestCreateEventDefaultsAgentRole(t *testing.T) {
	router := testRouter(t)

	body := `<?xml version="1.0"?>
<entry xmlns="http://www.w3.org/2005/Atom">
  <title>` + testEventID + `</title>
  <id>` + testEventID + `</id>
  <content type="application/xml">
    <premis:event xmlns:premis="info:lc/xmlns/premis-v2">
      <premis:eventIdentifier>
        <premis:eventIdentifierType>UUID</premis:eventIdentifierType>
        <premis:eventIdentifierValue>` + testEventID + `</premis:eventIdentifierValue>
      </premis:eventIdentifier>
      <premis:eventType>` + fixityCheck + `</premis:eventType>
      <premis:eventDateTime>2024-03-09T14:22:05Z</premis:eventDateTime>
      <premis:linkingAgentIdentifier>
        <premis:linkingAgentIdentifierType>PES:Agent</premis:linkingAgentIdentifierType>
        <premis:linkingAgentIdentifierValue>codaMigrationVerification</premis:linkingAgentIdentifierValue>
      </premis:linkingAgentIdentifier>
    </premis:event>
  </content>
</entry>`
	rec := doRequest(t, router, http.MethodPost, "/APP/event/", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	want := `<premis:linkingAgentRole>http://purl.org/net/untl/vocabularies/linkingAgentRoles/#executingProgram</premis:linkingAgentRole>`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("default agent role missing from created entry: %s", rec.Body.String())
	}

	// The defaulted role is stored, not just echoed.
	rec = doRequest(t, router, http.MethodGet, "/APP/event/"+testEventID, "")
	if !strings.Contains(rec.Body.String(), want) {
		t.Error("default agent role missing from stored event")
	}
}

func TestCreateEventBadRequests(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"not xml", "this is not xml <"},
		{"empty body", ""},
		{"no event element", `<entry xmlns="http://www.w3.org/2005/Atom"><id>x</id></entry>`},
		{"bad date", eventBody(testEventID, fixityCheck, "last tuesday", "", "")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/APP/event/", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetEvent(t *testing.T) {
	router := testRouter(t)
	mustCreateEvent(t, router, testEventID, fixityCheck, "2024-03-09T14:22:05Z", outcomeGood, "")

	rec := doRequest(t, router, http.MethodGet, "/APP/event/"+testEventID+"/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), fixityCheck) {
		t.Error("response does not carry the event type")
	}

	if rec := doRequest(t, router, http.MethodGet, "/APP/event/nope/", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown identifier: status %d, want 404", rec.Code)
	}
}

func TestHeadEvent(t *testing.T) {
	router := testRouter(t)
	mustCreateEvent(t, router, testEventID, fixityCheck, "2024-03-09T14:22:05Z", "", "")

	rec := doRequest(t, router, http.MethodHead, "/APP/event/"+testEventID+"/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/atom+xml" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestUpdateEvent(t *testing.T) {
	router := testRouter(t)
	mustCreateEvent(t, router, testEventID, fixityCheck, "2024-03-09T14:22:05Z", outcomeGood, "")

	failed := "http://purl.org/net/untl/vocabularies/eventOutcomes/#failure"
	rec := doRequest(t, router, http.MethodPut, "/APP/event/"+testEventID+"/",
		eventBody(testEventID, "", "", failed, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), failed) {
		t.Error("updated outcome not in response")
	}
	// Untouched fields survive the update.
	if !strings.Contains(rec.Body.String(), fixityCheck) {
		t.Error("event type was lost by partial update")
	}
}

func TestUpdateEventIdentifierMismatch(t *testing.T) {
	router := testRouter(t)
	mustCreateEvent(t, router, testEventID, fixityCheck, "2024-03-09T14:22:05Z", "", "")

	rec := doRequest(t, router, http.MethodPut, "/APP/event/"+testEventID+"/",
		eventBody(testEventID2, "", "", "", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateEventNotFound(t *testing.T) {
	router := testRouter(t)

	rec := doRequest(t, router, http.MethodPut, "/APP/event/"+testEventID+"/",
		eventBody(testEventID, "", "", "", ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteEvent(t *testing.T) {
	router := testRouter(t)
	mustCreateEvent(t, router, testEventID, fixityCheck, "2024-03-09T14:22:05Z", outcomeGood, "")

	rec := doRequest(t, router, http.MethodDelete, "/APP/event/"+testEventID+"/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	// The deleted representation comes back one last time.
	if !strings.Contains(rec.Body.String(), testEventID) {
		t.Error("deleted representation missing from response")
	}

	if rec := doRequest(t, router, http.MethodDelete, "/APP/event/"+testEventID+"/", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE: status %d, want 404", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodGet, "/APP/event/"+testEventID+"/", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET after DELETE: status %d, want 404", rec.Code)
	}
}

func TestListEventsFeed(t *testing.T) {
	router := testRouter(t)
	for i := 0; i < 3; i++ {
		mustCreateEvent(t, router,
			eventIDForIndex(i), fixityCheck,
			fmt.Sprintf("2024-03-0%dT10:00:00Z", i+1), outcomeGood, "")
	}

	rec := doRequest(t, router, http.MethodGet, "/APP/event/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if got := strings.Count(body, "<entry"); got != 3 {
		t.Errorf("feed carries %d entries, want 3", got)
	}
	for _, rel := range []string{`rel="self"`, `rel="first"`, `rel="last"`} {
		if !strings.Contains(body, rel) {
			t.Errorf("feed missing %s link", rel)
		}
	}
	// Newest first.
	first := strings.Index(body, "2024-03-03")
	last := strings.Index(body, "2024-03-01")
	if first == -1 || last == -1 || first > last {
		t.Error("entries are not in descending insertion order")
	}
}

func TestListEventsPagePastEnd(t *testing.T) {
	router := testRouter(t)
	mustCreateEvent(t, router, testEventID, fixityCheck, "2024-03-09T14:22:05Z", "", "")

	rec := doRequest(t, router, http.MethodGet, "/APP/event/?page=99", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListEventsBadParams(t *testing.T) {
	router := testRouter(t)

	for _, target := range []string{
		"/APP/event/?orderby=lol",
		"/APP/event/?orderdir=sideways",
		"/APP/event/?start_date=2024-03-09",
		"/APP/event/?page=zero",
		"/APP/event/?min_ordinal=-4",
	} {
		if rec := doRequest(t, router, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", target, rec.Code)
		}
	}
}

func TestListEventsFiltered(t *testing.T) {
	router := testRouter(t)
	mustCreateEvent(t, router, testEventID, fixityCheck, "2024-03-09T14:22:05Z", outcomeGood, "ark:/67531/coda1s9vt")
	mustCreateEvent(t, router, testEventID2, "ingestion", "2024-04-01T08:00:00Z", outcomeGood, "ark:/67531/other")

	rec := doRequest(t, router, http.MethodGet, "/APP/event/?link_object_id=ark:/67531/coda1s9vt", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), testEventID) || strings.Contains(rec.Body.String(), testEventID2) {
		t.Error("linked-object filter returned the wrong events")
	}

	rec = doRequest(t, router, http.MethodGet, "/APP/event/?start_date=03/15/2024", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), testEventID) || !strings.Contains(rec.Body.String(), testEventID2) {
		t.Error("date filter returned the wrong events")
	}
}

func TestListEventsOrdered(t *testing.T) {
	router := testRouter(t)
	// Insertion order deliberately disagrees with date order.
	mustCreateEvent(t, router, eventIDForIndex(1), fixityCheck, "2024-06-01T00:00:00Z", outcomeGood, "")
	mustCreateEvent(t, router, eventIDForIndex(2), fixityCheck, "2024-01-01T00:00:00Z", outcomeGood, "")
	mustCreateEvent(t, router, eventIDForIndex(3), fixityCheck, "2024-03-01T00:00:00Z", outcomeGood, "")

	rec := doRequest(t, router, http.MethodGet,
		"/APP/event/?orderby=event_date_time&orderdir=ascending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	jan, mar, jun := strings.Index(body, eventIDForIndex(2)),
		strings.Index(body, eventIDForIndex(3)),
		strings.Index(body, eventIDForIndex(1))
	if jan < 0 || mar < 0 || jun < 0 {
		t.Fatalf("missing entries in feed: %s", body)
	}
	if !(jan < mar && mar < jun) {
		t.Errorf("ascending date order not honored: jan=%d mar=%d jun=%d", jan, mar, jun)
	}

	rec = doRequest(t, router, http.MethodGet,
		"/APP/event/?orderby=event_date_time&orderdir=descending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body = rec.Body.String()
	if !(strings.Index(body, eventIDForIndex(1)) < strings.Index(body, eventIDForIndex(3))) {
		t.Errorf("descending date order not honored: %s", body)
	}
}

func TestFindEvent(t *testing.T) {
	router := testRouter(t)
	mustCreateEvent(t, router, testEventID, fixityCheck, "2024-03-09T14:22:05Z", outcomeGood, "ark:/67531/coda1s9vt")
	mustCreateEvent(t, router, testEventID2, fixityCheck, "2024-05-01T09:00:00Z", outcomeGood, "ark:/67531/coda1s9vt")

	rec := doRequest(t, router, http.MethodGet, "/event/find/coda1s9vt/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	// The later of the two events wins.
	if !strings.Contains(rec.Body.String(), testEventID2) {
		t.Error("response is not the most recent matching event")
	}

	if rec := doRequest(t, router, http.MethodGet, "/event/find/nothing-links-this/", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown linked object: status %d, want 404", rec.Code)
	}
}

func TestServiceDocument(t *testing.T) {
	router := testRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/APP/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"http://www.w3.org/2007/app", "/APP/event/", "/APP/agent/"} {
		if !strings.Contains(body, want) {
			t.Errorf("service document missing %q", want)
		}
	}
}
