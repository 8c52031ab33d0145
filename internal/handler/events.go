// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/go-chi/chi/v5"

	"github.com/codalib/premisd/internal/atom"
	"github.com/codalib/premisd/internal/model"
	"github.com/codalib/premisd/internal/premis"
	"github.com/codalib/premisd/internal/store"
)

// eventLocation is the canonical URL of an event record.
func (h *Handler) eventLocation(r *http.Request, identifier string) string {
	return h.webRoot(r) + "/APP/event/" + identifier + "/"
}

// eventEntry wraps ev as an Atom entry with its canonical id.
func (h *Handler) eventEntry(r *http.Request, ev *model.Event) *etree.Element {
	return atom.WrapEntry(
		premis.EventToXML(ev),
		h.eventLocation(r, ev.EventIdentifier),
		ev.EventIdentifier,
		h.cfg.FeedAuthor,
		ev.EventDateTime,
	)
}

// createEvent handles POST /APP/event/. The body is an Atom entry embedding a
// premis event (a bare event element is also accepted). A missing or non-UUID
// event identifier is replaced with a generated one; a colliding identifier
// is a conflict.
func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	root, err := atom.ParseDocument(body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	eventEl, err := atom.EntryContent(root, "event")
	if err != nil {
		h.writeError(w, err)
		return
	}
	ev, err := premis.EventFromXML(eventEl)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if ev.EventIdentifierType == "" {
		ev.EventIdentifierType = h.cfg.EventIDType
	}
	if ev.LinkingAgentIdentifierValue != "" && ev.LinkingAgentRole == "" {
		ev.LinkingAgentRole = h.cfg.LinkAgentRole
	}
	ev.EventAdded = time.Now().UTC()
	if ev.EventDateTime.IsZero() {
		ev.EventDateTime = ev.EventAdded
	}

	if err := h.store.CreateEvent(r.Context(), ev); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("event created",
		"identifier", ev.EventIdentifier, "type", ev.EventType)

	w.Header().Set("Location", h.eventLocation(r, ev.EventIdentifier))
	h.writeAtom(w, http.StatusCreated, h.eventEntry(r, ev))
}

// listEvents handles GET /APP/event/: the paginated Atom feed over the event
// collection, filtered and ordered by query parameters.
func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
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

	webRoot := h.webRoot(r)
	links := []atom.Link{
		{Rel: "self", Href: pageURL(r, webRoot, page.Number, q.MinOrdinal)},
		{Rel: "first", Href: pageURL(r, webRoot, 1, 0)},
		{Rel: "last", Href: pageURL(r, webRoot, page.NumPages, 0)},
	}
	if page.HasPrev() {
		links = append(links, atom.Link{Rel: "previous", Href: pageURL(r, webRoot, page.Number-1, 0)})
	}
	if page.HasNext() {
		links = append(links, atom.Link{Rel: "next", Href: pageURL(r, webRoot, page.Number+1, page.NextCursor)})
	}

	updated := time.Now().UTC()
	if len(page.Events) > 0 {
		updated = page.Events[0].EventDateTime
	}

	feedEl := atom.NewFeed(webRoot+"/APP/event/", "Event Entry Feed", updated, links)
	for i := range page.Events {
		feedEl.AddChild(h.eventEntry(r, &page.Events[i]))
	}
	h.writeAtom(w, http.StatusOK, feedEl)
}

// getEvent handles GET /APP/event/{identifier}.
func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	ev, err := h.store.GetEvent(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "There is no event for identifier %s.", identifier)
			return
		}
		h.writeError(w, err)
		return
	}
	h.writeAtom(w, http.StatusOK, h.eventEntry(r, ev))
}

// updateEvent handles PUT /APP/event/{identifier}. The document must carry a
// resolvable identifier that agrees with the URL; fields present and
// non-empty in the document replace the stored values, everything else is
// left alone.
func (h *Handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	root, err := atom.ParseDocument(body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	eventEl, err := atom.EntryContent(root, "event")
	if err != nil {
		h.writeError(w, err)
		return
	}

	bodyID, err := resolveEventIdentifier(root, eventEl)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if bodyID != identifier {
		http.Error(w,
			"document identifier "+bodyID+" does not match URL identifier "+identifier,
			http.StatusBadRequest)
		return
	}

	ev, err := h.store.GetEvent(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "There is no event for identifier %s.", identifier)
			return
		}
		h.writeError(w, err)
		return
	}
	if err := premis.UpdateEventFromXML(ev, eventEl); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.store.UpdateEvent(r.Context(), ev); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("event updated", "identifier", identifier)
	h.writeAtom(w, http.StatusOK, h.eventEntry(r, ev))
}

// deleteEvent handles DELETE /APP/event/{identifier} and returns the deleted
// representation.
func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	ev, err := h.store.DeleteEvent(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "Unable to Delete. There is no event for identifier %s.", identifier)
			return
		}
		h.writeError(w, err)
		return
	}
	h.log.Info("event deleted", "identifier", identifier)
	h.writeAtom(w, http.StatusOK, h.eventEntry(r, ev))
}

// findEvent handles GET /event/find/{linkedIdentifier}[/{eventType}]: the
// most recent event whose linked object identifiers contain the given value.
func (h *Handler) findEvent(w http.ResponseWriter, r *http.Request) {
	linkedID := chi.URLParam(r, "linkedIdentifier")
	eventType := chi.URLParam(r, "eventType")

	ev, err := h.store.LatestEventForLinkedObject(r.Context(), linkedID, eventType)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "There is no event for matching those parameters")
			return
		}
		h.writeError(w, err)
		return
	}
	entry := atom.WrapEntry(premis.EventToXML(ev),
		ev.EventIdentifier, ev.EventIdentifier, h.cfg.FeedAuthor, ev.EventDateTime)
	h.writeAtom(w, http.StatusOK, entry)
}

// resolveEventIdentifier extracts the event identifier from an inbound
// document: the Atom envelope id wins, the embedded PREMIS identifier value
// is the fallback, and URI-shaped values are reduced to their final path
// segment.
func resolveEventIdentifier(root, eventEl *etree.Element) (string, error) {
	if id := atom.EnvelopeIdentifier(root); id != "" {
		return atom.LastPathSegment(id), nil
	}
	id, err := premis.EmbeddedEventIdentifier(eventEl)
	if err != nil {
		return "", premis.ErrNoIdentifier
	}
	return atom.LastPathSegment(id), nil
}
