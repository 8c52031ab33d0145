// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/go-chi/chi/v5"

	"github.com/codalib/premisd/internal/atom"
	"github.com/codalib/premisd/internal/model"
	"github.com/codalib/premisd/internal/premis"
	"github.com/codalib/premisd/internal/store"
)

func (h *Handler) agentLocation(r *http.Request, identifier string) string {
	return h.webRoot(r) + "/APP/agent/" + identifier + "/"
}

func (h *Handler) agentEntry(r *http.Request, a *model.Agent) *etree.Element {
	return atom.WrapEntry(
		premis.AgentToXML(a, h.cfg.AgentIDType),
		h.agentLocation(r, a.AgentIdentifier),
		a.AgentIdentifier,
		h.cfg.FeedAuthor,
		time.Time{},
	)
}

// parseAgentBody reads an Atom entry (or bare agent element) into an Agent
// record, rejecting unknown agent types.
func parseAgentBody(r *http.Request) (*model.Agent, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	root, err := atom.ParseDocument(body)
	if err != nil {
		return nil, err
	}
	agentEl, err := atom.EntryContent(root, "agent")
	if err != nil {
		return nil, err
	}
	a, err := premis.AgentFromXML(agentEl)
	if err != nil {
		return nil, err
	}
	if !model.ValidAgentType(a.AgentType) {
		return nil, &paramError{Name: "agentType", Value: a.AgentType}
	}
	return a, nil
}

// createAgent handles POST /APP/agent/.
func (h *Handler) createAgent(w http.ResponseWriter, r *http.Request) {
	a, err := parseAgentBody(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.store.CreateAgent(r.Context(), a); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("agent created", "identifier", a.AgentIdentifier)
	w.Header().Set("Location", h.agentLocation(r, a.AgentIdentifier))
	h.writeAtom(w, http.StatusCreated, h.agentEntry(r, a))
}

// listAgents handles GET /APP/agent/: an offset-paged Atom feed over the
// agent collection. Agents are few; cursor pagination is not needed here.
func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := strings.TrimSpace(r.URL.Query().Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, &paramError{Name: "page", Value: v})
			return
		}
		page = n
	}

	perPage := h.cfg.FeedPerPage
	agents, total, err := h.store.ListAgents(r.Context(), (page-1)*perPage, perPage)
	if err != nil {
		h.writeError(w, err)
		return
	}
	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}
	if page > numPages {
		http.Error(w, "page is past the last page", http.StatusBadRequest)
		return
	}

	webRoot := h.webRoot(r)
	links := []atom.Link{
		{Rel: "self", Href: pageURL(r, webRoot, page, 0)},
		{Rel: "first", Href: pageURL(r, webRoot, 1, 0)},
		{Rel: "last", Href: pageURL(r, webRoot, numPages, 0)},
	}
	if page > 1 {
		links = append(links, atom.Link{Rel: "previous", Href: pageURL(r, webRoot, page-1, 0)})
	}
	if page < numPages {
		links = append(links, atom.Link{Rel: "next", Href: pageURL(r, webRoot, page+1, 0)})
	}

	feedEl := atom.NewFeed(webRoot+"/APP/agent/", "Agent Entry Feed", time.Now().UTC(), links)
	for i := range agents {
		feedEl.AddChild(h.agentEntry(r, &agents[i]))
	}
	h.writeAtom(w, http.StatusOK, feedEl)
}

// getAgent handles GET /APP/agent/{identifier}.
func (h *Handler) getAgent(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	a, err := h.store.GetAgent(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "There is no agent with the identifier %s", identifier)
			return
		}
		h.writeError(w, err)
		return
	}
	h.writeAtom(w, http.StatusOK, h.agentEntry(r, a))
}

// updateAgent handles PUT /APP/agent/{identifier}. The URL names the record;
// a document whose identifier disagrees with the URL is rejected.
func (h *Handler) updateAgent(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	a, err := parseAgentBody(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if atom.LastPathSegment(a.AgentIdentifier) != identifier {
		http.Error(w,
			"document identifier "+a.AgentIdentifier+" does not match URL identifier "+identifier,
			http.StatusBadRequest)
		return
	}

	existing, err := h.store.GetAgent(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "There is no agent with the identifier %s", identifier)
			return
		}
		h.writeError(w, err)
		return
	}
	existing.AgentName = a.AgentName
	existing.AgentType = a.AgentType
	if a.AgentNote != "" {
		existing.AgentNote = a.AgentNote
	}
	if err := h.store.UpdateAgent(r.Context(), existing); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("agent updated", "identifier", identifier)
	h.writeAtom(w, http.StatusOK, h.agentEntry(r, existing))
}

// deleteAgent handles DELETE /APP/agent/{identifier} and returns the deleted
// representation.
func (h *Handler) deleteAgent(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	a, err := h.store.DeleteAgent(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "Unable to Delete. There is no agent with the identifier %s", identifier)
			return
		}
		h.writeError(w, err)
		return
	}
	h.log.Info("agent deleted", "identifier", identifier)
	h.writeAtom(w, http.StatusOK, h.agentEntry(r, a))
}

// agentJSON handles GET /agent/{identifier}.json.
func (h *Handler) agentJSON(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	a, err := h.store.GetAgent(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "There is no agent with the identifier %s", identifier)
			return
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":   h.agentLocation(r, a.AgentIdentifier),
		"name": a.AgentName,
		"type": a.AgentType,
		"note": a.AgentNote,
	})
}

// agentXML handles GET /agent/{identifier}.xml: the bare premis agent
// document with the configured identifier type label.
func (h *Handler) agentXML(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	a, err := h.store.GetAgent(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "There is no agent with the identifier %s", identifier)
			return
		}
		h.writeError(w, err)
		return
	}
	h.writeXML(w, http.StatusOK, premis.AgentToXML(a, h.cfg.AgentIDType))
}

// agentPremisXML handles GET /agent/{identifier}.premis.xml, which expresses
// the agent identifier as a resolvable URL under this service.
func (h *Handler) agentPremisXML(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	a, err := h.store.GetAgent(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "There is no agent with the identifier %s", identifier)
			return
		}
		h.writeError(w, err)
		return
	}
	h.writeXML(w, http.StatusOK, premis.AgentToPremisXML(a, h.webRoot(r), h.cfg.LinkAgentIDType))
}
