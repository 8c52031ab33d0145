// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the AtomPub protocol surface and the
// supplementary JSON/XML read views over the event and agent collections.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/codalib/premisd/internal/config"
	"github.com/codalib/premisd/internal/feed"
	"github.com/codalib/premisd/internal/store"
)

// Handler holds shared dependencies for all protocol handlers.
type Handler struct {
	cfg   *config.Config
	store *store.Store
	pager *feed.Paginator
	log   *slog.Logger
}

// New creates a Handler over the given store.
func New(cfg *config.Config, st *store.Store, log *slog.Logger) *Handler {
	return &Handler{
		cfg:   cfg,
		store: st,
		pager: feed.NewPaginator(st, cfg.FeedPerPage),
		log:   log,
	}
}

// Routes mounts the AtomPub collections and read views on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// HEAD is answered for every GET route with identical headers; net/http
	// discards the body for HEAD responses.
	r.Use(chimw.GetHead)
	r.Use(chimw.StripSlashes)

	r.Route("/APP", func(r chi.Router) {
		r.Get("/", h.serviceDocument)

		r.Route("/event", func(r chi.Router) {
			r.Get("/", h.listEvents)
			r.Post("/", h.createEvent)
			r.Get("/{identifier}", h.getEvent)
			r.Put("/{identifier}", h.updateEvent)
			r.Delete("/{identifier}", h.deleteEvent)
		})

		r.Route("/agent", func(r chi.Router) {
			r.Get("/", h.listAgents)
			r.Post("/", h.createAgent)
			r.Get("/{identifier}", h.getAgent)
			r.Put("/{identifier}", h.updateAgent)
			r.Delete("/{identifier}", h.deleteAgent)
		})
	})

	r.Get("/event/search.json", h.searchEventsJSON)
	r.Get("/event/find/{linkedIdentifier}", h.findEvent)
	r.Get("/event/find/{linkedIdentifier}/{eventType}", h.findEvent)

	r.Get("/agent/{identifier}.json", h.agentJSON)
	r.Get("/agent/{identifier}.xml", h.agentXML)
	r.Get("/agent/{identifier}.premis.xml", h.agentPremisXML)

	return r
}

// webRoot returns the externally visible URL root for building ids and links.
func (h *Handler) webRoot(r *http.Request) string {
	if h.cfg.BaseURL != "" {
		return h.cfg.BaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
