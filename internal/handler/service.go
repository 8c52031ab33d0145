// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/codalib/premisd/internal/atom"
)

// serviceDocument handles GET /APP/: the AtomPub service document naming the
// event and agent collections.
func (h *Handler) serviceDocument(w http.ResponseWriter, r *http.Request) {
	webRoot := h.webRoot(r)
	doc := atom.ServiceDoc("Premis Event Service", []atom.Collection{
		{
			Title:  "Event Entry Feed",
			Href:   webRoot + "/APP/event/",
			Accept: "application/atom+xml;type=entry",
		},
		{
			Title:  "Agent Entry Feed",
			Href:   webRoot + "/APP/agent/",
			Accept: "application/atom+xml;type=entry",
		},
	})
	h.writeXML(w, http.StatusOK, doc)
}
