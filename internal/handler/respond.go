// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/beevik/etree"

	"github.com/codalib/premisd/internal/atom"
	"github.com/codalib/premisd/internal/feed"
	"github.com/codalib/premisd/internal/premis"
	"github.com/codalib/premisd/internal/store"
)

// paramError reports a query parameter that could not be interpreted.
type paramError struct {
	Name  string
	Value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %q", e.Value, e.Name)
}

// writeAtom serializes el and writes it as an Atom document.
func (h *Handler) writeAtom(w http.ResponseWriter, status int, el *etree.Element) {
	h.writeDocument(w, status, "application/atom+xml", el)
}

// writeXML serializes el and writes it as a plain XML document.
func (h *Handler) writeXML(w http.ResponseWriter, status int, el *etree.Element) {
	h.writeDocument(w, status, "application/xml", el)
}

func (h *Handler) writeDocument(w http.ResponseWriter, status int, contentType string, el *etree.Element) {
	out, err := atom.Serialize(el)
	if err != nil {
		h.log.Error("serializing response document", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

// writeError maps err to its protocol status code and writes a plain text
// body. Client-caused failures (unparseable documents, unknown parameters,
// conflicting or missing records) get 4xx; everything else is a 500 and is
// logged.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		missing *premis.MissingFieldError
		date    *premis.DateError
		param   *paramError
	)
	switch {
	case store.IsDuplicate(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, atom.ErrMalformed),
		errors.Is(err, premis.ErrNoIdentifier),
		feed.IsInvalidPage(err),
		errors.As(err, &missing),
		errors.As(err, &date),
		errors.As(err, &param):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error("request failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// notFound writes a 404 with a descriptive body, matching the wording style
// of the rest of the protocol surface.
func notFound(w http.ResponseWriter, format string, args ...any) {
	http.Error(w, fmt.Sprintf(format, args...), http.StatusNotFound)
}
