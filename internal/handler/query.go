// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codalib/premisd/internal/model"
	"github.com/codalib/premisd/internal/store"
)

// queryDateFormat is the external format of start_date/end_date parameters.
const queryDateFormat = "01/02/2006"

// parseEventQuery interprets the search parameters of an event listing
// request. Unknown orderby columns and unparseable values are rejected rather
// than ignored.
func parseEventQuery(r *http.Request, perPage int) (model.EventQuery, error) {
	q := model.EventQuery{PerPage: perPage}
	values := r.URL.Query()

	get := func(names ...string) string {
		for _, n := range names {
			if v := strings.TrimSpace(values.Get(n)); v != "" {
				return v
			}
		}
		return ""
	}

	if v := get("start_date"); v != "" {
		t, err := time.ParseInLocation(queryDateFormat, v, time.UTC)
		if err != nil {
			return q, &paramError{Name: "start_date", Value: v}
		}
		q.StartDate = t
	}
	if v := get("end_date"); v != "" {
		t, err := time.ParseInLocation(queryDateFormat, v, time.UTC)
		if err != nil {
			return q, &paramError{Name: "end_date", Value: v}
		}
		// The whole named day is included.
		q.EndDate = t.Add(24*time.Hour - time.Second)
	}

	q.LinkedObjectID = get("link_object_id", "linked_object_id")
	q.Outcome = get("outcome", "event_outcome")
	q.EventType = get("type", "event_type")

	if v := get("orderby"); v != "" {
		if !store.OrderableEventColumn(v) {
			return q, &paramError{Name: "orderby", Value: v}
		}
		q.OrderBy = v
	}
	if v := get("orderdir"); v != "" {
		if v != model.OrderAscending && v != model.OrderDescending {
			return q, &paramError{Name: "orderdir", Value: v}
		}
		q.OrderDir = v
	}

	if v := get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return q, &paramError{Name: "page", Value: v}
		}
		q.Page = page
	}
	if v := get("min_ordinal"); v != "" {
		ord, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ord < 1 {
			return q, &paramError{Name: "min_ordinal", Value: v}
		}
		q.MinOrdinal = ord
	}

	return q, nil
}

// pageURL rebuilds the request URL against webRoot with the page parameter
// replaced and the cursor parameter set or cleared. All other parameters are
// preserved as sent.
func pageURL(r *http.Request, webRoot string, page int, cursor int64) string {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Del("min_ordinal")
	if cursor > 0 {
		q.Set("min_ordinal", strconv.FormatInt(cursor, 10))
	}
	return webRoot + r.URL.Path + "?" + q.Encode()
}
