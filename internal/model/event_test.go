// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

func TestEventLinkObjectIdentifiers(t *testing.T) {
	e := Event{
		LinkingObjects: []LinkObject{
			{ObjectIdentifier: "ark:/67531/obj1"},
			{ObjectIdentifier: "ark:/67531/obj2"},
		},
	}

	ids := e.LinkObjectIdentifiers()
	if len(ids) != 2 || ids[0] != "ark:/67531/obj1" || ids[1] != "ark:/67531/obj2" {
		t.Errorf("LinkObjectIdentifiers() = %v", ids)
	}
}

func TestEventQueryIsFiltered(t *testing.T) {
	tests := []struct {
		name string
		q    EventQuery
		want bool
	}{
		{"empty", EventQuery{}, false},
		{"paging only", EventQuery{Page: 3, PerPage: 20, MinOrdinal: 99}, false},
		{"ordering only", EventQuery{OrderBy: "event_added", OrderDir: OrderDescending}, false},
		{"start date", EventQuery{StartDate: time.Now()}, true},
		{"end date", EventQuery{EndDate: time.Now()}, true},
		{"outcome", EventQuery{Outcome: "success"}, true},
		{"event type", EventQuery{EventType: "fixityCheck"}, true},
		{"linked object", EventQuery{LinkedObjectID: "ark:/67531/obj1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.IsFiltered(); got != tt.want {
				t.Errorf("IsFiltered() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidAgentType(t *testing.T) {
	for _, at := range AgentTypes {
		if !ValidAgentType(at) {
			t.Errorf("ValidAgentType(%q) = false", at)
		}
	}
	if ValidAgentType("Robot") {
		t.Error(`ValidAgentType("Robot") = true`)
	}
}
