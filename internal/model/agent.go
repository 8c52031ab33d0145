// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Agent types, a controlled vocabulary.
const (
	AgentTypePersonal     = "Personal"
	AgentTypeOrganization = "Organization"
	AgentTypeEvent        = "Event"
	AgentTypeSoftware     = "Software"
)

// AgentTypes lists the valid agent types in display order.
var AgentTypes = []string{
	AgentTypePersonal,
	AgentTypeOrganization,
	AgentTypeEvent,
	AgentTypeSoftware,
}

// ValidAgentType reports whether t is a member of the agent type vocabulary.
func ValidAgentType(t string) bool {
	for _, at := range AgentTypes {
		if at == t {
			return true
		}
	}
	return false
}

// Agent is an actor (person, organization, or software) that performs events.
type Agent struct {
	ID              int64
	AgentIdentifier string
	AgentName       string
	AgentType       string
	AgentNote       string
}
