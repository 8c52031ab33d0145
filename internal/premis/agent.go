// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package premis

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/codalib/premisd/internal/model"
)

// AgentFromXML maps a premis agent element onto an Agent record. The
// identifier, name, and type elements are required; the note is optional.
func AgentFromXML(el *etree.Element) (*model.Agent, error) {
	a := &model.Agent{}

	idEl := findChild(el, "agentIdentifier")
	if idEl == nil {
		return nil, &MissingFieldError{Field: "agent_identifier"}
	}
	if a.AgentIdentifier = childText(idEl, "agentIdentifierValue"); a.AgentIdentifier == "" {
		return nil, &MissingFieldError{Field: "agent_identifier"}
	}

	if a.AgentName = childText(el, "agentName"); a.AgentName == "" {
		return nil, &MissingFieldError{Field: "agent_name"}
	}
	if a.AgentType = childText(el, "agentType"); a.AgentType == "" {
		return nil, &MissingFieldError{Field: "agent_type"}
	}

	// agentNote is optional; absence is not an error.
	a.AgentNote = childText(el, "agentNote")

	return a, nil
}

// AgentIdentifierFromXML extracts just the agent identifier value from el.
func AgentIdentifierFromXML(el *etree.Element) (string, error) {
	idEl := findChild(el, "agentIdentifier")
	if idEl == nil {
		return "", &MissingFieldError{Field: "agent_identifier"}
	}
	value := childText(idEl, "agentIdentifierValue")
	if value == "" {
		return "", &MissingFieldError{Field: "agent_identifier"}
	}
	return value, nil
}

// AgentToXML renders a as a premis:agent element with the bare identifier
// value and the given identifier type label.
func AgentToXML(a *model.Agent, idType string) *etree.Element {
	return agentXML(a, a.AgentIdentifier, idType)
}

// AgentToPremisXML renders a with the identifier expressed as a resolvable
// URL under webRoot, the form served for ".premis" representations.
func AgentToPremisXML(a *model.Agent, webRoot, idType string) *etree.Element {
	value := strings.TrimRight(webRoot, "/") + "/agent/" + a.AgentIdentifier + "/"
	return agentXML(a, value, idType)
}

func agentXML(a *model.Agent, identifierValue, idType string) *etree.Element {
	root := etree.NewElement("premis:agent")
	root.CreateAttr("xmlns:premis", Namespace)

	idEl := root.CreateElement("premis:agentIdentifier")
	idEl.CreateElement("premis:agentIdentifierValue").SetText(identifierValue)
	idEl.CreateElement("premis:agentIdentifierType").SetText(idType)

	root.CreateElement("premis:agentName").SetText(a.AgentName)
	root.CreateElement("premis:agentType").SetText(a.AgentType)
	if a.AgentNote != "" {
		root.CreateElement("premis:agentNote").SetText(a.AgentNote)
	}
	return root
}
