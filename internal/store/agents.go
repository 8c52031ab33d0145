// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codalib/premisd/internal/model"
)

// CreateAgent inserts a new agent. A colliding agent_identifier yields a
// DuplicateError.
func (s *Store) CreateAgent(ctx context.Context, a *model.Agent) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO agents (agent_identifier, agent_name, agent_type, agent_note)
		VALUES (?, ?, ?, ?)`,
		a.AgentIdentifier, a.AgentName, a.AgentType, a.AgentNote)
	if err != nil {
		if isUniqueViolation(err) {
			return &DuplicateError{Kind: "agent", Identifier: a.AgentIdentifier}
		}
		return fmt.Errorf("inserting agent: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading agent id: %w", err)
	}
	a.ID = id
	return nil
}

// GetAgent returns the agent with the given identifier, or ErrNotFound.
func (s *Store) GetAgent(ctx context.Context, identifier string) (*model.Agent, error) {
	var a model.Agent
	err := s.db.QueryRowContext(ctx, `
		SELECT id, agent_identifier, agent_name, agent_type, agent_note
		FROM agents WHERE agent_identifier = ?`, identifier).
		Scan(&a.ID, &a.AgentIdentifier, &a.AgentName, &a.AgentType, &a.AgentNote)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting agent %q: %w", identifier, err)
	}
	return &a, nil
}

// UpdateAgent rewrites the name, type, and note of the agent identified by
// a.AgentIdentifier.
func (s *Store) UpdateAgent(ctx context.Context, a *model.Agent) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE agents SET agent_name = ?, agent_type = ?, agent_note = ?
		WHERE agent_identifier = ?`,
		a.AgentName, a.AgentType, a.AgentNote, a.AgentIdentifier)
	if err != nil {
		return fmt.Errorf("updating agent %q: %w", a.AgentIdentifier, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating agent %q: %w", a.AgentIdentifier, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAgent removes the agent and returns its last representation.
func (s *Store) DeleteAgent(ctx context.Context, identifier string) (*model.Agent, error) {
	a, err := s.GetAgent(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM agents WHERE id = ?`, a.ID); err != nil {
		return nil, fmt.Errorf("deleting agent %q: %w", identifier, err)
	}
	return a, nil
}

// ListAgents returns a window of agents ordered by name, plus the total count.
func (s *Store) ListAgents(ctx context.Context, offset, limit int) ([]model.Agent, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM agents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting agents: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_identifier, agent_name, agent_type, agent_note
		FROM agents ORDER BY agent_name, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var agents []model.Agent
	for rows.Next() {
		var a model.Agent
		if err := rows.Scan(&a.ID, &a.AgentIdentifier, &a.AgentName, &a.AgentType, &a.AgentNote); err != nil {
			return nil, 0, fmt.Errorf("scanning agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("listing agents: %w", err)
	}
	return agents, total, nil
}
