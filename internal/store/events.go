// Copyright (c) 2026 premisd authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codalib/premisd/internal/model"
)

// sqliteTimeLayout is the canonical text form for DATETIME columns. All times
// are stored in UTC.
const sqliteTimeLayout = "2006-01-02 15:04:05"

func bindTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// eventColumns is the scan order used by all event queries.
const eventColumns = `ordinal, event_identifier, event_identifier_type, event_type,
	event_date_time, event_added, event_detail, event_outcome, event_outcome_detail,
	linking_agent_identifier_type, linking_agent_identifier_value, linking_agent_role`

// orderableEventColumns whitelists the columns accepted for the orderby query
// parameter on the unfiltered listing.
var orderableEventColumns = map[string]bool{
	"ordinal":                        true,
	"event_identifier":               true,
	"event_type":                     true,
	"event_date_time":                true,
	"event_added":                    true,
	"event_outcome":                  true,
	"linking_agent_identifier_value": true,
}

// OrderableEventColumn reports whether name may be used as an orderby field.
func OrderableEventColumn(name string) bool {
	return orderableEventColumns[name]
}

// CreateEvent inserts ev and its link-object associations in one transaction.
// Link objects are created on first sight and reused afterwards. The assigned
// ordinal and event_added timestamp are written back into ev. A colliding
// event_identifier yields a DuplicateError.
func (s *Store) CreateEvent(ctx context.Context, ev *model.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ev.EventAdded = time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO events (event_identifier, event_identifier_type, event_type,
			event_date_time, event_added, event_detail, event_outcome,
			event_outcome_detail, linking_agent_identifier_type,
			linking_agent_identifier_value, linking_agent_role)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.EventIdentifier, ev.EventIdentifierType, ev.EventType,
		bindTime(ev.EventDateTime), bindTime(ev.EventAdded), ev.EventDetail, ev.EventOutcome,
		ev.EventOutcomeDetail, ev.LinkingAgentIdentifierType,
		ev.LinkingAgentIdentifierValue, ev.LinkingAgentRole)
	if err != nil {
		if isUniqueViolation(err) {
			return &DuplicateError{Kind: "event", Identifier: ev.EventIdentifier}
		}
		return fmt.Errorf("inserting event: %w", err)
	}

	ordinal, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading event ordinal: %w", err)
	}
	ev.Ordinal = ordinal

	for i := range ev.LinkingObjects {
		lo := &ev.LinkingObjects[i]
		if err := getOrCreateLinkObject(ctx, tx, lo); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO event_link_objects (event_ordinal, object_identifier)
			VALUES (?, ?)
			ON CONFLICT (event_ordinal, object_identifier) DO NOTHING`,
			ordinal, lo.ObjectIdentifier)
		if err != nil {
			return fmt.Errorf("linking object %q: %w", lo.ObjectIdentifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing event: %w", err)
	}
	return nil
}

// getOrCreateLinkObject resolves lo by identifier, inserting it if unseen.
// An existing row wins over the incoming type/role values.
func getOrCreateLinkObject(ctx context.Context, tx *sql.Tx, lo *model.LinkObject) error {
	var role sql.NullString
	err := tx.QueryRowContext(ctx, `
		SELECT object_type, object_role FROM link_objects WHERE object_identifier = ?`,
		lo.ObjectIdentifier).Scan(&lo.ObjectType, &role)
	switch {
	case err == nil:
		lo.ObjectRole = role.String
		return nil
	case errors.Is(err, sql.ErrNoRows):
		_, err := tx.ExecContext(ctx, `
			INSERT INTO link_objects (object_identifier, object_type, object_role)
			VALUES (?, ?, ?)
			ON CONFLICT (object_identifier) DO NOTHING`,
			lo.ObjectIdentifier, lo.ObjectType, nullable(lo.ObjectRole))
		if err != nil {
			return fmt.Errorf("creating link object %q: %w", lo.ObjectIdentifier, err)
		}
		return nil
	default:
		return fmt.Errorf("resolving link object %q: %w", lo.ObjectIdentifier, err)
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetEvent returns the event with the given public identifier, including its
// linked objects. Returns ErrNotFound when no such event exists.
func (s *Store) GetEvent(ctx context.Context, identifier string) (*model.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE event_identifier = ?`, identifier)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting event %q: %w", identifier, err)
	}
	if err := s.loadLinkObjects(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// UpdateEvent rewrites the codec-mapped field subset of the event identified
// by ev.EventIdentifier. Ordinal and event_added are never touched.
func (s *Store) UpdateEvent(ctx context.Context, ev *model.Event) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET event_identifier_type = ?, event_type = ?,
			event_date_time = ?, event_detail = ?, event_outcome = ?,
			event_outcome_detail = ?, linking_agent_identifier_type = ?,
			linking_agent_identifier_value = ?, linking_agent_role = ?
		WHERE event_identifier = ?`,
		ev.EventIdentifierType, ev.EventType, bindTime(ev.EventDateTime),
		ev.EventDetail, ev.EventOutcome, ev.EventOutcomeDetail,
		ev.LinkingAgentIdentifierType, ev.LinkingAgentIdentifierValue,
		ev.LinkingAgentRole, ev.EventIdentifier)
	if err != nil {
		return fmt.Errorf("updating event %q: %w", ev.EventIdentifier, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating event %q: %w", ev.EventIdentifier, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent removes the event and returns its last representation.
func (s *Store) DeleteEvent(ctx context.Context, identifier string) (*model.Event, error) {
	ev, err := s.GetEvent(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE ordinal = ?`, ev.Ordinal); err != nil {
		return nil, fmt.Errorf("deleting event %q: %w", identifier, err)
	}
	return ev, nil
}

// eventWhere builds the WHERE clause for q. The ordinal cursor is included
// only when withCursor is set; counts must ignore it.
func eventWhere(q model.EventQuery, withCursor bool) (string, []any) {
	var conds []string
	var args []any

	if !q.StartDate.IsZero() {
		conds = append(conds, "event_date_time >= ?")
		args = append(args, bindTime(q.StartDate))
	}
	if !q.EndDate.IsZero() {
		conds = append(conds, "event_date_time <= ?")
		args = append(args, bindTime(q.EndDate))
	}
	if q.Outcome != "" {
		conds = append(conds, "event_outcome = ?")
		args = append(args, q.Outcome)
	}
	if q.EventType != "" {
		conds = append(conds, "event_type = ?")
		args = append(args, q.EventType)
	}
	if q.LinkedObjectID != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM event_link_objects elo
			WHERE elo.event_ordinal = events.ordinal AND elo.object_identifier = ?)`)
		args = append(args, q.LinkedObjectID)
	}
	if withCursor && q.MinOrdinal > 0 {
		conds = append(conds, "ordinal <= ?")
		args = append(args, q.MinOrdinal)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// eventOrder picks the ORDER BY clause for q. Ordinal descending is the
// default; orderby columns must be pre-validated by the caller.
func eventOrder(q model.EventQuery) string {
	col := "ordinal"
	dir := "DESC"
	if q.OrderBy != "" {
		col = q.OrderBy
		if q.OrderDir != model.OrderDescending {
			dir = "ASC"
		}
	}
	return fmt.Sprintf(" ORDER BY %s %s", col, dir)
}

// SearchEvents returns the window of events matching q, starting offset rows
// into the ordered result set, at most limit rows. When q carries a MinOrdinal
// cursor the window is anchored at the cursor instead of the offset.
func (s *Store) SearchEvents(ctx context.Context, q model.EventQuery, offset, limit int) ([]model.Event, error) {
	where, args := eventWhere(q, true)
	if q.MinOrdinal > 0 {
		offset = 0
	}
	query := `SELECT ` + eventColumns + ` FROM events` + where + eventOrder(q) +
		` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching events: %w", err)
	}

	for i := range events {
		if err := s.loadLinkObjects(ctx, &events[i]); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// CountEvents returns the total number of events matching q's filters. The
// paging cursor is deliberately ignored: the total always describes the whole
// matching set.
func (s *Store) CountEvents(ctx context.Context, q model.EventQuery) (int64, error) {
	where, args := eventWhere(q, false)
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

// OrdinalAt returns the ordinal at the given offset into the ordinal-ordered
// result set for q, descending from the newest row when descending is true,
// ascending from the oldest otherwise. Returns ErrNotFound past the end.
func (s *Store) OrdinalAt(ctx context.Context, q model.EventQuery, offset int64, descending bool) (int64, error) {
	where, args := eventWhere(q, false)
	dir := "ASC"
	if descending {
		dir = "DESC"
	}
	query := fmt.Sprintf(
		"SELECT ordinal FROM events%s ORDER BY ordinal %s LIMIT 1 OFFSET ?", where, dir)
	args = append(args, offset)

	var ordinal int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&ordinal)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolving ordinal at offset %d: %w", offset, err)
	}
	return ordinal, nil
}

// LatestEventForLinkedObject returns the most recent event (by event date)
// whose linked-object identifiers contain linkedID. When eventType is
// non-empty the event type must contain it as well.
func (s *Store) LatestEventForLinkedObject(ctx context.Context, linkedID, eventType string) (*model.Event, error) {
	conds := `EXISTS (SELECT 1 FROM event_link_objects elo
		WHERE elo.event_ordinal = events.ordinal AND elo.object_identifier LIKE ?)`
	args := []any{"%" + linkedID + "%"}
	if eventType != "" {
		conds += " AND event_type LIKE ?"
		args = append(args, "%"+eventType+"%")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE `+
		conds+` ORDER BY event_date_time DESC, ordinal DESC LIMIT 1`, args...)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding event for linked object %q: %w", linkedID, err)
	}
	if err := s.loadLinkObjects(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// loadLinkObjects fills ev.LinkingObjects in join-row insertion order.
func (s *Store) loadLinkObjects(ctx context.Context, ev *model.Event) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lo.object_identifier, lo.object_type, lo.object_role
		FROM event_link_objects elo
		JOIN link_objects lo ON lo.object_identifier = elo.object_identifier
		WHERE elo.event_ordinal = ?
		ORDER BY elo.id`, ev.Ordinal)
	if err != nil {
		return fmt.Errorf("loading link objects for %q: %w", ev.EventIdentifier, err)
	}
	defer func() { _ = rows.Close() }()

	ev.LinkingObjects = nil
	for rows.Next() {
		var lo model.LinkObject
		var role sql.NullString
		if err := rows.Scan(&lo.ObjectIdentifier, &lo.ObjectType, &role); err != nil {
			return fmt.Errorf("scanning link object: %w", err)
		}
		lo.ObjectRole = role.String
		ev.LinkingObjects = append(ev.LinkingObjects, lo)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var ev model.Event
	var dateTime, added string
	err := row.Scan(&ev.Ordinal, &ev.EventIdentifier, &ev.EventIdentifierType,
		&ev.EventType, &dateTime, &added, &ev.EventDetail,
		&ev.EventOutcome, &ev.EventOutcomeDetail, &ev.LinkingAgentIdentifierType,
		&ev.LinkingAgentIdentifierValue, &ev.LinkingAgentRole)
	if err != nil {
		return nil, err
	}
	if ev.EventDateTime, err = parseStoredTime(dateTime); err != nil {
		return nil, fmt.Errorf("parsing event_date_time: %w", err)
	}
	if ev.EventAdded, err = parseStoredTime(added); err != nil {
		return nil, fmt.Errorf("parsing event_added: %w", err)
	}
	return &ev, nil
}

func parseStoredTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(sqliteTimeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
