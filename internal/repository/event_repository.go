// This file contains data access logic for calendar events. Events have a
// full explicit lifecycle (create, list, update, delete) and are always
// scoped to their owning user; the optional month/year filter narrows the
// list to one calendar month.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"habitcal/internal/model"
)

// eventCols selects an event row with the date pre-formatted as "YYYY-MM-DD"
// and the optional time-of-day as "HH:MM".
const eventCols = `id, user_id, title, description,
       DATE_FORMAT(event_date, '%Y-%m-%d'), TIME_FORMAT(event_time, '%H:%i'), created_at`

// EventRepo manages persistence for calendar events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// Create inserts a new event and populates the struct with the stored row.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (user_id, title, description, event_date, event_time)
               VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.UserID, e.Title, e.Description, e.EventDate, e.EventTime)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return r.scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventCols+` FROM events WHERE id = ?`, e.ID), e)
}

// ListByUser returns a user's events ordered by (event_date, event_time)
// ascending. When month and year are both non-zero, only events whose
// event_date falls in that calendar month are returned; callers must pass
// both or neither.
func (r *EventRepo) ListByUser(ctx context.Context, userID uint64, month, year int) ([]model.Event, error) {
	q := `SELECT ` + eventCols + ` FROM events WHERE user_id = ?`
	args := []any{userID}
	if month != 0 && year != 0 {
		q += ` AND MONTH(event_date) = ? AND YEAR(event_date) = ?`
		args = append(args, month, year)
	}
	q += ` ORDER BY event_date ASC, event_time ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := r.scanEvent(rows, &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Update overwrites all mutable fields of an event owned by e.UserID.
// Returns ErrNotFound when the event does not exist or belongs to another
// user.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM events WHERE id = ? AND user_id = ?`, e.ID, e.UserID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	const q = `UPDATE events SET title = ?, description = ?, event_date = ?, event_time = ?
               WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.EventDate, e.EventTime, e.ID); err != nil {
		return err
	}
	return r.scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventCols+` FROM events WHERE id = ?`, e.ID), e)
}

// Delete removes an event. The single conditional DELETE keeps "absent" and
// "not yours" indistinguishable: both leave zero rows affected and surface as
// ErrNotFound.
func (r *EventRepo) Delete(ctx context.Context, userID, eventID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanEvent reads one event row in eventCols order.
func (r *EventRepo) scanEvent(row interface{ Scan(...any) error }, e *model.Event) error {
	var desc, eventTime sql.NullString
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &desc, &e.EventDate,
		&eventTime, &e.CreatedAt); err != nil {
		return err
	}
	e.Description = ptrFromNull(desc)
	e.EventTime = ptrFromNull(eventTime)
	return nil
}
