// Package repository contains data access logic for the habit domain. This
// file owns habit records and their per-day completion marks. The completion
// set is never cached: every read rebuilds it from habit_completions so the
// read path cannot drift from the toggle write path.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"habitcal/internal/model"
)

// habitCols selects a habit row with dates pre-formatted for the wire.
// DATE columns are formatted in SQL so the driver's parseTime setting never
// leaks a timestamp into a day-granularity field.
const habitCols = `id, user_id, title, description,
       DATE_FORMAT(start_date, '%Y-%m-%d'), frequency, is_completed, created_at`

// HabitRepo manages persistence for habits and their completion records.
type HabitRepo struct {
	db *sql.DB
}

// NewHabitRepo constructs a HabitRepo with the given DB handle.
func NewHabitRepo(db *sql.DB) *HabitRepo {
	return &HabitRepo{db: db}
}

// ToggleResult reports the outcome of a completion toggle. Inserted refers to
// the transition just performed: true when the date was marked done, false
// when an existing mark was removed. It says nothing about the habit's own
// stored is_completed flag.
type ToggleResult struct {
	Habit          model.Habit // id, title and frequency of the toggled habit
	CompletedDates []string    // full updated set, ascending
	Inserted       bool
}

// Create inserts a new habit and populates the struct with the stored row,
// including DB-default fields such as created_at.
func (r *HabitRepo) Create(ctx context.Context, h *model.Habit) error {
	const q = `INSERT INTO habits (user_id, title, description, start_date, frequency, is_completed)
               VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.UserID, h.Title, h.Description, h.StartDate, h.Frequency, h.IsCompleted)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	if err := r.scanHabit(r.db.QueryRowContext(ctx,
		`SELECT `+habitCols+` FROM habits WHERE id = ?`, h.ID), h); err != nil {
		return err
	}
	// A habit cannot have completion marks before it exists.
	h.CompletedDates = []string{}
	return nil
}

// Update overwrites title, description, start_date and frequency of a habit
// owned by h.UserID. When isCompleted is nil the stored flag is preserved,
// mirroring the partial semantics of that one field; everything else is a
// full overwrite. Returns ErrNotFound when the habit does not exist or is
// owned by another user.
func (r *HabitRepo) Update(ctx context.Context, h *model.Habit, isCompleted *bool) error {
	var current bool
	err := r.db.QueryRowContext(ctx,
		`SELECT is_completed FROM habits WHERE id = ? AND user_id = ?`,
		h.ID, h.UserID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	flag := current
	if isCompleted != nil {
		flag = *isCompleted
	}
	const q = `UPDATE habits SET title = ?, description = ?, start_date = ?, frequency = ?, is_completed = ?
               WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, h.Title, h.Description, h.StartDate, h.Frequency, flag, h.ID); err != nil {
		return err
	}
	if err := r.scanHabit(r.db.QueryRowContext(ctx,
		`SELECT `+habitCols+` FROM habits WHERE id = ?`, h.ID), h); err != nil {
		return err
	}
	h.CompletedDates, err = completionDates(ctx, r.db, h.ID)
	return err
}

// Delete removes a habit and all of its completion records inside one
// transaction. The schema also declares ON DELETE CASCADE, but the explicit
// two-step delete keeps the invariant even on a database created without the
// foreign key. Returns ErrNotFound per the ownership rule.
func (r *HabitRepo) Delete(ctx context.Context, userID, habitID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var id uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM habits WHERE id = ? AND user_id = ?`, habitID, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM habit_completions WHERE habit_id = ?`, habitID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM habits WHERE id = ?`, habitID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListByUser returns all habits of a user, newest-created first, each
// annotated with its full completion-date set. The set is reconstructed from
// habit_completions on every call; there is deliberately no cached column or
// layer in between.
func (r *HabitRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Habit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+habitCols+` FROM habits WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []model.Habit{}
	index := map[uint64]int{}
	for rows.Next() {
		var h model.Habit
		if err := r.scanHabit(rows, &h); err != nil {
			return nil, err
		}
		h.CompletedDates = []string{}
		index[h.ID] = len(habits)
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return habits, nil
	}

	const q = `SELECT hc.habit_id, DATE_FORMAT(hc.completion_date, '%Y-%m-%d')
               FROM habit_completions hc
               JOIN habits h ON h.id = hc.habit_id
               WHERE h.user_id = ?
               ORDER BY hc.completion_date ASC`
	crows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var habitID uint64
		var date string
		if err := crows.Scan(&habitID, &date); err != nil {
			return nil, err
		}
		if i, ok := index[habitID]; ok {
			habits[i].CompletedDates = append(habits[i].CompletedDates, date)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}
	return habits, nil
}

// Toggle flips the completion mark of one habit for one date inside a single
// transaction. Delete-first: removing the (habit, date) row means this call
// un-marked it; no row removed means this call marks it. Concurrent toggles
// on the same pair serialize on the row, and an insert losing the race to a
// concurrent writer is absorbed by the unique key rather than failing the
// request. Returns ErrNotFound per the ownership rule.
func (r *HabitRepo) Toggle(ctx context.Context, userID, habitID uint64, date string) (*ToggleResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	out := &ToggleResult{CompletedDates: []string{}}
	err = tx.QueryRowContext(ctx,
		`SELECT id, title, frequency FROM habits WHERE id = ? AND user_id = ?`,
		habitID, userID).Scan(&out.Habit.ID, &out.Habit.Title, &out.Habit.Frequency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM habit_completions WHERE habit_id = ? AND completion_date = ?`,
		habitID, date)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO habit_completions (habit_id, completion_date) VALUES (?, ?)`,
			habitID, date)
		// A 1062 duplicate means another request marked the date between our
		// delete and insert; the date is marked either way.
		if err != nil && !strings.Contains(strings.ToLower(err.Error()), "1062") {
			return nil, err
		}
		out.Inserted = true
	}

	out.CompletedDates, err = completionDates(ctx, tx, habitID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so the completion set can
// be rebuilt inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// completionDates returns the ordered completion-date set of one habit.
func completionDates(ctx context.Context, q querier, habitID uint64) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT DATE_FORMAT(completion_date, '%Y-%m-%d') FROM habit_completions
         WHERE habit_id = ? ORDER BY completion_date ASC`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}

// scanHabit reads one habit row in habitCols order from either a *sql.Row or
// *sql.Rows.
func (r *HabitRepo) scanHabit(row interface{ Scan(...any) error }, h *model.Habit) error {
	var desc sql.NullString
	if err := row.Scan(&h.ID, &h.UserID, &h.Title, &desc, &h.StartDate,
		&h.Frequency, &h.IsCompleted, &h.CreatedAt); err != nil {
		return err
	}
	h.Description = ptrFromNull(desc)
	return nil
}

// ptrFromNull converts a nullable text column into a *string for JSON, where
// NULL must serialize as null rather than "".
func ptrFromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
