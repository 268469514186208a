package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"habitcal/internal/model"
)

func newHabitRepo(t *testing.T) (*HabitRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewHabitRepo(db), mock
}

func expectOwnerCheck(mock sqlmock.Sqlmock, habitID, userID uint64) *sqlmock.ExpectedQuery {
	return mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, title, frequency FROM habits WHERE id = ? AND user_id = ?")).
		WithArgs(habitID, userID)
}

func TestToggleMarksThenUnmarks(t *testing.T) {
	repo, mock := newHabitRepo(t)
	ctx := context.Background()

	// First toggle: no existing row for the date, so it gets inserted.
	mock.ExpectBegin()
	expectOwnerCheck(mock, 7, 1).WillReturnRows(
		sqlmock.NewRows([]string{"id", "title", "frequency"}).AddRow(7, "Run", "daily"))
	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM habit_completions WHERE habit_id = ? AND completion_date = ?")).
		WithArgs(7, "2024-01-02").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO habit_completions (habit_id, completion_date) VALUES (?, ?)")).
		WithArgs(7, "2024-01-02").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DATE_FORMAT(completion_date, '%Y-%m-%d') FROM habit_completions")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"completion_date"}).AddRow("2024-01-02"))
	mock.ExpectCommit()

	res, err := repo.Toggle(ctx, 1, 7, "2024-01-02")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !res.Inserted {
		t.Error("expected first toggle to report the date as inserted")
	}
	if len(res.CompletedDates) != 1 || res.CompletedDates[0] != "2024-01-02" {
		t.Errorf("unexpected completed dates: %v", res.CompletedDates)
	}
	if res.Habit.Title != "Run" {
		t.Errorf("expected habit title Run, got %q", res.Habit.Title)
	}

	// Second toggle on the same date: the row exists and gets deleted,
	// returning the set to its original (empty) state.
	mock.ExpectBegin()
	expectOwnerCheck(mock, 7, 1).WillReturnRows(
		sqlmock.NewRows([]string{"id", "title", "frequency"}).AddRow(7, "Run", "daily"))
	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM habit_completions WHERE habit_id = ? AND completion_date = ?")).
		WithArgs(7, "2024-01-02").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DATE_FORMAT(completion_date, '%Y-%m-%d') FROM habit_completions")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"completion_date"}))
	mock.ExpectCommit()

	res, err = repo.Toggle(ctx, 1, 7, "2024-01-02")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if res.Inserted {
		t.Error("expected second toggle to report the date as removed")
	}
	if len(res.CompletedDates) != 0 {
		t.Errorf("expected an empty completion set, got %v", res.CompletedDates)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestToggleNotOwnedReportsNotFound(t *testing.T) {
	repo, mock := newHabitRepo(t)

	mock.ExpectBegin()
	expectOwnerCheck(mock, 7, 2).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Toggle(context.Background(), 2, 7, "2024-01-02")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for another user's habit, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestToggleInsertRaceIsAbsorbed(t *testing.T) {
	repo, mock := newHabitRepo(t)

	// A concurrent request inserted the same (habit, date) between our delete
	// and insert; the duplicate key must read as "marked", not as a failure.
	mock.ExpectBegin()
	expectOwnerCheck(mock, 7, 1).WillReturnRows(
		sqlmock.NewRows([]string{"id", "title", "frequency"}).AddRow(7, "Run", "daily"))
	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM habit_completions WHERE habit_id = ? AND completion_date = ?")).
		WithArgs(7, "2024-01-02").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO habit_completions (habit_id, completion_date) VALUES (?, ?)")).
		WithArgs(7, "2024-01-02").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '7-2024-01-02' for key 'PRIMARY'"))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DATE_FORMAT(completion_date, '%Y-%m-%d') FROM habit_completions")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"completion_date"}).AddRow("2024-01-02"))
	mock.ExpectCommit()

	res, err := repo.Toggle(context.Background(), 1, 7, "2024-01-02")
	if err != nil {
		t.Fatalf("Toggle failed on duplicate insert: %v", err)
	}
	if !res.Inserted {
		t.Error("expected the duplicate insert to still report the date as marked")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteRemovesCompletionsInOneTransaction(t *testing.T) {
	repo, mock := newHabitRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id FROM habits WHERE id = ? AND user_id = ?")).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM habit_completions WHERE habit_id = ?")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM habits WHERE id = ?")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Delete(context.Background(), 1, 7); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteNotOwnedReportsNotFound(t *testing.T) {
	repo, mock := newHabitRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id FROM habits WHERE id = ? AND user_id = ?")).
		WithArgs(7, 2).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	if err := repo.Delete(context.Background(), 2, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListByUserAttachesCompletionSets(t *testing.T) {
	repo, mock := newHabitRepo(t)

	habitRows := sqlmock.NewRows([]string{
		"id", "user_id", "title", "description", "start_date", "frequency", "is_completed", "created_at",
	}).
		AddRow(2, 1, "Read", nil, "2024-02-01", "weekly", false, "2024-02-01 08:00:00").
		AddRow(1, 1, "Run", "morning jog", "2024-01-01", "daily", true, "2024-01-01 08:00:00")
	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM habits WHERE user_id = ? ORDER BY created_at DESC, id DESC")).
		WithArgs(1).
		WillReturnRows(habitRows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM habit_completions hc")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"habit_id", "completion_date"}).
			AddRow(1, "2024-01-02").
			AddRow(1, "2024-01-03"))

	habits, err := repo.ListByUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(habits) != 2 {
		t.Fatalf("expected 2 habits, got %d", len(habits))
	}
	// Newest-created habit first, with an empty but non-nil completion set.
	if habits[0].Title != "Read" {
		t.Errorf("expected newest habit first, got %q", habits[0].Title)
	}
	if habits[0].CompletedDates == nil || len(habits[0].CompletedDates) != 0 {
		t.Errorf("expected an empty completion set, got %v", habits[0].CompletedDates)
	}
	if len(habits[1].CompletedDates) != 2 || habits[1].CompletedDates[0] != "2024-01-02" {
		t.Errorf("unexpected completion set: %v", habits[1].CompletedDates)
	}
	if habits[1].Description == nil || *habits[1].Description != "morning jog" {
		t.Errorf("unexpected description: %v", habits[1].Description)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdatePreservesFlagWhenOmitted(t *testing.T) {
	repo, mock := newHabitRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT is_completed FROM habits WHERE id = ? AND user_id = ?")).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"is_completed"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE habits SET")).
		WithArgs("Run farther", nil, "2024-01-05", "daily", true, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM habits WHERE id = ?")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "title", "description", "start_date", "frequency", "is_completed", "created_at",
		}).AddRow(7, 1, "Run farther", nil, "2024-01-05", "daily", true, "2024-01-01 08:00:00"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM habit_completions")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"completion_date"}).AddRow("2024-01-02"))

	h := model.Habit{ID: 7, UserID: 1, Title: "Run farther", StartDate: "2024-01-05", Frequency: "daily"}
	if err := repo.Update(context.Background(), &h, nil); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !h.IsCompleted {
		t.Error("expected the stored is_completed flag to be preserved")
	}
	if len(h.CompletedDates) != 1 {
		t.Errorf("expected the completion set on the updated habit, got %v", h.CompletedDates)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateNotOwnedReportsNotFound(t *testing.T) {
	repo, mock := newHabitRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT is_completed FROM habits WHERE id = ? AND user_id = ?")).
		WithArgs(7, 2).
		WillReturnError(sql.ErrNoRows)

	h := model.Habit{ID: 7, UserID: 2, Title: "Run", StartDate: "2024-01-01", Frequency: "daily"}
	if err := repo.Update(context.Background(), &h, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
