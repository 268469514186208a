// Package queue defines message payloads exchanged over the message broker.
package queue

// HabitCompletedEvent is published when a toggle marks a habit done for a
// date. It carries enough information for downstream consumers to log or run
// analytics without querying the primary database. Un-marking a date does not
// publish anything.
type HabitCompletedEvent struct {
	HabitID          uint64 `json:"habit_id"`
	UserID           uint64 `json:"user_id"`
	Title            string `json:"title"`
	Frequency        string `json:"frequency"`
	CompletionDate   string `json:"completion_date"` // "YYYY-MM-DD"
	TotalCompletions int    `json:"total_completions"`
	CompletedAt      string `json:"completed_at"` // RFC3339 UTC
}
