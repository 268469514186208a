package model

// Habit represents a recurring task tracked by per-day completion marks.
// Calendar values are carried as wire-format strings: StartDate and the
// entries of CompletedDates are "YYYY-MM-DD" with no time component.
//
// IsCompleted is a stored, client-settable flag that is independent of the
// completion-date set. It is not derived from CompletedDates and must not be
// confused with the `is_completed` field in the toggle response, which only
// reports whether the toggled date was inserted or removed by that call.
type Habit struct {
	ID          uint64  `json:"id"`          // habits.id
	UserID      uint64  `json:"-"`           // habits.user_id (never exposed)
	Title       string  `json:"title"`       // habits.title
	Description *string `json:"description"` // habits.description (nullable)
	StartDate   string  `json:"start_date"`  // habits.start_date, "YYYY-MM-DD"
	Frequency   string  `json:"frequency"`   // daily | weekly | monthly
	IsCompleted bool    `json:"is_completed"`
	CreatedAt   string  `json:"created_at"` // habits.created_at

	// CompletedDates is the full set of days this habit was marked done,
	// reconstructed from habit_completions on every read.
	CompletedDates []string `json:"completed_dates"`
}

// Frequency tags accepted on the wire. Anything else normalizes to daily.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// NormalizeFrequency maps an arbitrary client-supplied frequency onto one of
// the three known tags, defaulting to daily.
func NormalizeFrequency(s string) string {
	switch s {
	case FrequencyWeekly:
		return FrequencyWeekly
	case FrequencyMonthly:
		return FrequencyMonthly
	default:
		return FrequencyDaily
	}
}
