package model

// Event represents a single calendar entry owned by a user. EventDate is a
// "YYYY-MM-DD" string; EventTime is "HH:MM" (24h) or nil when the event has
// no time of day.
type Event struct {
	ID          uint64  `json:"id"`          // events.id
	UserID      uint64  `json:"-"`           // events.user_id (never exposed)
	Title       string  `json:"title"`       // events.title
	Description *string `json:"description"` // events.description (nullable)
	EventDate   string  `json:"event_date"`  // events.event_date, "YYYY-MM-DD"
	EventTime   *string `json:"event_time"`  // events.event_time, "HH:MM" or null
	CreatedAt   string  `json:"created_at"`  // events.created_at
}
