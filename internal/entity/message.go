package entity

import "time"

// Message is a broadcast note from a host to an event's attendees.
// Only the latest message per event is surfaced to readers.
type Message struct {
	ID        int64     `json:"id" db:"id"`
	EventID   int64     `json:"event_id" db:"event_id"`
	Subject   string    `json:"subject" db:"subject"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
