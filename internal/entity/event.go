package entity

import (
	"time"
)

// ModifyCutoffDays is how far before the start date an event can still
// be updated or deleted by its host.
const ModifyCutoffDays = 4

type Event struct {
	ID          int64      `json:"id" db:"id"`
	HostID      *int64     `json:"host_id" db:"host_id"`
	CategoryID  int64      `json:"category_id" db:"category_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Date        DateOnly   `json:"date" db:"date"`
	StartTime   ClockTime  `json:"start_time" db:"start_time"`
	EndTime     *ClockTime `json:"end_time,omitempty" db:"end_time"`
	Location    string     `json:"location" db:"location"`
	Picture     string     `json:"picture,omitempty" db:"picture"`
	Language    string     `json:"language,omitempty" db:"language"`
	Pets        bool       `json:"pets" db:"pets"`
	ParkingNear bool       `json:"parking_nearby" db:"parking_nearby"`
	ExtraInfo   string     `json:"extra_info,omitempty" db:"extra_info"`
	PriceCents  int64      `json:"price_cents" db:"price_cents"`
	Capacity    int        `json:"capacity" db:"capacity"`
	MinAge      int        `json:"min_age" db:"min_age"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type EventWithAttendance struct {
	Event
	AttendeeCount int `json:"attendee_count"`
	FreeSeats     int `json:"free_seats"`
}

// StartAt combines the event date and start time into a single instant.
func (e *Event) StartAt() time.Time {
	d := e.Date.Time
	t := e.StartTime.Time
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// EndAt combines the event date and end time. The second return value
// is false when the event has no end time set.
func (e *Event) EndAt() (time.Time, bool) {
	if e.EndTime == nil {
		return time.Time{}, false
	}
	d := e.Date.Time
	t := e.EndTime.Time
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), true
}

func (e *Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartAt())
}

// HasFinished reports whether the event is over. Events without an end
// time finish at the end of their calendar day.
func (e *Event) HasFinished(now time.Time) bool {
	if end, ok := e.EndAt(); ok {
		return now.After(end)
	}
	d := e.Date.Time
	dayEnd := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC)
	return now.After(dayEnd)
}

// CanModify reports whether the host may still update or delete the
// event: the start date must be more than ModifyCutoffDays away.
func (e *Event) CanModify(now time.Time) bool {
	cutoff := now.AddDate(0, 0, ModifyCutoffDays)
	return e.Date.Time.After(cutoff)
}

func (e *Event) IsHostedBy(userID int64) bool {
	return e.HostID != nil && *e.HostID == userID
}
