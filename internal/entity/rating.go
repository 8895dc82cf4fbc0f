package entity

import "time"

type RatingRole string

const (
	RoleHost     RatingRole = "HOST"
	RoleAttendee RatingRole = "ATTENDEE"
)

type Rating struct {
	ID         int64      `json:"id" db:"id"`
	ReviewerID int64      `json:"reviewer_id" db:"reviewer_id"`
	ReviewedID int64      `json:"reviewed_id" db:"reviewed_id"`
	EventID    int64      `json:"event_id" db:"event_id"`
	Score      int        `json:"score" db:"score"`
	Comment    string     `json:"comment,omitempty" db:"comment"`
	Role       RatingRole `json:"role" db:"role"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

const (
	MinScore = 1
	MaxScore = 5
)

func (r *Rating) ValidScore() bool {
	return r.Score >= MinScore && r.Score <= MaxScore
}

// RatingSummary aggregates received ratings for a user.
type RatingSummary struct {
	UserID  int64   `json:"user_id"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
