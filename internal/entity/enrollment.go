package entity

import "time"

type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "PENDING"
	EnrollmentAccepted EnrollmentStatus = "ACCEPTED"
	EnrollmentRejected EnrollmentStatus = "REJECTED"
)

func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentPending, EnrollmentAccepted, EnrollmentRejected:
		return true
	}
	return false
}

type Enrollment struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	EventID   int64            `json:"event_id" db:"event_id"`
	Status    EnrollmentStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

func (e *Enrollment) IsPending() bool  { return e.Status == EnrollmentPending }
func (e *Enrollment) IsAccepted() bool { return e.Status == EnrollmentAccepted }

// EnrollmentWithUser is an enrollment joined with its attendee account,
// used on the host's attendee-management views.
type EnrollmentWithUser struct {
	Enrollment
	Username  string `json:"username" db:"username"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Picture   string `json:"picture,omitempty" db:"picture"`
}
