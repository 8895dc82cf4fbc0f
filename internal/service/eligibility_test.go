package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eventshow/eventshow/internal/entity"
)

func testEvent(hostID int64, date time.Time) *entity.Event {
	return &entity.Event{
		ID:         1,
		HostID:     &hostID,
		Title:      "Board game night",
		Date:       entity.DateOnly{Time: date},
		StartTime:  entity.ClockTime{Time: time.Date(0, 1, 1, 19, 0, 0, 0, time.UTC)},
		PriceCents: 2000,
		Capacity:   10,
		MinAge:     18,
	}
}

func TestCanEnroll(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		event           *entity.Event
		userID          int64
		age             int
		acceptedCount   int
		alreadyEnrolled bool
		wantErr         error
	}{
		{
			name:   "eligible attendee",
			event:  testEvent(1, future),
			userID: 2,
			age:    25,
		},
		{
			name:            "duplicate enrollment",
			event:           testEvent(1, future),
			userID:          2,
			age:             25,
			alreadyEnrolled: true,
			wantErr:         entity.ErrAlreadyEnrolled,
		},
		{
			name:    "host enrolling in own event",
			event:   testEvent(2, future),
			userID:  2,
			age:     25,
			wantErr: entity.ErrOwnEvent,
		},
		{
			name:    "attendee below minimum age",
			event:   testEvent(1, future),
			userID:  2,
			age:     17,
			wantErr: entity.ErrTooYoung,
		},
		{
			name:          "event at capacity",
			event:         testEvent(1, future),
			userID:        2,
			age:           25,
			acceptedCount: 10,
			wantErr:       entity.ErrEventFull,
		},
		{
			name:    "event already started",
			event:   testEvent(1, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)),
			userID:  2,
			age:     25,
			wantErr: entity.ErrEventStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanEnroll(tt.event, tt.userID, tt.age, tt.acceptedCount, tt.alreadyEnrolled, now)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// A full event rejects everyone, including users the age or ownership
// checks would also refuse for their own reasons later in the chain.
func TestCanEnrollFullEventRejectsRegardless(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := testEvent(1, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))
	event.Capacity = 2

	err := CanEnroll(event, 2, 17, 2, false, now)
	assert.ErrorIs(t, err, entity.ErrTooYoung)

	err = CanEnroll(event, 2, 30, 2, false, now)
	assert.ErrorIs(t, err, entity.ErrEventFull)
}

func TestCanUpdateEnrollment(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	pending := &entity.Enrollment{ID: 5, Status: entity.EnrollmentPending}
	accepted := &entity.Enrollment{ID: 5, Status: entity.EnrollmentAccepted}

	tests := []struct {
		name       string
		event      *entity.Event
		enrollment *entity.Enrollment
		hostID     int64
		status     entity.EnrollmentStatus
		wantErr    error
	}{
		{
			name:       "host accepts pending enrollment",
			event:      testEvent(1, future),
			enrollment: pending,
			hostID:     1,
			status:     entity.EnrollmentAccepted,
		},
		{
			name:       "host rejects pending enrollment",
			event:      testEvent(1, future),
			enrollment: pending,
			hostID:     1,
			status:     entity.EnrollmentRejected,
		},
		{
			name:       "non-host is refused",
			event:      testEvent(1, future),
			enrollment: pending,
			hostID:     7,
			status:     entity.EnrollmentAccepted,
			wantErr:    entity.ErrForbidden,
		},
		{
			name:       "already decided enrollment",
			event:      testEvent(1, future),
			enrollment: accepted,
			hostID:     1,
			status:     entity.EnrollmentRejected,
			wantErr:    entity.ErrInvalidStatus,
		},
		{
			name:       "cannot set status back to pending",
			event:      testEvent(1, future),
			enrollment: pending,
			hostID:     1,
			status:     entity.EnrollmentPending,
			wantErr:    entity.ErrInvalidStatus,
		},
		{
			name:       "event already started",
			event:      testEvent(1, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
			enrollment: pending,
			hostID:     1,
			status:     entity.EnrollmentAccepted,
			wantErr:    entity.ErrEventStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanUpdateEnrollment(tt.event, tt.enrollment, tt.hostID, tt.status, now)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanCancelEnrollment(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	enrollment := &entity.Enrollment{ID: 5, UserID: 2, Status: entity.EnrollmentAccepted}

	tests := []struct {
		name    string
		event   *entity.Event
		userID  int64
		wantErr error
	}{
		{
			name:   "attendee withdraws before the event",
			event:  testEvent(1, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)),
			userID: 2,
		},
		{
			name:    "someone else's enrollment",
			event:   testEvent(1, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)),
			userID:  7,
			wantErr: entity.ErrForbidden,
		},
		{
			name:    "event already started",
			event:   testEvent(1, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
			userID:  2,
			wantErr: entity.ErrEventStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanCancelEnrollment(tt.event, enrollment, tt.userID, now)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanRateHost(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := testEvent(1, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC))
	upcoming := testEvent(1, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))
	detached := testEvent(1, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC))
	detached.HostID = nil

	tests := []struct {
		name         string
		event        *entity.Event
		reviewerID   int64
		attended     bool
		alreadyRated bool
		wantErr      error
	}{
		{
			name:       "attendee rates finished event",
			event:      finished,
			reviewerID: 2,
			attended:   true,
		},
		{
			name:       "event has no host anymore",
			event:      detached,
			reviewerID: 2,
			attended:   true,
			wantErr:    entity.ErrUserNotFound,
		},
		{
			name:       "host cannot rate themselves",
			event:      finished,
			reviewerID: 1,
			attended:   true,
			wantErr:    entity.ErrSelfRating,
		},
		{
			name:       "reviewer who did not attend",
			event:      finished,
			reviewerID: 2,
			wantErr:    entity.ErrNotParticipant,
		},
		{
			name:       "event not over yet",
			event:      upcoming,
			reviewerID: 2,
			attended:   true,
			wantErr:    entity.ErrEventNotOver,
		},
		{
			name:         "second rating for the same event",
			event:        finished,
			reviewerID:   2,
			attended:     true,
			alreadyRated: true,
			wantErr:      entity.ErrDuplicateRating,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanRateHost(tt.event, tt.reviewerID, tt.attended, tt.alreadyRated, now)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanRateAttendee(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := testEvent(1, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name         string
		hostID       int64
		attendeeID   int64
		accepted     bool
		alreadyRated bool
		wantErr      error
	}{
		{
			name:       "host rates accepted attendee",
			hostID:     1,
			attendeeID: 2,
			accepted:   true,
		},
		{
			name:       "non-host is refused",
			hostID:     7,
			attendeeID: 2,
			accepted:   true,
			wantErr:    entity.ErrForbidden,
		},
		{
			name:       "attendee never accepted",
			hostID:     1,
			attendeeID: 2,
			wantErr:    entity.ErrNotParticipant,
		},
		{
			name:         "duplicate rating",
			hostID:       1,
			attendeeID:   2,
			accepted:     true,
			alreadyRated: true,
			wantErr:      entity.ErrDuplicateRating,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanRateAttendee(finished, tt.hostID, tt.attendeeID, tt.accepted, tt.alreadyRated, now)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
