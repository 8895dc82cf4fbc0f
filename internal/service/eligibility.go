package service

import (
	"time"

	"github.com/eventshow/eventshow/internal/entity"
)

// Eligibility predicates are pure: they decide over already-fetched state
// and return the sentinel error that explains the refusal.

// CanEnroll reports whether a user may enroll in an event.
func CanEnroll(event *entity.Event, userID int64, age int, acceptedCount int, alreadyEnrolled bool, now time.Time) error {
	if alreadyEnrolled {
		return entity.ErrAlreadyEnrolled
	}
	if event.IsHostedBy(userID) {
		return entity.ErrOwnEvent
	}
	if age < event.MinAge {
		return entity.ErrTooYoung
	}
	if acceptedCount >= event.Capacity {
		return entity.ErrEventFull
	}
	if event.HasStarted(now) {
		return entity.ErrEventStarted
	}
	return nil
}

// CanUpdateEnrollment reports whether a host may change an enrollment's status.
func CanUpdateEnrollment(event *entity.Event, enrollment *entity.Enrollment, hostID int64, status entity.EnrollmentStatus, now time.Time) error {
	if !event.IsHostedBy(hostID) {
		return entity.ErrForbidden
	}
	if !enrollment.IsPending() {
		return entity.ErrInvalidStatus
	}
	if status != entity.EnrollmentAccepted && status != entity.EnrollmentRejected {
		return entity.ErrInvalidStatus
	}
	if event.HasStarted(now) {
		return entity.ErrEventStarted
	}
	return nil
}

// CanCancelEnrollment reports whether an attendee may withdraw their own
// enrollment. Only the enrolled user can cancel, and only before the
// event starts.
func CanCancelEnrollment(event *entity.Event, enrollment *entity.Enrollment, userID int64, now time.Time) error {
	if enrollment.UserID != userID {
		return entity.ErrForbidden
	}
	if event.HasStarted(now) {
		return entity.ErrEventStarted
	}
	return nil
}

// CanRateHost reports whether an attendee may rate the event's host.
func CanRateHost(event *entity.Event, reviewerID int64, attended bool, alreadyRated bool, now time.Time) error {
	if event.HostID == nil {
		return entity.ErrUserNotFound
	}
	if *event.HostID == reviewerID {
		return entity.ErrSelfRating
	}
	if !attended {
		return entity.ErrNotParticipant
	}
	if !event.HasFinished(now) {
		return entity.ErrEventNotOver
	}
	if alreadyRated {
		return entity.ErrDuplicateRating
	}
	return nil
}

// CanRateAttendee reports whether the host may rate an accepted attendee.
func CanRateAttendee(event *entity.Event, hostID, attendeeID int64, attendeeAccepted bool, alreadyRated bool, now time.Time) error {
	if !event.IsHostedBy(hostID) {
		return entity.ErrForbidden
	}
	if hostID == attendeeID {
		return entity.ErrSelfRating
	}
	if !attendeeAccepted {
		return entity.ErrNotParticipant
	}
	if !event.HasFinished(now) {
		return entity.ErrEventNotOver
	}
	if alreadyRated {
		return entity.ErrDuplicateRating
	}
	return nil
}
