package entity

import "errors"

var (
	// Event errors
	ErrEventNotFound    = errors.New("event not found")
	ErrEventFull        = errors.New("event is full")
	ErrEventStarted     = errors.New("event has already started")
	ErrEventNotOver     = errors.New("event has not finished yet")
	ErrEventDatePast    = errors.New("event cannot start in the past")
	ErrEventTimeOrder   = errors.New("event end time must be after start time")
	ErrEventLocked      = errors.New("event can no longer be modified")
	ErrCategoryNotFound = errors.New("category not found")

	// Enrollment errors
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this event")
	ErrNotEnrolled        = errors.New("not enrolled in this event")
	ErrOwnEvent           = errors.New("hosts cannot enroll in their own events")
	ErrTooYoung           = errors.New("attendee is below the event's minimum age")
	ErrInvalidStatus      = errors.New("invalid enrollment status")

	// Rating errors
	ErrDuplicateRating = errors.New("this participant has already been rated for this event")
	ErrSelfRating      = errors.New("users cannot rate themselves")
	ErrInvalidScore    = errors.New("score must be between 1 and 5")
	ErrNotParticipant  = errors.New("user did not take part in this event")

	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrInvalidToken      = errors.New("invalid referral token")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrWrongCredentials  = errors.New("wrong username or password")

	// Payment errors
	ErrPaymentFailed       = errors.New("payment provider rejected the charge")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyReversed     = errors.New("transaction already reversed")

	// General errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabaseError = errors.New("database error")
	ErrUnauthorized  = errors.New("unauthorized access")
	ErrForbidden     = errors.New("forbidden operation")
)
