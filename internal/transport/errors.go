package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventshow/eventshow/internal/entity"
)

// respondError maps service sentinels onto HTTP status codes and writes
// the error body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, entity.ErrEventNotFound),
		errors.Is(err, entity.ErrEnrollmentNotFound),
		errors.Is(err, entity.ErrUserNotFound),
		errors.Is(err, entity.ErrProfileNotFound),
		errors.Is(err, entity.ErrCategoryNotFound),
		errors.Is(err, entity.ErrTransactionNotFound):
		status = http.StatusNotFound

	case errors.Is(err, entity.ErrForbidden),
		errors.Is(err, entity.ErrOwnEvent),
		errors.Is(err, entity.ErrTooYoung),
		errors.Is(err, entity.ErrSelfRating),
		errors.Is(err, entity.ErrNotParticipant),
		errors.Is(err, entity.ErrEventLocked):
		status = http.StatusForbidden

	case errors.Is(err, entity.ErrUnauthorized),
		errors.Is(err, entity.ErrWrongCredentials):
		status = http.StatusUnauthorized

	case errors.Is(err, entity.ErrAlreadyEnrolled),
		errors.Is(err, entity.ErrDuplicateRating),
		errors.Is(err, entity.ErrUserAlreadyExists),
		errors.Is(err, entity.ErrAlreadyReversed):
		status = http.StatusConflict

	case errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrInvalidToken),
		errors.Is(err, entity.ErrInvalidScore),
		errors.Is(err, entity.ErrInvalidStatus),
		errors.Is(err, entity.ErrInvalidEmail),
		errors.Is(err, entity.ErrEventDatePast),
		errors.Is(err, entity.ErrEventTimeOrder),
		errors.Is(err, entity.ErrEventFull),
		errors.Is(err, entity.ErrEventStarted),
		errors.Is(err, entity.ErrEventNotOver):
		status = http.StatusBadRequest

	case errors.Is(err, entity.ErrPaymentFailed):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
