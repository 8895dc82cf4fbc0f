package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/eventshow/eventshow/internal/entity"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err        error
		wantStatus int
	}{
		{entity.ErrEventNotFound, http.StatusNotFound},
		{entity.ErrUserNotFound, http.StatusNotFound},
		{entity.ErrOwnEvent, http.StatusForbidden},
		{entity.ErrTooYoung, http.StatusForbidden},
		{entity.ErrEventLocked, http.StatusForbidden},
		{entity.ErrWrongCredentials, http.StatusUnauthorized},
		{entity.ErrAlreadyEnrolled, http.StatusConflict},
		{entity.ErrUserAlreadyExists, http.StatusConflict},
		{entity.ErrDuplicateRating, http.StatusConflict},
		{entity.ErrEventFull, http.StatusBadRequest},
		{entity.ErrEventDatePast, http.StatusBadRequest},
		{entity.ErrEventNotOver, http.StatusBadRequest},
		{entity.ErrPaymentFailed, http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
		// wrapped sentinels keep their mapping
		{fmt.Errorf("%w: card declined", entity.ErrPaymentFailed), http.StatusBadGateway},
		{fmt.Errorf("%w: capacity must be at least 1", entity.ErrInvalidInput), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}
