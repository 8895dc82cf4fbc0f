package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventshow/eventshow/internal/entity"
	"github.com/eventshow/eventshow/internal/service"
	"github.com/eventshow/eventshow/internal/transport/middleware"
)

type RatingHandler struct {
	ratingService service.RatingService
}

func NewRatingHandler(ratingService service.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

func (h *RatingHandler) RateHost(c *gin.Context) {
	reviewerID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	eventID, err := parseID(c, "event_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req service.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rating, err := h.ratingService.RateHost(c.Request.Context(), reviewerID, eventID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rating)
}

func (h *RatingHandler) RateAttendee(c *gin.Context) {
	reviewerID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	eventID, err := parseID(c, "event_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	attendeeID, err := parseID(c, "attendee_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attendee id"})
		return
	}

	var req service.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rating, err := h.ratingService.RateAttendee(c.Request.Context(), reviewerID, eventID, attendeeID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rating)
}

func (h *RatingHandler) GetUserRatings(c *gin.Context) {
	userID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	role := entity.RatingRole(c.Query("role"))
	if role != "" && role != entity.RoleHost && role != entity.RoleAttendee {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be HOST or ATTENDEE"})
		return
	}

	ratings, summary, err := h.ratingService.GetUserRatings(c.Request.Context(), userID, role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ratings": ratings,
		"summary": summary,
	})
}
