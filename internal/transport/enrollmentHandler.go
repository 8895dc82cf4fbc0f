package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventshow/eventshow/internal/entity"
	"github.com/eventshow/eventshow/internal/service"
	"github.com/eventshow/eventshow/internal/transport/middleware"
)

type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	eventID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), userID, eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

func (h *EnrollmentHandler) CancelEnrollment(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	enrollmentID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enrollment id"})
		return
	}

	if err := h.enrollmentService.CancelEnrollment(c.Request.Context(), userID, enrollmentID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	hostID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	enrollmentID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enrollment id"})
		return
	}

	var req struct {
		Status entity.EnrollmentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.enrollmentService.UpdateStatus(c.Request.Context(), hostID, enrollmentID, req.Status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (h *EnrollmentHandler) GetAttendees(c *gin.Context) {
	hostID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	eventID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	attendees, err := h.enrollmentService.GetAttendees(c.Request.Context(), hostID, eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, attendees)
}

func (h *EnrollmentHandler) GetPendingEnrollments(c *gin.Context) {
	hostID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	eventID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	enrollments, err := h.enrollmentService.GetPendingEnrollments(c.Request.Context(), hostID, eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}
