package transport

import (
	"github.com/gin-gonic/gin"

	"github.com/eventshow/eventshow/internal/transport/middleware"
)

type Handlers struct {
	Auth       *AuthHandler
	Event      *EventHandler
	Enrollment *EnrollmentHandler
	Rating     *RatingHandler
	Profile    *ProfileHandler
	Message    *MessageHandler
}

func InitRoutes(h *Handlers, jwtSecret string) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := middleware.Auth(jwtSecret)

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/auth/signup", h.Auth.SignUp)
		api.POST("/auth/login", h.Auth.Login)

		api.GET("/categories", h.Event.GetCategories)

		events := api.Group("/events")
		{
			events.GET("", h.Event.SearchEvents)
			events.GET("/nearby", h.Event.NearbyEvents)
			events.GET("/hosted", auth, h.Event.GetHostedEvents)
			events.GET("/enrolled", auth, h.Event.GetEnrolledEvents)
			events.GET("/:id", h.Event.GetEvent)
			events.POST("", auth, h.Event.CreateEvent)
			events.PUT("/:id", auth, h.Event.UpdateEvent)
			events.DELETE("/:id", auth, h.Event.DeleteEvent)

			events.GET("/:id/attendees", auth, h.Enrollment.GetAttendees)
			events.GET("/:id/enrollments", auth, h.Enrollment.GetPendingEnrollments)
			events.POST("/:id/enroll", auth, h.Enrollment.Enroll)
			events.POST("/:id/messages", auth, h.Message.SendMessage)
		}

		api.PUT("/enrollments/:id", auth, h.Enrollment.UpdateStatus)
		api.DELETE("/enrollments/:id", auth, h.Enrollment.CancelEnrollment)

		ratings := api.Group("/ratings", auth)
		{
			ratings.POST("/host/:event_id", h.Rating.RateHost)
			ratings.POST("/attendee/:event_id/:attendee_id", h.Rating.RateAttendee)
		}

		api.GET("/users/:id/ratings", h.Rating.GetUserRatings)

		profile := api.Group("/profile", auth)
		{
			profile.GET("", h.Profile.GetProfile)
			profile.PUT("", h.Profile.UpdateProfile)
			profile.DELETE("", h.Profile.DeleteAccount)
			profile.GET("/receipts", h.Profile.GetReceipts)
		}

		api.GET("/messages/latest", auth, h.Message.GetLatestMessages)
	}

	return router
}
