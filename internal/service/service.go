package service

import (
	"context"
	"time"

	"github.com/eventshow/eventshow/internal/entity"
)

// Clock supplies the current time so request handling and tests can pin it.
type Clock func() time.Time

type UserService interface {
	SignUp(ctx context.Context, req *SignUpRequest) (*entity.User, error)
	Login(ctx context.Context, req *LoginRequest) (string, error)
	GetUser(ctx context.Context, id int64) (*entity.UserWithProfile, error)
	GetProfile(ctx context.Context, userID int64) (*entity.UserWithProfile, error)
	UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*entity.Profile, error)
	DeleteAccount(ctx context.Context, userID int64) error
	GetReceipts(ctx context.Context, userID int64) ([]*entity.Receipt, error)
}

type EventService interface {
	CreateEvent(ctx context.Context, hostID int64, req *CreateEventRequest) (*entity.Event, error)
	GetEvent(ctx context.Context, id int64) (*entity.EventWithAttendance, error)
	UpdateEvent(ctx context.Context, hostID, id int64, req *UpdateEventRequest) (*entity.Event, error)
	DeleteEvent(ctx context.Context, hostID, id int64) error

	SearchEvents(ctx context.Context, req *SearchEventsRequest) ([]*entity.EventWithAttendance, error)
	NearbyEvents(ctx context.Context, req *NearbyEventsRequest) ([]*entity.EventWithAttendance, error)
	GetHostedEvents(ctx context.Context, hostID int64) ([]*entity.EventWithAttendance, error)
	GetEnrolledEvents(ctx context.Context, userID int64) ([]*entity.EventWithAttendance, error)
	GetCategories(ctx context.Context) ([]*entity.Category, error)
}

type EnrollmentService interface {
	Enroll(ctx context.Context, userID, eventID int64) (*entity.Enrollment, error)
	CancelEnrollment(ctx context.Context, userID, enrollmentID int64) error
	UpdateStatus(ctx context.Context, hostID, enrollmentID int64, status entity.EnrollmentStatus) error
	GetAttendees(ctx context.Context, hostID, eventID int64) ([]*entity.EnrollmentWithUser, error)
	GetPendingEnrollments(ctx context.Context, hostID, eventID int64) ([]*entity.EnrollmentWithUser, error)
}

type RatingService interface {
	RateHost(ctx context.Context, reviewerID, eventID int64, req *RateRequest) (*entity.Rating, error)
	RateAttendee(ctx context.Context, reviewerID, eventID, attendeeID int64, req *RateRequest) (*entity.Rating, error)
	GetUserRatings(ctx context.Context, userID int64, role entity.RatingRole) ([]*entity.Rating, *entity.RatingSummary, error)
}

type MessageService interface {
	SendMessage(ctx context.Context, hostID, eventID int64, req *SendMessageRequest) (*entity.Message, error)
	GetLatestMessages(ctx context.Context, userID int64) ([]*entity.Message, error)
}

type SignUpRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=150"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Birthdate   string `json:"birthdate" binding:"required"`
	FriendToken string `json:"friend_token"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Location  *string `json:"location"`
	Picture   *string `json:"picture"`
	Bio       *string `json:"bio"`
}

type CreateEventRequest struct {
	CategoryID  int64  `json:"category_id" binding:"required"`
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location" binding:"required"`
	Picture     string `json:"picture"`
	Language    string `json:"language"`
	Pets        bool   `json:"pets"`
	ParkingNear bool   `json:"parking_nearby"`
	ExtraInfo   string `json:"extra_info"`
	PriceCents  int64  `json:"price_cents" binding:"min=0"`
	Capacity    int    `json:"capacity" binding:"required,min=1"`
	MinAge      int    `json:"min_age" binding:"min=0"`
}

type UpdateEventRequest struct {
	CategoryID  *int64  `json:"category_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Location    *string `json:"location"`
	Picture     *string `json:"picture"`
	Language    *string `json:"language"`
	Pets        *bool   `json:"pets"`
	ParkingNear *bool   `json:"parking_nearby"`
	ExtraInfo   *string `json:"extra_info"`
	PriceCents  *int64  `json:"price_cents"`
	Capacity    *int    `json:"capacity"`
	MinAge      *int    `json:"min_age"`
}

type SearchEventsRequest struct {
	Keyword   string `form:"q"`
	City      string `form:"city"`
	Category  int64  `form:"category"`
	Date      string `form:"date"`
	StartHour int    `form:"start_hour"`
	MinPrice  int64  `form:"min_price"`
	MaxPrice  int64  `form:"max_price"`
	Upcoming  bool   `form:"upcoming"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

type NearbyEventsRequest struct {
	Origin       string `form:"origin" binding:"required"`
	RadiusMeters int64  `form:"radius"`
	Limit        int    `form:"limit"`
}

type RateRequest struct {
	Score   int    `json:"score" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type SendMessageRequest struct {
	Subject string `json:"subject" binding:"required,max=255"`
	Body    string `json:"body" binding:"required"`
}
