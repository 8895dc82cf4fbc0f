package repository

import (
	"context"
	"time"

	"github.com/eventshow/eventshow/internal/entity"
)

// EventFilter collects optional search criteria; zero values mean "any".
type EventFilter struct {
	Keyword       string
	CategoryID    int64
	Location      string
	DateFrom      time.Time
	DateTo        time.Time
	StartHour     int
	MinPriceCents int64
	MaxPriceCents int64
	OnlyUpcoming  bool
	Now           time.Time
	Limit         int
	Offset        int
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User, profile *entity.Profile) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id int64) error

	GetProfile(ctx context.Context, userID int64) (*entity.Profile, error)
	GetProfileByToken(ctx context.Context, token string) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, profile *entity.Profile) error
	AddEventpoints(ctx context.Context, userID int64, delta int64) error
}

type EventRepository interface {
	Create(ctx context.Context, event *entity.Event) error
	GetByID(ctx context.Context, id int64) (*entity.EventWithAttendance, error)
	Update(ctx context.Context, event *entity.Event) error
	Delete(ctx context.Context, id int64) error

	Search(ctx context.Context, filter *EventFilter) ([]*entity.EventWithAttendance, error)
	GetByHost(ctx context.Context, hostID int64) ([]*entity.EventWithAttendance, error)
	GetEnrolledByUser(ctx context.Context, userID int64) ([]*entity.EventWithAttendance, error)

	// Host-departure cleanup: future events beyond the cutoff are removed,
	// nearer ones are detached from the host.
	DeleteByHostAfter(ctx context.Context, hostID int64, after time.Time) (int64, error)
	DetachHost(ctx context.Context, hostID int64) (int64, error)

	// GetFinishedUnsettled returns events whose day has passed and whose
	// transactions still await host payout.
	GetFinishedUnsettled(ctx context.Context, before time.Time, limit int) ([]*entity.Event, error)
}

type EnrollmentRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Enrollment, error)
	GetByEventAndUser(ctx context.Context, eventID, userID int64) (*entity.Enrollment, error)
	GetByEvent(ctx context.Context, eventID int64) ([]*entity.EnrollmentWithUser, error)
	GetByEventAndStatus(ctx context.Context, eventID int64, status entity.EnrollmentStatus) ([]*entity.EnrollmentWithUser, error)
	UpdateStatus(ctx context.Context, id int64, status entity.EnrollmentStatus) error
	Delete(ctx context.Context, id int64) error
	CountAttendees(ctx context.Context, eventID int64) (int, error)

	// EnrollAtomic re-checks capacity and uniqueness inside one transaction,
	// inserts the enrollment and its payment record, and settles the
	// buyer's point accounting.
	EnrollAtomic(ctx context.Context, params *EnrollParams) (*entity.Enrollment, error)
}

// EnrollParams carries everything EnrollAtomic writes in one transaction.
type EnrollParams struct {
	UserID         int64
	Event          *entity.Event
	TransactionID  string
	ChargeID       string
	AmountCents    int64
	Discount       int64
	PointsConsumed int64
	PointsAwarded  int64
}

type RatingRepository interface {
	Create(ctx context.Context, rating *entity.Rating) error
	Exists(ctx context.Context, reviewerID, reviewedID, eventID int64) (bool, error)
	GetByReviewed(ctx context.Context, reviewedID int64) ([]*entity.Rating, error)
	GetSummary(ctx context.Context, userID int64) (*entity.RatingSummary, error)
}

type TransactionRepository interface {
	GetByEventAndUser(ctx context.Context, eventID, userID int64) (*entity.Transaction, error)
	GetReceiptsByUser(ctx context.Context, userID int64) ([]*entity.Receipt, error)
	GetUnsettledByEvent(ctx context.Context, eventID int64) ([]*entity.Transaction, error)
	MarkPaidFor(ctx context.Context, ids []string) error

	// ReverseAndCredit flips the reversed flag and credits the consumed
	// points back in one database transaction, exactly once; a second
	// call reports entity.ErrAlreadyReversed without crediting again.
	ReverseAndCredit(ctx context.Context, id string) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetAll(ctx context.Context) ([]*entity.Category, error)
	GetByID(ctx context.Context, id int64) (*entity.Category, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetLatestForUser(ctx context.Context, userID int64) ([]*entity.Message, error)
}
