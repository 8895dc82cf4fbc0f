package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eventshow/eventshow/config"
	repository "github.com/eventshow/eventshow/internal/database/postgres"
	"github.com/eventshow/eventshow/internal/entity"
	"github.com/eventshow/eventshow/pkg/payment"
)

type enrollmentService struct {
	enrollmentRepo  repository.EnrollmentRepository
	eventRepo       repository.EventRepository
	userRepo        repository.UserRepository
	transactionRepo repository.TransactionRepository
	queue           TaskPublisher
	provider        payment.Provider
	referralCfg     config.ReferralConfig
	log             *logrus.Logger
	now             Clock
}

func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	transactionRepo repository.TransactionRepository,
	queue TaskPublisher,
	provider payment.Provider,
	referralCfg config.ReferralConfig,
	log *logrus.Logger,
	now Clock,
) EnrollmentService {
	if now == nil {
		now = time.Now
	}
	return &enrollmentService{
		enrollmentRepo:  enrollmentRepo,
		eventRepo:       eventRepo,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		queue:           queue,
		provider:        provider,
		referralCfg:     referralCfg,
		log:             log,
		now:             now,
	}
}

// Enroll charges the attendee and records the enrollment. The charge
// happens before the database write; if the write then fails, the charge
// is refunded best-effort so money and state cannot drift apart silently.
func (s *enrollmentService) Enroll(ctx context.Context, userID, eventID int64) (*entity.Enrollment, error) {
	existing, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	event := &existing.Event

	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	alreadyEnrolled := false
	if _, err := s.enrollmentRepo.GetByEventAndUser(ctx, eventID, userID); err == nil {
		alreadyEnrolled = true
	}

	if err := CanEnroll(event, userID, profile.Age(now), existing.AttendeeCount, alreadyEnrolled, now); err != nil {
		return nil, err
	}

	quote := QuoteFee(event.PriceCents, profile.Eventpoints, s.referralCfg.PointValueCents)
	total := event.PriceCents + quote.FeeCents

	var chargeID string
	if total > 0 {
		desc := fmt.Sprintf("enrollment for event %d", eventID)
		chargeID, err = s.provider.Charge(ctx, profile.PaymentCustomerID, total, desc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrPaymentFailed, err)
		}
	}

	enrollment, err := s.enrollmentRepo.EnrollAtomic(ctx, &repository.EnrollParams{
		UserID:         userID,
		Event:          event,
		TransactionID:  uuid.NewString(),
		ChargeID:       chargeID,
		AmountCents:    total,
		Discount:       quote.DiscountCents,
		PointsConsumed: quote.PointsConsumed,
		PointsAwarded:  PurchasePoints(total),
	})
	if err != nil {
		if chargeID != "" {
			if refundErr := s.provider.Refund(ctx, chargeID); refundErr != nil {
				s.log.WithError(refundErr).WithFields(logrus.Fields{
					"charge_id": chargeID,
					"user_id":   userID,
					"event_id":  eventID,
				}).Error("compensating refund failed, charge is orphaned")
			}
		}
		return nil, err
	}

	s.publishEmail(ctx, "enrollment_email", map[string]interface{}{
		"user_id":     userID,
		"event_id":    eventID,
		"event_title": event.Title,
	})

	s.log.WithFields(logrus.Fields{
		"enrollment_id": enrollment.ID,
		"user_id":       userID,
		"event_id":      eventID,
		"amount_cents":  total,
	}).Info("enrollment created")

	return enrollment, nil
}

func (s *enrollmentService) UpdateStatus(ctx context.Context, hostID, enrollmentID int64, status entity.EnrollmentStatus) error {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return err
	}

	existing, err := s.eventRepo.GetByID(ctx, enrollment.EventID)
	if err != nil {
		return err
	}
	event := &existing.Event

	if err := CanUpdateEnrollment(event, enrollment, hostID, status, s.now()); err != nil {
		return err
	}

	if status == entity.EnrollmentAccepted && existing.AttendeeCount >= event.Capacity {
		return entity.ErrEventFull
	}

	if err := s.enrollmentRepo.UpdateStatus(ctx, enrollmentID, status); err != nil {
		return err
	}

	// A rejected attendee gets their money and points back; the open
	// transaction must not linger or settlement would pay it to the host.
	if status == entity.EnrollmentRejected {
		s.reverseUserTransaction(ctx, event.ID, enrollment.UserID)
	}

	s.publishEmail(ctx, "status_email", map[string]interface{}{
		"user_id":     enrollment.UserID,
		"event_id":    event.ID,
		"event_title": event.Title,
		"status":      string(status),
	})

	return nil
}

// CancelEnrollment lets an attendee withdraw before the event starts.
// The withdrawal reverses the payment record, restores the consumed
// points, refunds the charge, and removes the enrollment.
func (s *enrollmentService) CancelEnrollment(ctx context.Context, userID, enrollmentID int64) error {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return err
	}

	existing, err := s.eventRepo.GetByID(ctx, enrollment.EventID)
	if err != nil {
		return err
	}

	if err := CanCancelEnrollment(&existing.Event, enrollment, userID, s.now()); err != nil {
		return err
	}

	s.reverseUserTransaction(ctx, enrollment.EventID, userID)

	if err := s.enrollmentRepo.Delete(ctx, enrollmentID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"enrollment_id": enrollmentID,
		"user_id":       userID,
		"event_id":      enrollment.EventID,
	}).Info("enrollment cancelled")

	return nil
}

// reverseUserTransaction reverses the attendee's open transaction for an
// event and refunds the charge. A missing or already reversed transaction
// is fine: free enrollments have nothing to give back, and reversal is
// idempotent.
func (s *enrollmentService) reverseUserTransaction(ctx context.Context, eventID, userID int64) {
	t, err := s.transactionRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if err != entity.ErrTransactionNotFound {
			s.log.WithError(err).WithFields(logrus.Fields{
				"event_id": eventID,
				"user_id":  userID,
			}).Error("failed to look up transaction for reversal")
		}
		return
	}

	if err := s.transactionRepo.ReverseAndCredit(ctx, t.ID); err != nil {
		if err != entity.ErrAlreadyReversed {
			s.log.WithError(err).WithField("transaction_id", t.ID).
				Error("failed to reverse transaction")
		}
		return
	}

	if t.ChargeID != "" {
		if err := s.provider.Refund(ctx, t.ChargeID); err != nil {
			s.log.WithError(err).WithField("charge_id", t.ChargeID).
				Error("failed to refund charge")
		}
	}
}

func (s *enrollmentService) GetAttendees(ctx context.Context, hostID, eventID int64) ([]*entity.EnrollmentWithUser, error) {
	existing, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !existing.IsHostedBy(hostID) {
		return nil, entity.ErrForbidden
	}

	return s.enrollmentRepo.GetByEventAndStatus(ctx, eventID, entity.EnrollmentAccepted)
}

func (s *enrollmentService) GetPendingEnrollments(ctx context.Context, hostID, eventID int64) ([]*entity.EnrollmentWithUser, error) {
	existing, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !existing.IsHostedBy(hostID) {
		return nil, entity.ErrForbidden
	}

	return s.enrollmentRepo.GetByEventAndStatus(ctx, eventID, entity.EnrollmentPending)
}

func (s *enrollmentService) publishEmail(ctx context.Context, taskType string, data map[string]interface{}) {
	task := &Task{
		ID:   uuid.NewString(),
		Type: taskType,
		Data: data,
	}
	if err := s.queue.Publish(ctx, task); err != nil {
		s.log.WithError(err).WithField("task_type", taskType).
			Warn("failed to queue notification")
	}
}
