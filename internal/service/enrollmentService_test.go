package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventshow/eventshow/config"
	repository "github.com/eventshow/eventshow/internal/database/postgres"
	"github.com/eventshow/eventshow/internal/entity"
)

// Fakes embed the repository interfaces and override only what the flow
// under test touches; an unexpected call panics on the nil embed.

type fakeEventRepo struct {
	repository.EventRepository
	events map[int64]*entity.EventWithAttendance
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int64) (*entity.EventWithAttendance, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, entity.ErrEventNotFound
	}
	return event, nil
}

type fakeUserRepo struct {
	repository.UserRepository
	profiles map[int64]*entity.Profile
}

func (f *fakeUserRepo) GetProfile(ctx context.Context, userID int64) (*entity.Profile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, entity.ErrProfileNotFound
	}
	return profile, nil
}

type fakeEnrollmentRepo struct {
	repository.EnrollmentRepository
	enrollments map[int64]*entity.Enrollment
	enrollErr   error
	lastParams  *repository.EnrollParams
}

func (f *fakeEnrollmentRepo) GetByEventAndUser(ctx context.Context, eventID, userID int64) (*entity.Enrollment, error) {
	for _, e := range f.enrollments {
		if e.EventID == eventID && e.UserID == userID {
			return e, nil
		}
	}
	return nil, entity.ErrEnrollmentNotFound
}

func (f *fakeEnrollmentRepo) GetByID(ctx context.Context, id int64) (*entity.Enrollment, error) {
	e, ok := f.enrollments[id]
	if !ok {
		return nil, entity.ErrEnrollmentNotFound
	}
	return e, nil
}

func (f *fakeEnrollmentRepo) UpdateStatus(ctx context.Context, id int64, status entity.EnrollmentStatus) error {
	e, ok := f.enrollments[id]
	if !ok {
		return entity.ErrEnrollmentNotFound
	}
	e.Status = status
	return nil
}

func (f *fakeEnrollmentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.enrollments[id]; !ok {
		return entity.ErrEnrollmentNotFound
	}
	delete(f.enrollments, id)
	return nil
}

func (f *fakeEnrollmentRepo) EnrollAtomic(ctx context.Context, params *repository.EnrollParams) (*entity.Enrollment, error) {
	f.lastParams = params
	if f.enrollErr != nil {
		return nil, f.enrollErr
	}
	enrollment := &entity.Enrollment{
		ID:      int64(len(f.enrollments) + 1),
		UserID:  params.UserID,
		EventID: params.Event.ID,
		Status:  entity.EnrollmentPending,
	}
	f.enrollments[enrollment.ID] = enrollment
	return enrollment, nil
}

type fakeTransactionRepo struct {
	repository.TransactionRepository
	transactions map[string]*entity.Transaction
	credited     map[int64]int64
}

func (f *fakeTransactionRepo) GetByEventAndUser(ctx context.Context, eventID, userID int64) (*entity.Transaction, error) {
	for _, t := range f.transactions {
		if t.EventID == eventID && t.UserID == userID {
			return t, nil
		}
	}
	return nil, entity.ErrTransactionNotFound
}

func (f *fakeTransactionRepo) ReverseAndCredit(ctx context.Context, id string) error {
	t, ok := f.transactions[id]
	if !ok {
		return entity.ErrTransactionNotFound
	}
	if t.Reversed {
		return entity.ErrAlreadyReversed
	}
	t.Reversed = true
	f.credited[t.UserID] += t.PointsConsumed
	return nil
}

type fakeProvider struct {
	chargeErr error
	charges   []int64
	refunds   []string
}

func (f *fakeProvider) Charge(ctx context.Context, customerID string, amountCents int64, description string) (string, error) {
	if f.chargeErr != nil {
		return "", f.chargeErr
	}
	f.charges = append(f.charges, amountCents)
	return "ch_test", nil
}

func (f *fakeProvider) Refund(ctx context.Context, chargeID string) error {
	f.refunds = append(f.refunds, chargeID)
	return nil
}

func (f *fakeProvider) Payout(ctx context.Context, accountID string, amountCents int64, description string) (string, error) {
	return "tr_test", nil
}

type fakePublisher struct {
	tasks []*Task
}

func (f *fakePublisher) Publish(ctx context.Context, task *Task) error {
	f.tasks = append(f.tasks, task)
	return nil
}

type enrollmentFixture struct {
	service      EnrollmentService
	events       *fakeEventRepo
	users        *fakeUserRepo
	enrollments  *fakeEnrollmentRepo
	transactions *fakeTransactionRepo
	provider     *fakeProvider
	publisher    *fakePublisher
	now          time.Time
}

func newEnrollmentFixture() *enrollmentFixture {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hostID := int64(1)

	f := &enrollmentFixture{
		events: &fakeEventRepo{events: map[int64]*entity.EventWithAttendance{
			10: {
				Event: entity.Event{
					ID:         10,
					HostID:     &hostID,
					Title:      "Wine tasting",
					Date:       entity.DateOnly{Time: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)},
					StartTime:  entity.ClockTime{Time: time.Date(0, 1, 1, 19, 0, 0, 0, time.UTC)},
					PriceCents: 4000,
					Capacity:   10,
					MinAge:     18,
				},
			},
		}},
		users: &fakeUserRepo{profiles: map[int64]*entity.Profile{
			2: {
				UserID:            2,
				Birthdate:         entity.DateOnly{Time: time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC)},
				PaymentCustomerID: "cus_test",
			},
		}},
		enrollments: &fakeEnrollmentRepo{enrollments: map[int64]*entity.Enrollment{}},
		transactions: &fakeTransactionRepo{
			transactions: map[string]*entity.Transaction{},
			credited:     map[int64]int64{},
		},
		provider:  &fakeProvider{},
		publisher: &fakePublisher{},
		now:       now,
	}

	f.service = NewEnrollmentService(
		f.enrollments, f.events, f.users, f.transactions, f.publisher, f.provider,
		config.ReferralConfig{BonusPoints: 100, PointValueCents: 1},
		logrus.New(), func() time.Time { return now },
	)
	return f
}

func TestEnroll(t *testing.T) {
	f := newEnrollmentFixture()

	enrollment, err := f.service.Enroll(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, entity.EnrollmentPending, enrollment.Status)

	// price 4000 plus fee 4160
	require.Len(t, f.provider.charges, 1)
	assert.Equal(t, int64(8160), f.provider.charges[0])

	require.NotNil(t, f.enrollments.lastParams)
	assert.Equal(t, "ch_test", f.enrollments.lastParams.ChargeID)
	assert.Equal(t, int64(8160), f.enrollments.lastParams.AmountCents)
	assert.Equal(t, int64(81), f.enrollments.lastParams.PointsAwarded)

	require.Len(t, f.publisher.tasks, 1)
	assert.Equal(t, "enrollment_email", f.publisher.tasks[0].Type)
}

func TestEnrollConsumesPoints(t *testing.T) {
	f := newEnrollmentFixture()
	f.users.profiles[2].Eventpoints = 50

	_, err := f.service.Enroll(context.Background(), 2, 10)
	require.NoError(t, err)

	params := f.enrollments.lastParams
	require.NotNil(t, params)
	assert.Equal(t, int64(50), params.PointsConsumed)
	assert.Equal(t, int64(52), params.Discount)
	assert.Equal(t, int64(8160-52), params.AmountCents)
}

func TestEnrollRefusals(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*enrollmentFixture)
		userID  int64
		wantErr error
	}{
		{
			name:    "unknown event",
			setup:   func(f *enrollmentFixture) { delete(f.events.events, 10) },
			userID:  2,
			wantErr: entity.ErrEventNotFound,
		},
		{
			name: "host enrolling in own event",
			setup: func(f *enrollmentFixture) {
				f.users.profiles[1] = &entity.Profile{
					UserID:    1,
					Birthdate: entity.DateOnly{Time: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)},
				}
			},
			userID:  1,
			wantErr: entity.ErrOwnEvent,
		},
		{
			name: "attendee too young",
			setup: func(f *enrollmentFixture) {
				f.users.profiles[2].Birthdate = entity.DateOnly{Time: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)}
			},
			userID:  2,
			wantErr: entity.ErrTooYoung,
		},
		{
			name:    "event full",
			setup:   func(f *enrollmentFixture) { f.events.events[10].AttendeeCount = 10 },
			userID:  2,
			wantErr: entity.ErrEventFull,
		},
		{
			name: "already enrolled",
			setup: func(f *enrollmentFixture) {
				f.enrollments.enrollments[1] = &entity.Enrollment{ID: 1, UserID: 2, EventID: 10, Status: entity.EnrollmentPending}
			},
			userID:  2,
			wantErr: entity.ErrAlreadyEnrolled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEnrollmentFixture()
			tt.setup(f)

			_, err := f.service.Enroll(context.Background(), tt.userID, 10)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.provider.charges, "no charge should be attempted")
		})
	}
}

func TestEnrollChargeFailure(t *testing.T) {
	f := newEnrollmentFixture()
	f.provider.chargeErr = errors.New("card declined")

	_, err := f.service.Enroll(context.Background(), 2, 10)
	assert.ErrorIs(t, err, entity.ErrPaymentFailed)
	assert.Nil(t, f.enrollments.lastParams, "nothing should be written after a failed charge")
}

// A database failure after a successful charge triggers a compensating refund.
func TestEnrollRefundsOnWriteFailure(t *testing.T) {
	f := newEnrollmentFixture()
	f.enrollments.enrollErr = errors.New("connection reset")

	_, err := f.service.Enroll(context.Background(), 2, 10)
	require.Error(t, err)
	assert.Equal(t, []string{"ch_test"}, f.provider.refunds)
}

func TestUpdateStatus(t *testing.T) {
	f := newEnrollmentFixture()
	f.enrollments.enrollments[1] = &entity.Enrollment{ID: 1, UserID: 2, EventID: 10, Status: entity.EnrollmentPending}

	err := f.service.UpdateStatus(context.Background(), 1, 1, entity.EnrollmentAccepted)
	require.NoError(t, err)
	assert.Equal(t, entity.EnrollmentAccepted, f.enrollments.enrollments[1].Status)

	require.Len(t, f.publisher.tasks, 1)
	assert.Equal(t, "status_email", f.publisher.tasks[0].Type)
	assert.Equal(t, "ACCEPTED", f.publisher.tasks[0].Data["status"])
}

func TestUpdateStatusRefusesNonHost(t *testing.T) {
	f := newEnrollmentFixture()
	f.enrollments.enrollments[1] = &entity.Enrollment{ID: 1, UserID: 2, EventID: 10, Status: entity.EnrollmentPending}

	err := f.service.UpdateStatus(context.Background(), 9, 1, entity.EnrollmentAccepted)
	assert.ErrorIs(t, err, entity.ErrForbidden)
	assert.Equal(t, entity.EnrollmentPending, f.enrollments.enrollments[1].Status)
}

func TestUpdateStatusAcceptBeyondCapacity(t *testing.T) {
	f := newEnrollmentFixture()
	f.events.events[10].AttendeeCount = 10
	f.enrollments.enrollments[1] = &entity.Enrollment{ID: 1, UserID: 2, EventID: 10, Status: entity.EnrollmentPending}

	err := f.service.UpdateStatus(context.Background(), 1, 1, entity.EnrollmentAccepted)
	assert.ErrorIs(t, err, entity.ErrEventFull)

	// rejection is still possible on a full event
	err = f.service.UpdateStatus(context.Background(), 1, 1, entity.EnrollmentRejected)
	assert.NoError(t, err)
}

// Rejecting an attendee gives back the charge and the consumed points,
// and flips the transaction so settlement cannot pay it to the host.
func TestUpdateStatusRejectRefunds(t *testing.T) {
	f := newEnrollmentFixture()
	f.enrollments.enrollments[1] = &entity.Enrollment{ID: 1, UserID: 2, EventID: 10, Status: entity.EnrollmentPending}
	f.transactions.transactions["tx1"] = &entity.Transaction{
		ID: "tx1", UserID: 2, EventID: 10, ChargeID: "ch_test",
		AmountCents: 8108, Discount: 52, PointsConsumed: 50,
	}

	err := f.service.UpdateStatus(context.Background(), 1, 1, entity.EnrollmentRejected)
	require.NoError(t, err)

	assert.True(t, f.transactions.transactions["tx1"].Reversed)
	assert.Equal(t, []string{"ch_test"}, f.provider.refunds)
	assert.Equal(t, int64(50), f.transactions.credited[2], "exactly the consumed points come back")
}

func TestCancelEnrollment(t *testing.T) {
	f := newEnrollmentFixture()
	f.enrollments.enrollments[1] = &entity.Enrollment{ID: 1, UserID: 2, EventID: 10, Status: entity.EnrollmentAccepted}
	f.transactions.transactions["tx1"] = &entity.Transaction{
		ID: "tx1", UserID: 2, EventID: 10, ChargeID: "ch_test",
		AmountCents: 8108, Discount: 52, PointsConsumed: 50,
	}

	err := f.service.CancelEnrollment(context.Background(), 2, 1)
	require.NoError(t, err)

	assert.NotContains(t, f.enrollments.enrollments, int64(1))
	assert.True(t, f.transactions.transactions["tx1"].Reversed)
	assert.Equal(t, []string{"ch_test"}, f.provider.refunds)
	assert.Equal(t, int64(50), f.transactions.credited[2])
}

// A free enrollment has no transaction to give back; cancellation still
// removes the enrollment without touching the payment provider.
func TestCancelEnrollmentWithoutTransaction(t *testing.T) {
	f := newEnrollmentFixture()
	f.enrollments.enrollments[1] = &entity.Enrollment{ID: 1, UserID: 2, EventID: 10, Status: entity.EnrollmentAccepted}

	err := f.service.CancelEnrollment(context.Background(), 2, 1)
	require.NoError(t, err)

	assert.NotContains(t, f.enrollments.enrollments, int64(1))
	assert.Empty(t, f.provider.refunds)
}

func TestCancelEnrollmentRefusesNonOwner(t *testing.T) {
	f := newEnrollmentFixture()
	f.enrollments.enrollments[1] = &entity.Enrollment{ID: 1, UserID: 2, EventID: 10, Status: entity.EnrollmentAccepted}

	err := f.service.CancelEnrollment(context.Background(), 9, 1)
	assert.ErrorIs(t, err, entity.ErrForbidden)
	assert.Contains(t, f.enrollments.enrollments, int64(1))
	assert.Empty(t, f.provider.refunds)
}

func TestCancelEnrollmentAfterStart(t *testing.T) {
	f := newEnrollmentFixture()
	f.events.events[10].Date = entity.DateOnly{Time: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)}
	f.enrollments.enrollments[1] = &entity.Enrollment{ID: 1, UserID: 2, EventID: 10, Status: entity.EnrollmentAccepted}

	err := f.service.CancelEnrollment(context.Background(), 2, 1)
	assert.ErrorIs(t, err, entity.ErrEventStarted)
	assert.Contains(t, f.enrollments.enrollments, int64(1))
}

// Cancelling after the host already rejected the enrollment must not
// refund or credit a second time: the reversal is once per transaction.
func TestCancelAfterRejectionDoesNotDoubleRefund(t *testing.T) {
	f := newEnrollmentFixture()
	f.enrollments.enrollments[1] = &entity.Enrollment{ID: 1, UserID: 2, EventID: 10, Status: entity.EnrollmentPending}
	f.transactions.transactions["tx1"] = &entity.Transaction{
		ID: "tx1", UserID: 2, EventID: 10, ChargeID: "ch_test",
		AmountCents: 8108, Discount: 52, PointsConsumed: 50,
	}

	require.NoError(t, f.service.UpdateStatus(context.Background(), 1, 1, entity.EnrollmentRejected))
	require.NoError(t, f.service.CancelEnrollment(context.Background(), 2, 1))

	assert.Equal(t, []string{"ch_test"}, f.provider.refunds, "one refund total")
	assert.Equal(t, int64(50), f.transactions.credited[2], "points credited once")
}
