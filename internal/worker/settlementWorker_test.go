package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repository "github.com/eventshow/eventshow/internal/database/postgres"
	"github.com/eventshow/eventshow/internal/entity"
)

type fakeEventRepo struct {
	repository.EventRepository
	finished []*entity.Event
}

func (f *fakeEventRepo) GetFinishedUnsettled(ctx context.Context, before time.Time, limit int) ([]*entity.Event, error) {
	return f.finished, nil
}

type fakeTransactionRepo struct {
	repository.TransactionRepository
	unsettled map[int64][]*entity.Transaction
	paid      []string
}

func (f *fakeTransactionRepo) GetUnsettledByEvent(ctx context.Context, eventID int64) ([]*entity.Transaction, error) {
	return f.unsettled[eventID], nil
}

func (f *fakeTransactionRepo) MarkPaidFor(ctx context.Context, ids []string) error {
	f.paid = append(f.paid, ids...)
	return nil
}

type fakeUserRepo struct {
	repository.UserRepository
	profiles map[int64]*entity.Profile
}

func (f *fakeUserRepo) GetProfile(ctx context.Context, userID int64) (*entity.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, entity.ErrProfileNotFound
	}
	return p, nil
}

type fakeProvider struct {
	payouts map[string]int64
}

func (f *fakeProvider) Charge(ctx context.Context, customerID string, amountCents int64, description string) (string, error) {
	return "ch_test", nil
}

func (f *fakeProvider) Refund(ctx context.Context, chargeID string) error { return nil }

func (f *fakeProvider) Payout(ctx context.Context, accountID string, amountCents int64, description string) (string, error) {
	if f.payouts == nil {
		f.payouts = map[string]int64{}
	}
	f.payouts[accountID] += amountCents
	return "tr_test", nil
}

func pastEvent(id, hostID, priceCents int64) *entity.Event {
	host := hostID
	return &entity.Event{
		ID:         id,
		HostID:     &host,
		Date:       entity.DateOnly{Time: time.Now().UTC().AddDate(0, 0, -2)},
		StartTime:  entity.ClockTime{Time: time.Date(0, 1, 1, 19, 0, 0, 0, time.UTC)},
		PriceCents: priceCents,
	}
}

func TestSettleFinishedEvents(t *testing.T) {
	events := &fakeEventRepo{finished: []*entity.Event{pastEvent(10, 1, 4000)}}
	transactions := &fakeTransactionRepo{unsettled: map[int64][]*entity.Transaction{
		10: {
			{ID: "t1", EventID: 10, UserID: 2, AmountCents: 8160},
			{ID: "t2", EventID: 10, UserID: 3, AmountCents: 8160},
		},
	}}
	users := &fakeUserRepo{profiles: map[int64]*entity.Profile{
		1: {UserID: 1, PaymentAccountID: "acct_host"},
	}}
	provider := &fakeProvider{}

	w := NewSettlementWorker(events, transactions, users, provider, nil, time.Minute, 100)
	w.settleFinishedEvents(context.Background())

	// the host earns the ticket price per attendee, the fee stays with us
	assert.Equal(t, int64(8000), provider.payouts["acct_host"])
	assert.ElementsMatch(t, []string{"t1", "t2"}, transactions.paid)
}

func TestSettleEventWithoutHost(t *testing.T) {
	event := pastEvent(10, 1, 4000)
	event.HostID = nil

	events := &fakeEventRepo{finished: []*entity.Event{event}}
	transactions := &fakeTransactionRepo{unsettled: map[int64][]*entity.Transaction{
		10: {{ID: "t1", EventID: 10, UserID: 2, AmountCents: 8160}},
	}}
	provider := &fakeProvider{}

	w := NewSettlementWorker(events, transactions, &fakeUserRepo{}, provider, nil, time.Minute, 100)
	w.settleFinishedEvents(context.Background())

	// transactions close out without a payout
	assert.Empty(t, provider.payouts)
	assert.Equal(t, []string{"t1"}, transactions.paid)
}

func TestSettleSkipsEventsStillRunning(t *testing.T) {
	running := pastEvent(10, 1, 4000)
	running.Date = entity.DateOnly{Time: time.Now().UTC()}

	events := &fakeEventRepo{finished: []*entity.Event{running}}
	transactions := &fakeTransactionRepo{unsettled: map[int64][]*entity.Transaction{
		10: {{ID: "t1", EventID: 10, UserID: 2, AmountCents: 8160}},
	}}

	w := NewSettlementWorker(events, transactions, &fakeUserRepo{}, &fakeProvider{}, nil, time.Minute, 100)
	w.settleFinishedEvents(context.Background())

	assert.Empty(t, transactions.paid)
}

func TestSettleNoOpenTransactions(t *testing.T) {
	events := &fakeEventRepo{finished: []*entity.Event{pastEvent(10, 1, 4000)}}
	transactions := &fakeTransactionRepo{unsettled: map[int64][]*entity.Transaction{}}

	w := NewSettlementWorker(events, transactions, &fakeUserRepo{}, &fakeProvider{}, nil, time.Minute, 100)
	w.settleFinishedEvents(context.Background())

	require.Empty(t, transactions.paid)
}
