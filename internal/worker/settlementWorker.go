package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	repository "github.com/eventshow/eventshow/internal/database/postgres"
	"github.com/eventshow/eventshow/pkg/payment"
	"github.com/eventshow/eventshow/pkg/queue"
)

// SettlementWorker periodically pays hosts for finished events. Each open
// transaction of a finished event transfers the ticket price to the host's
// payment account; the platform keeps the fee.
type SettlementWorker struct {
	eventRepo       repository.EventRepository
	transactionRepo repository.TransactionRepository
	userRepo        repository.UserRepository
	provider        payment.Provider
	queue           queue.Queue
	interval        time.Duration
	batchSize       int
}

func NewSettlementWorker(
	eventRepo repository.EventRepository,
	transactionRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	provider payment.Provider,
	q queue.Queue,
	interval time.Duration,
	batchSize int,
) *SettlementWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SettlementWorker{
		eventRepo:       eventRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		provider:        provider,
		queue:           q,
		interval:        interval,
		batchSize:       batchSize,
	}
}

func (w *SettlementWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Settlement worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Settlement worker stopped")
			return
		case <-ticker.C:
			w.settleFinishedEvents(ctx)
		}
	}
}

func (w *SettlementWorker) settleFinishedEvents(ctx context.Context) {
	now := time.Now()

	events, err := w.eventRepo.GetFinishedUnsettled(ctx, now, w.batchSize)
	if err != nil {
		logrus.Errorf("Failed to get unsettled events: %v", err)
		return
	}

	if len(events) == 0 {
		return
	}

	logrus.Infof("Found %d finished events awaiting settlement", len(events))

	settled := 0
	failed := 0

	for _, event := range events {
		select {
		case <-ctx.Done():
			logrus.Info("Settlement interrupted by context cancellation")
			return
		default:
		}

		// Events without an end time finish at the end of their day;
		// only pay out once the whole event is over.
		if !event.HasFinished(now) {
			continue
		}

		if err := w.settleEvent(ctx, event.ID, event.HostID, event.PriceCents); err != nil {
			logrus.Errorf("Failed to settle event %d: %v", event.ID, err)
			failed++
			continue
		}
		settled++
	}

	logrus.Infof("Settlement pass completed: %d settled, %d failed", settled, failed)
}

func (w *SettlementWorker) settleEvent(ctx context.Context, eventID int64, hostID *int64, priceCents int64) error {
	transactions, err := w.transactionRepo.GetUnsettledByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}
	if len(transactions) == 0 {
		return nil
	}

	// A detached event has no host to pay; close the transactions out.
	if hostID == nil {
		ids := make([]string, len(transactions))
		for i, t := range transactions {
			ids[i] = t.ID
		}
		return w.transactionRepo.MarkPaidFor(ctx, ids)
	}

	profile, err := w.userRepo.GetProfile(ctx, *hostID)
	if err != nil {
		return fmt.Errorf("failed to get host profile: %w", err)
	}

	payout := priceCents * int64(len(transactions))
	if payout > 0 {
		desc := fmt.Sprintf("settlement for event %d", eventID)
		if _, err := w.provider.Payout(ctx, profile.PaymentAccountID, payout, desc); err != nil {
			return fmt.Errorf("payout failed: %w", err)
		}
	}

	ids := make([]string, len(transactions))
	for i, t := range transactions {
		ids[i] = t.ID
	}
	if err := w.transactionRepo.MarkPaidFor(ctx, ids); err != nil {
		return fmt.Errorf("failed to mark transactions settled: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"event_id":     eventID,
		"host_id":      *hostID,
		"payout_cents": payout,
		"transactions": len(ids),
	}).Info("event settled")

	if w.queue != nil {
		task := &queue.Task{
			ID:   uuid.NewString(),
			Type: queue.TaskTypeSettlementEmail,
			Data: map[string]interface{}{
				"user_id":      *hostID,
				"event_id":     eventID,
				"payout_cents": payout,
			},
		}
		if err := w.queue.Publish(ctx, task); err != nil {
			logrus.WithError(err).Warn("failed to queue settlement notification")
		}
	}

	return nil
}
