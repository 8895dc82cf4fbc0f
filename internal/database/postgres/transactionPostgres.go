package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eventshow/eventshow/internal/entity"
	"github.com/lib/pq"
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, user_id, event_id, charge_id, amount_cents, discount,
	points_consumed, is_paid_for, reversed, created_at, updated_at`

func (r *transactionRepository) GetByEventAndUser(ctx context.Context, eventID, userID int64) (*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE event_id = $1 AND user_id = $2 AND reversed = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanTransaction(r.db.QueryRowContext(ctx, query, eventID, userID))
}

func (r *transactionRepository) scanTransaction(row *sql.Row) (*entity.Transaction, error) {
	var t entity.Transaction
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.EventID,
		&t.ChargeID,
		&t.AmountCents,
		&t.Discount,
		&t.PointsConsumed,
		&t.IsPaidFor,
		&t.Reversed,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %v", err)
	}
	return &t, nil
}

func (r *transactionRepository) GetReceiptsByUser(ctx context.Context, userID int64) ([]*entity.Receipt, error) {
	query := `
		SELECT t.id, t.user_id, t.event_id, t.charge_id, t.amount_cents, t.discount,
			t.points_consumed, t.is_paid_for, t.reversed, t.created_at, t.updated_at, e.title, e.date
		FROM transactions t
		JOIN events e ON e.id = t.event_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*entity.Receipt
	for rows.Next() {
		var receipt entity.Receipt
		err := rows.Scan(
			&receipt.ID,
			&receipt.UserID,
			&receipt.EventID,
			&receipt.ChargeID,
			&receipt.AmountCents,
			&receipt.Discount,
			&receipt.PointsConsumed,
			&receipt.IsPaidFor,
			&receipt.Reversed,
			&receipt.CreatedAt,
			&receipt.UpdatedAt,
			&receipt.EventTitle,
			&receipt.EventDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, &receipt)
	}

	return receipts, rows.Err()
}

func (r *transactionRepository) GetUnsettledByEvent(ctx context.Context, eventID int64) ([]*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE event_id = $1 AND is_paid_for = FALSE AND reversed = FALSE
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsettled transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.EventID,
			&t.ChargeID,
			&t.AmountCents,
			&t.Discount,
			&t.PointsConsumed,
			&t.IsPaidFor,
			&t.Reversed,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &t)
	}

	return transactions, rows.Err()
}

func (r *transactionRepository) MarkPaidFor(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE transactions SET is_paid_for = TRUE, updated_at = $1 WHERE id = ANY($2)`
	_, err := r.db.ExecContext(ctx, query, time.Now(), pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to mark transactions settled: %w", err)
	}
	return nil
}

// ReverseAndCredit flips the reversed flag and restores the points the
// discount consumed in one database transaction, so the flag and the
// credit never partially apply. The flag guard makes repeated reversal
// requests harmless: a second call reports entity.ErrAlreadyReversed
// and credits nothing.
func (r *transactionRepository) ReverseAndCredit(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	now := time.Now()
	var userID, pointsConsumed int64
	query := `
		UPDATE transactions SET reversed = TRUE, updated_at = $1
		WHERE id = $2 AND reversed = FALSE
		RETURNING user_id, points_consumed
	`
	err = tx.QueryRowContext(ctx, query, now, id).Scan(&userID, &pointsConsumed)
	if err == sql.ErrNoRows {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE id = $1`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check transaction: %w", err)
		}
		if exists == 0 {
			return entity.ErrTransactionNotFound
		}
		return entity.ErrAlreadyReversed
	}
	if err != nil {
		return fmt.Errorf("failed to reverse transaction: %w", err)
	}

	if pointsConsumed > 0 {
		query = `UPDATE profiles SET eventpoints = eventpoints + $1, updated_at = $2 WHERE user_id = $3`
		if _, err := tx.ExecContext(ctx, query, pointsConsumed, now, userID); err != nil {
			return fmt.Errorf("failed to restore discount points: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reversal: %v", err)
	}

	return nil
}
