package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eventshow/eventshow/internal/entity"
)

type enrollmentRepository struct {
	db *sql.DB
}

func NewEnrollmentRepository(db *sql.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// EnrollAtomic inserts the enrollment together with its payment record.
// Capacity and uniqueness are re-checked inside the transaction because
// the service-level checks ran outside of it.
func (r *enrollmentRepository) EnrollAtomic(ctx context.Context, params *EnrollParams) (*entity.Enrollment, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	// Re-check uniqueness
	var existing int
	query := `SELECT COUNT(*) FROM enrollments WHERE event_id = $1 AND user_id = $2`
	err = tx.QueryRowContext(ctx, query, params.Event.ID, params.UserID).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing enrollment: %v", err)
	}
	if existing > 0 {
		return nil, entity.ErrAlreadyEnrolled
	}

	// Re-check capacity against accepted attendees
	var accepted int
	query = `SELECT COUNT(*) FROM enrollments WHERE event_id = $1 AND status = 'ACCEPTED'`
	err = tx.QueryRowContext(ctx, query, params.Event.ID).Scan(&accepted)
	if err != nil {
		return nil, fmt.Errorf("failed to check accepted count: %v", err)
	}
	if accepted >= params.Event.Capacity {
		return nil, entity.ErrEventFull
	}

	now := time.Now()
	enrollment := &entity.Enrollment{
		UserID:    params.UserID,
		EventID:   params.Event.ID,
		Status:    entity.EnrollmentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query = `
		INSERT INTO enrollments (user_id, event_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		enrollment.UserID,
		enrollment.EventID,
		enrollment.Status,
		now,
		now,
	).Scan(&enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %v", err)
	}

	query = `
		INSERT INTO transactions (id, user_id, event_id, charge_id, amount_cents, discount,
			points_consumed, is_paid_for, reversed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, FALSE, $8, $9)
	`
	_, err = tx.ExecContext(ctx, query,
		params.TransactionID,
		params.UserID,
		params.Event.ID,
		params.ChargeID,
		params.AmountCents,
		params.Discount,
		params.PointsConsumed,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %v", err)
	}

	// Point accounting: consumed discount points and earned purchase
	// points settle in the same transaction.
	pointsDelta := params.PointsAwarded - params.PointsConsumed
	if pointsDelta != 0 {
		query = `UPDATE profiles SET eventpoints = eventpoints + $1, updated_at = $2 WHERE user_id = $3`
		if _, err = tx.ExecContext(ctx, query, pointsDelta, now, params.UserID); err != nil {
			return nil, fmt.Errorf("failed to update buyer eventpoints: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	return enrollment, nil
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id int64) (*entity.Enrollment, error) {
	query := `
		SELECT id, user_id, event_id, status, created_at, updated_at
		FROM enrollments
		WHERE id = $1
	`

	var enrollment entity.Enrollment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&enrollment.ID,
		&enrollment.UserID,
		&enrollment.EventID,
		&enrollment.Status,
		&enrollment.CreatedAt,
		&enrollment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %v", err)
	}

	return &enrollment, nil
}

func (r *enrollmentRepository) GetByEventAndUser(ctx context.Context, eventID, userID int64) (*entity.Enrollment, error) {
	query := `
		SELECT id, user_id, event_id, status, created_at, updated_at
		FROM enrollments
		WHERE event_id = $1 AND user_id = $2
	`

	var enrollment entity.Enrollment
	err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(
		&enrollment.ID,
		&enrollment.UserID,
		&enrollment.EventID,
		&enrollment.Status,
		&enrollment.CreatedAt,
		&enrollment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %v", err)
	}

	return &enrollment, nil
}

func (r *enrollmentRepository) GetByEvent(ctx context.Context, eventID int64) ([]*entity.EnrollmentWithUser, error) {
	query := `
		SELECT en.id, en.user_id, en.event_id, en.status, en.created_at, en.updated_at,
			u.username, u.first_name, u.last_name, COALESCE(p.picture, '')
		FROM enrollments en
		JOIN users u ON u.id = en.user_id
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE en.event_id = $1
		ORDER BY en.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	return r.collectEnrollments(rows)
}

func (r *enrollmentRepository) GetByEventAndStatus(ctx context.Context, eventID int64, status entity.EnrollmentStatus) ([]*entity.EnrollmentWithUser, error) {
	query := `
		SELECT en.id, en.user_id, en.event_id, en.status, en.created_at, en.updated_at,
			u.username, u.first_name, u.last_name, COALESCE(p.picture, '')
		FROM enrollments en
		JOIN users u ON u.id = en.user_id
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE en.event_id = $1 AND en.status = $2
		ORDER BY en.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	return r.collectEnrollments(rows)
}

func (r *enrollmentRepository) collectEnrollments(rows *sql.Rows) ([]*entity.EnrollmentWithUser, error) {
	var enrollments []*entity.EnrollmentWithUser
	for rows.Next() {
		var enrollment entity.EnrollmentWithUser
		err := rows.Scan(
			&enrollment.ID,
			&enrollment.UserID,
			&enrollment.EventID,
			&enrollment.Status,
			&enrollment.CreatedAt,
			&enrollment.UpdatedAt,
			&enrollment.Username,
			&enrollment.FirstName,
			&enrollment.LastName,
			&enrollment.Picture,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, &enrollment)
	}
	return enrollments, rows.Err()
}

func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id int64, status entity.EnrollmentStatus) error {
	query := `UPDATE enrollments SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update enrollment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrEnrollmentNotFound
	}

	return nil
}

func (r *enrollmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrEnrollmentNotFound
	}

	return nil
}

func (r *enrollmentRepository) CountAttendees(ctx context.Context, eventID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM enrollments WHERE event_id = $1 AND status = 'ACCEPTED'`
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count attendees: %w", err)
	}
	return count, nil
}
